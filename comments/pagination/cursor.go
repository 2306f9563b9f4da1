package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
)

const (
	// CursorVersion is the only cursor layout this service issues and accepts
	CursorVersion = 1

	// KeyCreatedAt names the ordering key carried by a cursor
	KeyCreatedAt = "createdAt"
)

// Cursor is the decoded position of the last row a client has seen.
// Rows are ordered by (CreatedAt, ID); ID breaks ties between equal timestamps.
type Cursor struct {
	Version   int
	Key       string
	CreatedAt time.Time
	ID        uuid.UUID
}

type cursorWire struct {
	V  int    `json:"v"`
	K  string `json:"k"`
	TS string `json:"ts"`
	ID string `json:"id"`
}

// NewCursor builds a cursor positioned at the given row
func NewCursor(createdAt time.Time, id uuid.UUID) Cursor {
	return Cursor{
		Version:   CursorVersion,
		Key:       KeyCreatedAt,
		CreatedAt: createdAt.UTC(),
		ID:        id,
	}
}

// Encode returns the opaque token for c
func Encode(c Cursor) string {
	raw, _ := json.Marshal(cursorWire{
		V:  c.Version,
		K:  c.Key,
		TS: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		ID: c.ID.String(),
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses an opaque token produced by Encode
func Decode(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}

	var wire cursorWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}

	if wire.V != CursorVersion {
		return Cursor{}, fmt.Errorf("unsupported cursor version %d", wire.V)
	}
	if wire.K != KeyCreatedAt {
		return Cursor{}, fmt.Errorf("unsupported cursor key %q", wire.K)
	}

	ts, err := time.Parse(time.RFC3339Nano, wire.TS)
	if err != nil {
		return Cursor{}, fmt.Errorf("parse cursor timestamp: %w", err)
	}

	id, err := uuid.FromString(wire.ID)
	if err != nil {
		return Cursor{}, fmt.Errorf("parse cursor id: %w", err)
	}

	return Cursor{
		Version:   wire.V,
		Key:       wire.K,
		CreatedAt: ts.UTC(),
		ID:        id,
	}, nil
}
