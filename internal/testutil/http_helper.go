package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/telar/apps/comments/internal/types"
)

// HTTPHelper provides a robust way to make HTTP requests in tests.
// It enforces error checking and provides a fluent API for building requests.
type HTTPHelper struct {
	t   *testing.T
	app *fiber.App
}

// NewHTTPHelper creates a new test helper for a given Fiber app.
func NewHTTPHelper(t *testing.T, app *fiber.App) *HTTPHelper {
	require.NotNil(t, app, "Fiber app provided to HTTPHelper cannot be nil")
	return &HTTPHelper{
		t:   t,
		app: app,
	}
}

// Request represents a test request under construction.
type Request struct {
	helper    *HTTPHelper
	method    string
	path      string
	bodyBytes []byte
	headers   http.Header
}

// NewRequest begins building a new test request. It centralizes body marshaling.
func (h *HTTPHelper) NewRequest(method, path string, body interface{}) *Request {
	var bodyBytes []byte
	if body != nil {
		switch b := body.(type) {
		case []byte:
			bodyBytes = b
		case string:
			bodyBytes = []byte(b)
		default:
			jsonBytes, err := json.Marshal(body)
			require.NoError(h.t, err, "Failed to marshal request body to JSON")
			bodyBytes = jsonBytes
		}
	}

	req := &Request{
		helper:    h,
		method:    method,
		path:      path,
		bodyBytes: bodyBytes,
		headers:   make(http.Header),
	}

	if body != nil {
		req.WithHeader(types.HeaderContentType, "application/json")
	}

	return req
}

// WithHeader adds a header to the request.
func (r *Request) WithHeader(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

// WithCaller sets the identity headers read by the identity middleware.
func (r *Request) WithCaller(userID string, isModerator bool) *Request {
	r.WithHeader(types.HeaderUserID, userID)
	r.WithHeader(types.HeaderIsModerator, strconv.FormatBool(isModerator))
	return r
}

// Send executes the request and returns the response.
func (r *Request) Send() *http.Response {
	req := httptest.NewRequest(r.method, r.path, bytes.NewReader(r.bodyBytes))
	req.Header = r.headers

	resp, err := r.helper.app.Test(req, int(10*time.Second.Milliseconds()))
	require.NoError(r.helper.t, err, "app.Test should not return an error")
	require.NotNil(r.helper.t, resp, "app.Test response should not be nil")

	return resp
}

// SendJSON executes the request and decodes the response body into out.
func (r *Request) SendJSON(out interface{}) *http.Response {
	resp := r.Send()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(r.helper.t, err)
	if out != nil && len(body) > 0 {
		require.NoError(r.helper.t, json.Unmarshal(body, out), "response body: %s", string(body))
	}

	return resp
}
