// Package sanitize strips unsafe markup from user-supplied comment content.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans comment content before it reaches storage
type Sanitizer interface {
	Sanitize(raw string) string
}

type ugcSanitizer struct {
	policy *bluemonday.Policy
}

// New returns a sanitizer that keeps user-generated-content formatting
// (links, emphasis, lists, code) and drops scripts, event handlers and unsafe URLs.
func New() Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &ugcSanitizer{policy: policy}
}

func (s *ugcSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
