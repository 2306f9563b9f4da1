package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	s := New()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "plain text untouched",
			input:    "hello",
			contains: []string{"hello"},
		},
		{
			name:     "script removed",
			input:    "<script>alert('xss')</script>Hello World",
			contains: []string{"Hello World"},
			excludes: []string{"<script", "alert"},
		},
		{
			name:     "event handler removed",
			input:    `<img src="x" onerror="alert(1)">`,
			excludes: []string{"onerror", "alert"},
		},
		{
			name:     "javascript url removed",
			input:    `<a href="javascript:alert(1)">click</a>`,
			contains: []string{"click"},
			excludes: []string{"javascript:"},
		},
		{
			name:     "safe formatting kept",
			input:    "<b>bold</b> and <em>soft</em>",
			contains: []string{"<b>bold</b>", "<em>soft</em>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Sanitize(tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	s := New()
	once := s.Sanitize(`<p onclick="x()">hi <b>there</b></p>`)
	assert.Equal(t, "<p>hi <b>there</b></p>", once)
	assert.Equal(t, once, s.Sanitize(once))
}
