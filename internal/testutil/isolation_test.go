package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTestName(t *testing.T) {
	assert.Equal(t, "testrepo_create_reply", SanitizeTestName("TestRepo/Create reply"))
	assert.Equal(t, "testa_b", SanitizeTestName("TestA/B-!"))
	assert.Len(t, SanitizeTestName(strings.Repeat("x", 100)), 41)
}

func TestWithSearchPath(t *testing.T) {
	assert.Equal(t,
		"postgres://u:p@localhost:5432/db?sslmode=disable&search_path=s1",
		withSearchPath("postgres://u:p@localhost:5432/db?sslmode=disable", "s1"))
	assert.Equal(t,
		"postgres://u:p@localhost:5432/db?search_path=s1",
		withSearchPath("postgres://u:p@localhost:5432/db", "s1"))
	assert.Equal(t,
		"host=db dbname=c search_path=s1",
		withSearchPath("host=db dbname=c", "s1"))
}
