package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	valid := []string{"alice@example.com", "bob.smith+mcp@widget.co.uk"}
	for _, e := range valid {
		assert.NoError(t, Email(e), e)
	}

	invalid := []string{"", "alice", "alice@", "@example.com", "alice@localhost", "Alice <alice@example.com>", "alice@example.", " alice@example.com"}
	for _, e := range invalid {
		assert.ErrorIs(t, Email(e), ErrInvalidEmail, e)
	}
}

func TestLength(t *testing.T) {
	assert.NoError(t, Length("name", "CI", 2, 100))
	assert.NoError(t, Length("name", "ключ", 2, 4))
	assert.ErrorIs(t, Length("name", "x", 2, 100), ErrInvalidName)
	assert.ErrorIs(t, Length("name", strings.Repeat("a", 101), 2, 100), ErrInvalidName)
}
