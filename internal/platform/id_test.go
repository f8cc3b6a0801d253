package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID_ReturnsValidUUIDString(t *testing.T) {
	id := NewID()
	assert.NotEmpty(t, id)
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
}

func TestNewID_ReturnsUniqueValues(t *testing.T) {
	seen := make(map[string]bool, 100)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id], "duplicate ID generated: %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}

func TestNewVerificationToken_Format(t *testing.T) {
	token := NewVerificationToken()
	assert.Regexp(t, `^quimera-verify=[a-z0-9]{32}$`, token)
}

func TestNewVerificationToken_ReturnsUniqueValues(t *testing.T) {
	seen := make(map[string]bool, 100)
	for i := 0; i < 100; i++ {
		token := NewVerificationToken()
		assert.False(t, seen[token], "duplicate token generated: %s", token)
		seen[token] = true
	}
	assert.Len(t, seen, 100)
}
