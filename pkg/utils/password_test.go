package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	h, err := HashPassword("testpass123")
	require.NoError(t, err)
	assert.NotEqual(t, "testpass123", h)
	assert.True(t, CheckPassword("testpass123", h))
	assert.False(t, CheckPassword("wrong", h))
}

func TestUnusablePassword(t *testing.T) {
	h := UnusablePassword()
	assert.False(t, HasUsablePassword(h))
	assert.False(t, CheckPassword("", h))
	assert.False(t, CheckPassword(h, h))
	assert.NotEqual(t, h, UnusablePassword())
	assert.False(t, CheckPassword("", ""))
}
