package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPINFormat(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		pin, err := NewPIN()
		require.NoError(t, err)
		assert.Regexp(t, re, pin)
	}
}

func TestHashPINDeterministic(t *testing.T) {
	assert.Equal(t, HashPIN("123456"), HashPIN("123456"))
	assert.NotEqual(t, HashPIN("123456"), HashPIN("123457"))
	assert.Len(t, HashPIN("123456"), 64)
}

func TestVerifyPIN(t *testing.T) {
	hash := HashPIN("042517")
	assert.True(t, VerifyPIN("042517", hash))
	assert.False(t, VerifyPIN("042518", hash))
	assert.False(t, VerifyPIN("", hash))
}
