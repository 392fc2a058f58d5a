package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePickupCode_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GeneratePickupCode()
		require.NoError(t, err)
		assert.Len(t, code, PickupCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(pickupCodeAlphabet, r), "unexpected rune %q in %s", r, code)
		}
	}
}

func TestPickupCodeMatches(t *testing.T) {
	assert.True(t, PickupCodeMatches("K7P2QX", "K7P2QX"))
	assert.False(t, PickupCodeMatches("K7P2QX", "k7p2qx"))
	assert.False(t, PickupCodeMatches("K7P2QX", "K7P2Q"))
	assert.False(t, PickupCodeMatches("K7P2QX", " K7P2QX "))
	assert.False(t, PickupCodeMatches("K7P2QX", ""))
	assert.False(t, PickupCodeMatches("", ""))
}
