package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool, 100)
	for range 100 {
		tok, err := GenerateToken(TokenSize128)
		require.NoError(t, err)
		require.Len(t, tok, 22)
		require.NotContains(t, seen, tok, "duplicate token generated")
		seen[tok] = true
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		tok, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, tok)
	}
}

func TestEqualTokens(t *testing.T) {
	require.True(t, EqualTokens("abc", "abc"))
	require.False(t, EqualTokens("abc", "abd"))
	require.False(t, EqualTokens("", ""))
	require.False(t, EqualTokens("abc", ""))
}
