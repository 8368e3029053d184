package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAPIKey_FormatAndHash(t *testing.T) {
	full, hash, prefix, err := GenerateAPIKey()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(full, "fcs_"))
	require.Equal(t, full[:8], prefix)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(full)))
}

func TestGenerateAPIKey_UniquePerCall(t *testing.T) {
	a, _, _, _ := GenerateAPIKey()
	b, _, _, _ := GenerateAPIKey()
	require.NotEqual(t, a, b)
}
