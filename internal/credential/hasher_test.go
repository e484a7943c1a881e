package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/savemo/identity/testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher := NewHasher(4)

	hashed, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, hasher.Verify("correct horse battery staple", hashed))
	require.False(t, hasher.Verify("correct horse battery stable", hashed))
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewHasher(4)

	first, err := hasher.Hash("secret-password")
	require.NoError(t, err)
	second, err := hasher.Hash("secret-password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.True(t, hasher.Verify("secret-password", first))
	require.True(t, hasher.Verify("secret-password", second))
}

func TestLongPasswordsAreNormalized(t *testing.T) {
	hasher := NewHasher(4)

	long := strings.Repeat("p", 200)
	hashed, err := hasher.Hash(long)
	require.NoError(t, err)
	require.True(t, hasher.Verify(long, hashed))

	// Without pre-hashing bcrypt would truncate at 72 bytes and accept this.
	require.False(t, hasher.Verify(strings.Repeat("p", 201), hashed))
}

func TestLongPasswordBoundary(t *testing.T) {
	hasher := NewHasher(4)

	at := strings.Repeat("a", 72)
	over := strings.Repeat("a", 73)

	hashedAt, err := hasher.Hash(at)
	require.NoError(t, err)
	require.True(t, hasher.Verify(at, hashedAt))
	require.False(t, hasher.Verify(over, hashedAt))

	hashedOver, err := hasher.Hash(over)
	require.NoError(t, err)
	require.True(t, hasher.Verify(over, hashedOver))
	require.False(t, hasher.Verify(at, hashedOver))
}
