package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := NewBcryptHasher(4)

	digest, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2"), "digest should be self-describing")

	assert.True(t, h.Verify("pw", digest))
	assert.False(t, h.Verify("wrong", digest))
}

func TestHashLongPasswords(t *testing.T) {
	h := NewBcryptHasher(4)

	long := strings.Repeat("a", 100)
	digest, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Verify(long, digest))

	// Two passwords sharing the first 72 bytes must still hash apart,
	// otherwise the tail would be silently dropped.
	prefix := strings.Repeat("x", 72)
	first, err := h.Hash(prefix + "tail-one")
	require.NoError(t, err)
	assert.False(t, h.Verify(prefix+"tail-two", first))
	assert.True(t, h.Verify(prefix+"tail-one", first))
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewBcryptHasher(4)

	for _, digest := range []string{"", "garbage", "$2a$nonsense", "{sha256}deadbeef"} {
		assert.False(t, h.Verify("pw", digest), "digest %q", digest)
	}
}
