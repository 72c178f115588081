package keystore

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

// TestSealUnsealRoundTrip covers the unseal(seal(k)) = k direction of
// I6. Seal draws a fresh nonce on every call, so re-sealing an unsealed
// blob yields a different blob with the same plaintext (see
// TestSealProducesDistinctBlobsForSamePlaintext).
func TestSealUnsealRoundTrip(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	blob, err := Seal(key, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, blob)

	got, err := Unseal(key, blob)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestSealProducesDistinctBlobsForSamePlaintext(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("repeat me")

	a, err := Seal(key, plaintext)
	require.NoError(t, err)
	b, err := Seal(key, plaintext)
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a, b), "fresh random nonce per call must change the ciphertext")
}

func TestUnsealRejectsWrongKey(t *testing.T) {
	blob, err := Seal(randomKey(t), []byte("secret"))
	require.NoError(t, err)

	_, err = Unseal(randomKey(t), blob)
	assert.Error(t, err)
}

func TestUnsealRejectsTruncatedBlob(t *testing.T) {
	key := randomKey(t)
	blob, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	_, err = Unseal(key, blob[:len(blob)-5])
	assert.Error(t, err)

	_, err = Unseal(key, []byte{1, 2})
	assert.Error(t, err)
}

func TestSealRejectsWrongKeyLength(t *testing.T) {
	_, err := Seal([]byte("too-short"), []byte("x"))
	assert.Error(t, err)
}
