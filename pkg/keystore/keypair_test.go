package keystore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadOrGenerateCreatesOnFirstRun(t *testing.T) {
	store := openTestStore(t)
	sealKey := randomKey(t)

	kp, err := LoadOrGenerate(store, sealKey)
	require.NoError(t, err)
	assert.NotNil(t, kp.Private)
	assert.NotNil(t, kp.Public)
	assert.True(t, kp.Public.Equal(&kp.Private.PublicKey))

	blob, ok, err := store.LoadSealed()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, blob)
}

func TestLoadOrGenerateReturnsSameKeyOnSecondCall(t *testing.T) {
	store := openTestStore(t)
	sealKey := randomKey(t)

	first, err := LoadOrGenerate(store, sealKey)
	require.NoError(t, err)

	second, err := LoadOrGenerate(store, sealKey)
	require.NoError(t, err)

	assert.Equal(t, 0, first.Private.D.Cmp(second.Private.D))
	assert.True(t, first.Public.Equal(second.Public))
}

func TestLoadOrGenerateRegeneratesWhenBlobUnreadable(t *testing.T) {
	store := openTestStore(t)
	first, err := LoadOrGenerate(store, randomKey(t))
	require.NoError(t, err)

	// A different seal key cannot unseal the stored blob, so a fresh key
	// pair is generated and sealed under the new key.
	otherKey := randomKey(t)
	second, err := LoadOrGenerate(store, otherKey)
	require.NoError(t, err)
	assert.NotEqual(t, 0, first.Private.D.Cmp(second.Private.D))

	again, err := LoadOrGenerate(store, otherKey)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Private.D.Cmp(again.Private.D))
}
