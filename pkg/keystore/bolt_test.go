package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadSealedMissingOnFirstOpen(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.LoadSealed()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSaveSealedOverwrites(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveSealed([]byte("first")))
	blob, ok, err := store.LoadSealed()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("first"), blob)

	require.NoError(t, store.SaveSealed([]byte("second")))
	blob, ok, err = store.LoadSealed()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), blob)
}
