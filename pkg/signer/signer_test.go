package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	ctx := NewWorkerContext(0, kp.Private, nil)
	sig, err := ctx.Sign(1, 2, types.Exclusive)
	require.NoError(t, err)
	assert.Len(t, sig, 89, "wire signature must be base64url(r)-base64url(s), 89 characters")

	assert.NoError(t, Verify(kp.Public, sig, 1, 2, types.Exclusive, 0))
}

func TestVerifyRejectsWrongParameters(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	ctx := NewWorkerContext(0, kp.Private, nil)
	sig, err := ctx.Sign(1, 2, types.Shared)
	require.NoError(t, err)

	cases := []struct {
		name string
		tid  uint32
		rid  uint32
		mode types.LockMode
	}{
		{"wrong tid", 99, 2, types.Shared},
		{"wrong rid", 1, 99, types.Shared},
		{"wrong mode", 1, 2, types.Exclusive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify(kp.Public, sig, tc.tid, tc.rid, tc.mode, 0)
			assert.Equal(t, types.ErrSignatureInvalid, types.KindOf(err))
		})
	}
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	err = Verify(kp.Public, "not-a-signature-at-all", 1, 2, types.Shared, 0)
	assert.Equal(t, types.ErrSignatureInvalid, types.KindOf(err))
}

func TestExportParsePublicKeyRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	exported := ExportPublicKey(kp.Public)
	parsed, err := ParsePublicKey(exported)
	require.NoError(t, err)

	assert.True(t, kp.Public.Equal(parsed))
}

func TestParsePublicKeyRejectsGarbage(t *testing.T) {
	_, err := ParsePublicKey("garbage")
	assert.Equal(t, types.ErrKeyMaterialError, types.KindOf(err))

	_, err = ParsePublicKey("not-base64-!!.3")
	assert.Equal(t, types.ErrKeyMaterialError, types.KindOf(err))
}

func TestZeroTimeout(t *testing.T) {
	assert.Equal(t, uint64(0), ZeroTimeout())
}

func TestDifferentWorkersSignVerifiableUnderSharedKey(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	a := NewWorkerContext(0, kp.Private, nil)
	b := NewWorkerContext(1, kp.Private, nil)

	sigA, err := a.Sign(5, 6, types.Shared)
	require.NoError(t, err)
	sigB, err := b.Sign(5, 6, types.Shared)
	require.NoError(t, err)

	// ECDSA signatures are randomized, so the two differ, but both
	// verify — the worker index carries no cryptographic weight.
	assert.NotEqual(t, sigA, sigB)
	assert.NoError(t, Verify(kp.Public, sigA, 5, 6, types.Shared, 0))
	assert.NoError(t, Verify(kp.Public, sigB, 5, 6, types.Shared, 0))
}
