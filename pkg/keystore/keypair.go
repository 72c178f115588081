package keystore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/shangsuru/verifiable-lockmanager/pkg/signer"
)

const scalarLen = 32 // P-256 private scalar width, matching signer's curveByteLen

// LoadOrGenerate implements §4.G's startup sequence: attempt to read
// and unseal a stored key pair; if none exists or the blob cannot be
// read, generate a fresh ECDSA P-256 key pair and persist it sealed.
// sealKey is the AES-256-GCM key the blob is sealed under (32 bytes).
func LoadOrGenerate(store *Store, sealKey []byte) (*signer.KeyPair, error) {
	blob, ok, err := store.LoadSealed()
	if err != nil {
		return nil, fmt.Errorf("keystore: load sealed key pair: %w", err)
	}
	if ok {
		plaintext, err := Unseal(sealKey, blob)
		if err != nil {
			return nil, fmt.Errorf("keystore: sealed key pair is unreadable: %w", err)
		}
		return decodeKeyPair(plaintext)
	}

	kp, err := signer.Generate()
	if err != nil {
		return nil, err
	}
	blob, err = Seal(sealKey, encodeKeyPair(kp))
	if err != nil {
		return nil, fmt.Errorf("keystore: seal freshly generated key pair: %w", err)
	}
	if err := store.SaveSealed(blob); err != nil {
		return nil, fmt.Errorf("keystore: persist sealed key pair: %w", err)
	}
	return kp, nil
}

// encodeKeyPair serializes the private scalar D, zero-padded to
// scalarLen, as the canonical form to seal. The public key is always
// re-derived from D on load (scalar multiplication is cheap and this
// avoids storing redundant, possibly-inconsistent state).
func encodeKeyPair(kp *signer.KeyPair) []byte {
	buf := make([]byte, scalarLen)
	kp.Private.D.FillBytes(buf)
	return buf
}

func decodeKeyPair(raw []byte) (*signer.KeyPair, error) {
	if len(raw) != scalarLen {
		return nil, fmt.Errorf("keystore: decoded private scalar has length %d, want %d", len(raw), scalarLen)
	}
	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	x, y := curve.ScalarBaseMult(raw)

	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}
	return &signer.KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}
