// Package keystore persists the signing key pair across restarts — the
// one piece of state this system keeps durable, per §3. Sealing uses
// AES-256-GCM the same way pkg/security does for warren's secrets;
// storage is a single bbolt bucket, the same embedded-database choice
// warren's pkg/storage makes for everything else.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// Seal encrypts plaintext under key (must be 32 bytes, AES-256) with a
// fresh random nonce and returns a self-delimiting blob: a 4-byte
// big-endian length prefix, the nonce, then the GCM ciphertext. The
// length prefix lets Unseal validate the blob's shape up front instead
// of assuming the whole buffer belongs to one seal call.
func Seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("keystore: generate nonce: %w", err)
	}

	body := gcm.Seal(nonce, nonce, plaintext, nil)

	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(len(body)))
	copy(out[4:], body)
	return out, nil
}

// Unseal reverses Seal. It is the exact inverse: Unseal(key, Seal(key, x)) == x.
func Unseal(key, blob []byte) ([]byte, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("keystore: sealed blob too short")
	}
	n := binary.BigEndian.Uint32(blob[:4])
	body := blob[4:]
	if uint32(len(body)) != n {
		return nil, fmt.Errorf("keystore: sealed blob length prefix %d does not match body length %d", n, len(body))
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(body) < nonceSize {
		return nil, fmt.Errorf("keystore: sealed blob shorter than nonce")
	}
	nonce, ciphertext := body[:nonceSize], body[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: unseal: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("keystore: seal key must be 32 bytes for AES-256, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: create GCM: %w", err)
	}
	return gcm, nil
}
