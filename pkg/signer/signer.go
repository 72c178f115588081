// Package signer implements component H: the ECDSA P-256 signing
// protocol that turns an approved lock grant into a tamper-evident
// attestation. Each worker owns its own signing context; a bare
// *ecdsa.PublicKey plus Verify is enough for anyone downstream to check
// an attestation without a context of their own.
package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shangsuru/verifiable-lockmanager/pkg/types"
)

// curveByteLen is the byte width of a P-256 scalar; each signature half
// (r, s) is exactly this many bytes before base64 encoding.
const curveByteLen = 32

// KeyPair is the process-wide ECDSA P-256 signing key: private for the
// per-worker signing contexts, public for anyone verifying.
type KeyPair struct {
	Private *ecdsa.PrivateKey
	Public  *ecdsa.PublicKey
}

// Generate produces a fresh P-256 key pair.
func Generate() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// ExportPublicKey returns the public key as base64(X||Y), suffixed with
// its own decimal character length so a verifier reading a concatenated
// blob can find the key boundary — ExportPublicKey(k) always has the
// form "<base64>.<len>".
func ExportPublicKey(pub *ecdsa.PublicKey) string {
	raw := elliptic.Marshal(elliptic.P256(), pub.X, pub.Y)
	enc := base64.StdEncoding.EncodeToString(raw)
	return fmt.Sprintf("%s.%d", enc, len(enc))
}

// ParsePublicKey reverses ExportPublicKey.
func ParsePublicKey(s string) (*ecdsa.PublicKey, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 {
		return nil, types.NewError(types.ErrKeyMaterialError, "malformed public key export %q", s)
	}
	enc, lenSuffix := s[:dot], s[dot+1:]
	n, err := strconv.Atoi(lenSuffix)
	if err != nil || n != len(enc) {
		return nil, types.NewError(types.ErrKeyMaterialError, "public key length suffix mismatch in %q", s)
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, types.NewError(types.ErrKeyMaterialError, "public key is not valid base64: %v", err)
	}
	x, y := elliptic.Unmarshal(elliptic.P256(), raw)
	if x == nil {
		return nil, types.NewError(types.ErrKeyMaterialError, "public key bytes do not decode to a P-256 point")
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}

// BlockTimeoutFunc sources the monotonically-growing block_timeout
// scalar an attestation is stamped with. Its generation is out of
// scope — this is a pluggable callback, defaulting to ZeroTimeout.
type BlockTimeoutFunc func() uint64

// ZeroTimeout is the default BlockTimeoutFunc.
func ZeroTimeout() uint64 { return 0 }

// WorkerContext is one worker's private signing context — never
// shared, per the shard-ownership discipline.
type WorkerContext struct {
	workerID int
	priv     *ecdsa.PrivateKey
	timeout  BlockTimeoutFunc
}

// NewWorkerContext opens a signing context bound to a single worker.
func NewWorkerContext(workerID int, priv *ecdsa.PrivateKey, timeout BlockTimeoutFunc) *WorkerContext {
	if timeout == nil {
		timeout = ZeroTimeout
	}
	return &WorkerContext{workerID: workerID, priv: priv, timeout: timeout}
}

// Sign produces the attestation for an approved grant of rid to tid
// under mode. The signed plaintext is "<tid>_<rid>_<mode>_<timeout>";
// the wire signature is base64url(r) + "-" + base64url(s), 89 characters.
func (w *WorkerContext) Sign(tid, rid uint32, mode types.LockMode) (string, error) {
	plaintext := attestationPlaintext(tid, rid, mode, w.timeout())
	digest := sha256.Sum256([]byte(plaintext))

	r, s, err := ecdsa.Sign(rand.Reader, w.priv, digest[:])
	if err != nil {
		return "", types.NewError(types.ErrKeyMaterialError, "sign attestation: %v", err)
	}
	return encodeSignature(r, s), nil
}

// Verify reconstructs the plaintext for (tid, rid, mode, blockTimeout),
// decodes signature's two base64 halves into (r, s), and checks the
// ECDSA signature against pub.
func Verify(pub *ecdsa.PublicKey, signature string, tid, rid uint32, mode types.LockMode, blockTimeout uint64) error {
	r, s, err := decodeSignature(signature)
	if err != nil {
		return err
	}
	plaintext := attestationPlaintext(tid, rid, mode, blockTimeout)
	digest := sha256.Sum256([]byte(plaintext))
	if !ecdsa.Verify(pub, digest[:], r, s) {
		return types.NewError(types.ErrSignatureInvalid, "signature does not verify for tid=%d rid=%d", tid, rid)
	}
	return nil
}

func attestationPlaintext(tid, rid uint32, mode types.LockMode, blockTimeout uint64) string {
	return fmt.Sprintf("%d_%d_%s_%d", tid, rid, mode, blockTimeout)
}

func encodeSignature(r, s *big.Int) string {
	return fmt.Sprintf("%s-%s", encodeScalar(r), encodeScalar(s))
}

func encodeScalar(v *big.Int) string {
	buf := make([]byte, curveByteLen)
	v.FillBytes(buf)
	return base64.URLEncoding.EncodeToString(buf)
}

func decodeSignature(sig string) (*big.Int, *big.Int, error) {
	parts := strings.SplitN(sig, "-", 2)
	if len(parts) != 2 {
		return nil, nil, types.NewError(types.ErrSignatureInvalid, "malformed signature %q", sig)
	}
	rBytes, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, types.NewError(types.ErrSignatureInvalid, "signature r half is not valid base64: %v", err)
	}
	sBytes, err := base64.URLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, types.NewError(types.ErrSignatureInvalid, "signature s half is not valid base64: %v", err)
	}
	return new(big.Int).SetBytes(rBytes), new(big.Int).SetBytes(sBytes), nil
}
