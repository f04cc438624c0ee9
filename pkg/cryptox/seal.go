package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrShortSecret = errors.New("cryptox: secret must be at least 32 bytes")
	ErrOpen        = errors.New("cryptox: cannot open sealed value")
)

// Sealer encrypts small values (cookie payloads) with XChaCha20-Poly1305.
// The key is derived from a secret with HKDF-SHA256 and a purpose label,
// so one COOKIE_SECRET can back several independent sealers.
type Sealer struct {
	key     []byte
	purpose []byte
}

// NewSealer derives a key for purpose from secret.
func NewSealer(secret []byte, purpose string) (*Sealer, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte("econest/"+purpose)), key); err != nil {
		return nil, fmt.Errorf("cryptox: derive key: %w", err)
	}
	return &Sealer{key: key, purpose: []byte(purpose)}, nil
}

// Seal returns base64url(nonce || ciphertext). The purpose is bound as associated data.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cryptox: nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, plaintext, s.purpose)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Any tampering, truncation or purpose mismatch yields ErrOpen.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrOpen
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrOpen
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, s.purpose)
	if err != nil {
		return nil, ErrOpen
	}
	return pt, nil
}
