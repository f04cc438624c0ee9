package jwtx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the project's public verification keys in memory.
// It's swapped wholesale by the JWKS refresher while requests verify against it.
type KeySet struct {
	mu        sync.RWMutex
	jks       JWKS
	pub       map[string]any // kid: *rsa.PublicKey | *ecdsa.PublicKey
	refreshed time.Time
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// Snapshot returns the current JWKS.
func (k *KeySet) Snapshot() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.jks
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// RefreshedAt is when ResetFromJWKS last succeeded.
func (k *KeySet) RefreshedAt() time.Time {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.refreshed
}

// ResetFromJWKS replaces all keys. Keys with unsupported types are skipped;
// the call fails only when none of the published keys are usable.
func (k *KeySet) ResetFromJWKS(jwks JWKS) (skipped int, err error) {
	next := make(map[string]any, len(jwks.Keys))
	kept := JWKS{Keys: make([]JWK, 0, len(jwks.Keys))}
	for _, j := range jwks.Keys {
		key, perr := parseJWK(j)
		if perr != nil {
			skipped++
			continue
		}
		next[j.Kid] = key
		kept.Keys = append(kept.Keys, j)
	}
	if len(next) == 0 && len(jwks.Keys) > 0 {
		return skipped, errors.New("jwtx: no usable keys in JWKS")
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	k.jks = kept
	k.refreshed = time.Now().UTC()
	return skipped, nil
}

func parseJWK(j JWK) (any, error) {
	switch j.Kty {
	case "RSA":
		nb, err := base64.RawURLEncoding.DecodeString(j.N)
		if err != nil {
			return nil, fmt.Errorf("jwtx: rsa modulus: %w", err)
		}
		eb, err := base64.RawURLEncoding.DecodeString(j.E)
		if err != nil {
			return nil, fmt.Errorf("jwtx: rsa exponent: %w", err)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(new(big.Int).SetBytes(eb).Int64()),
		}, nil

	case "EC":
		if j.Crv != "P-256" {
			return nil, errors.New("jwtx: unsupported EC curve " + j.Crv)
		}
		xb, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, err
		}
		yb, err := base64.RawURLEncoding.DecodeString(j.Y)
		if err != nil {
			return nil, err
		}
		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(xb),
			Y:     new(big.Int).SetBytes(yb),
		}, nil

	default:
		return nil, errors.New("jwtx: unsupported kty " + j.Kty)
	}
}
