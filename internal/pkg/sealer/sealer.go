// Package sealer encrypts credentials before they leave the process.
package sealer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

const hkdfInfo = "inventory-web credential v1"

// ErrOpen is returned for ciphertexts that fail authentication.
var ErrOpen = errors.New("sealer: cannot open credential")

// Sealer seals credentials with XChaCha20-Poly1305 under a key derived from
// a secret. The session id is bound as additional data so a sealed value
// cannot be replayed under another session.
type Sealer struct {
	key []byte
}

// New derives the sealing key from secret.
func New(secret string) (*Sealer, error) {
	if len(secret) < 16 {
		return nil, errors.New("sealer: secret must be at least 16 bytes")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("sealer: derive key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts cred for sessionID. The nonce is prepended to the output.
func (s *Sealer) Seal(sessionID string, cred domain.Credential) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	plain, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("sealer: encode: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("sealer: nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plain, []byte(sessionID)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sessionID string, sealed []byte) (domain.Credential, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return domain.Credential{}, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return domain.Credential{}, ErrOpen
	}
	nonce, box := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, []byte(sessionID))
	if err != nil {
		return domain.Credential{}, ErrOpen
	}
	var cred domain.Credential
	if err := json.Unmarshal(plain, &cred); err != nil {
		return domain.Credential{}, fmt.Errorf("sealer: decode: %w", err)
	}
	return cred, nil
}
