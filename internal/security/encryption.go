// Package security seals sensitive payloads with the server's symmetric key
// before they leave the process or reach storage.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	ErrEmptyKey      = errors.New("encryption key cannot be empty")
	ErrInvalidSealed = errors.New("sealed payload is malformed or was tampered with")
)

// Encrypter seals and opens JSON payloads with NaCl secretbox
type Encrypter struct {
	key [32]byte
}

// NewEncrypter derives a 32 byte secretbox key from arbitrary key material
func NewEncrypter(keyMaterial string) (*Encrypter, error) {
	if keyMaterial == "" {
		return nil, ErrEmptyKey
	}
	return &Encrypter{key: sha256.Sum256([]byte(keyMaterial))}, nil
}

// GenerateKey returns random key material suitable for NewEncrypter
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// EncryptJSON marshals v and returns the sealed payload as URL-safe base64
func (e *Encrypter) EncryptJSON(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], plain, &nonce, &e.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptJSON opens a payload produced by EncryptJSON into v
func (e *Encrypter) DecryptJSON(sealed string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return ErrInvalidSealed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &e.key)
	if !ok {
		return ErrInvalidSealed
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
