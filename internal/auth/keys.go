package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateKeyPair generates an RSA key pair with the specified bit size
func GenerateKeyPair(bitSize int) (*rsa.PrivateKey, error) {
	if bitSize < 2048 {
		return nil, errors.New("bit size must be at least 2048")
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, bitSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return privateKey, nil
}

// EncodePrivateKeyPEM serializes a private key as PKCS1 PEM
func EncodePrivateKeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

// EncodePublicKeyPEM serializes a public key as PKIX PEM
func EncodePublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// LoadPrivateKey reads a private key from inline PEM or, if empty, from path
func LoadPrivateKey(inline, path string) (*rsa.PrivateKey, error) {
	data, err := keyBytes(inline, path)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKeyPEM(data)
}

// LoadPublicKey reads a public key from inline PEM or, if empty, from path
func LoadPublicKey(inline, path string) (*rsa.PublicKey, error) {
	data, err := keyBytes(inline, path)
	if err != nil {
		return nil, err
	}
	return ParsePublicKeyPEM(data)
}

func keyBytes(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, errors.New("no key material configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return data, nil
}

// ParsePrivateKeyPEM parses an RSA private key in PKCS1 or PKCS8 form
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// ParsePublicKeyPEM parses an RSA public key in PKIX or PKCS1 form, or the
// key of a certificate
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// KeyID derives a stable "kid" header value from the public key
func KeyID(key *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}
