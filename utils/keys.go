package utils

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	signingKeyLength  = 32
	sessionKeyPurpose = "raceconnect-session-jwt-v1"
)

var ErrEmptySecret = errors.New("secret cannot be empty")

// DeriveSigningKey derives the HMAC-SHA256 key for session tokens from the
// configured secret with HKDF-SHA256.
func DeriveSigningKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(sessionKeyPurpose))
	key := make([]byte, signingKeyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
