package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id defaults handed to new registrations. Clients derive the same
// verifier locally, so these parameters are stored per user and never change
// after registration.
const (
	DefaultArgonMem      = 64 * 1024
	DefaultArgonTime     = 3
	DefaultArgonParallel = 1

	verifierLen = 32
)

// ComputeVerifier derives the base64-encoded argon2id verifier for a password
// with the user's stored KDF parameters and base64 salt.
func ComputeVerifier(password, saltB64 string, argonTime, argonMem, argonParallel int) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt,
		uint32(argonTime), uint32(argonMem), uint8(argonParallel), verifierLen)

	return base64.StdEncoding.EncodeToString(digest), nil
}

// CheckVerifier compares a stored verifier against a candidate in constant
// time.
func CheckVerifier(verifier, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(verifier), []byte(candidate)) == 1
}
