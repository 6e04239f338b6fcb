// Package service provides token fingerprinting for the policy engine.
package service

import (
	"crypto/sha512"
	"encoding/hex"
)

// FingerprintService hashes bearer tokens into the fingerprints stored in
// policy documents. Tokens are never stored or compared in plaintext.
type FingerprintService interface {
	// Fingerprint returns the SHA-512 hex digest of a plain token.
	Fingerprint(plainToken string) string
}

// fingerprintService implements FingerprintService using SHA-512.
type fingerprintService struct{}

// Fingerprint hashes a plain text token using SHA-512.
// Returns the hash as a 128-character hexadecimal string.
func (f *fingerprintService) Fingerprint(plainToken string) string {
	hash := sha512.Sum512([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// NewFingerprintService creates a new FingerprintService instance.
func NewFingerprintService() FingerprintService {
	return &fingerprintService{}
}
