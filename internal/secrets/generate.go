package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// ridBytes encodes to a 6-character identifier.
	ridBytes = 4
	// tokenBytes encodes to an 11-character secret.
	tokenBytes = 8
	// passwordBytes encodes to a 22-character provisioning password.
	passwordBytes = 16

	RIDLength   = 6
	TokenLength = 11
)

// GenerateRID returns a new public registration identifier.
func GenerateRID() (string, error) {
	return generate(ridBytes)
}

// GenerateToken returns a new applicant or manager secret.
func GenerateToken() (string, error) {
	return generate(tokenBytes)
}

// GeneratePassword returns a new provisioning password for the external account.
func GeneratePassword() (string, error) {
	return generate(passwordBytes)
}

func generate(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
