package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

const (
	PickupCodeLength = 6
	// no 0/O or 1/I, the code is read aloud and typed at the counter
	pickupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GeneratePickupCode returns a random uppercase alphanumeric code.
func GeneratePickupCode() (string, error) {
	buf := make([]byte, PickupCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	code := make([]byte, PickupCodeLength)
	for i, b := range buf {
		code[i] = pickupCodeAlphabet[int(b)%len(pickupCodeAlphabet)]
	}
	return string(code), nil
}

// PickupCodeMatches compares a presented code with the stored one exactly.
func PickupCodeMatches(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
