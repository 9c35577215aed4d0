package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	confirmationTokenBytes = 32
	bookingIDBytes         = 4
	BookingIDPrefix        = "BKG_"
)

// GenerateConfirmationToken returns a URL-safe token carrying 256 bits of entropy.
func GenerateConfirmationToken() (string, error) {
	randomBytes := make([]byte, confirmationTokenBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// GenerateBookingID returns an id such as BKG_3F9A01C2. The id is legible, not secret.
func GenerateBookingID() (string, error) {
	randomBytes := make([]byte, bookingIDBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return BookingIDPrefix + strings.ToUpper(hex.EncodeToString(randomBytes)), nil
}

// GenerateUniqueBookingID retries until taken reports the id as free.
func GenerateUniqueBookingID(taken func(string) bool) (string, error) {
	const maxAttempts = 10
	for i := 0; i < maxAttempts; i++ {
		id, err := GenerateBookingID()
		if err != nil {
			return "", err
		}
		if !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique booking id after %d attempts", maxAttempts)
}
