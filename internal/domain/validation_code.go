package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
)

const (
	// ValidationCodeLength length of the completion code handed to the client
	ValidationCodeLength = 6

	validationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateValidationCode returns a random uppercase alphanumeric code
func GenerateValidationCode() (string, error) {
	alphabetLen := big.NewInt(int64(len(validationCodeAlphabet)))

	var sb strings.Builder
	sb.Grow(ValidationCodeLength)
	for i := 0; i < ValidationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("generate validation code: %w", err)
		}
		sb.WriteByte(validationCodeAlphabet[n.Int64()])
	}

	return sb.String(), nil
}

// MatchValidationCode compares codes case-insensitively in constant time
func MatchValidationCode(stored, supplied string) bool {
	supplied = strings.TrimSpace(supplied)
	if supplied == "" || len(supplied) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.ToUpper(stored)), []byte(strings.ToUpper(supplied))) == 1
}
