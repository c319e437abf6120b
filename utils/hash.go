package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPhone derives the rate-limit counter key for a phone number so the
// store never holds raw numbers at rest. Unsalted on purpose: every
// stateless instance must derive the same key from the input alone.
func HashPhone(phone string) string {
	sum := sha256.Sum256([]byte(phone))

	return hex.EncodeToString(sum[:])
}
