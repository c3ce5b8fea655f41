package util

import (
	"crypto/sha256"
	"encoding/hex"
)

const userKeyLength = 12

// UserKey returns a short, stable, non-reversible key for a user ID. It
// stands in for the raw identity in file names.
func UserKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])[:userKeyLength]
}
