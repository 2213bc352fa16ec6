package id

import (
	"strings"

	"github.com/google/uuid"
)

func GetUUID() string {
	return uuid.NewString()
}

func GetUUIDWithoutDashes() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PrefixedHex returns prefix followed by n hex characters of a random uuid.
// n is capped at 32.
func PrefixedHex(prefix string, n int) string {
	hex := GetUUIDWithoutDashes()
	if n > len(hex) {
		n = len(hex)
	}
	return prefix + hex[:n]
}
