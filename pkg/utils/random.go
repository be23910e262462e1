package utils

import (
	"github.com/google/uuid"
)

// GenerateSessionToken returns a random v4 UUID used as an opaque session token.
func GenerateSessionToken() string {
	return uuid.NewString()
}
