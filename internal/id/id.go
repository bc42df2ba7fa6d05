package id

import (
	"strings"

	"github.com/google/uuid"
)

// UUID generates a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Correlation generates an id attached to surfaced errors so a client-visible
// failure can be found in the logs.
func Correlation() string {
	return uuid.NewString()
}

// Valid reports whether s is a canonical UUID.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Normalize returns the lower-case canonical form of a UUID, or s unchanged
// when it is not a UUID.
func Normalize(s string) string {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return u.String()
}
