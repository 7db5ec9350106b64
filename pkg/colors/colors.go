package colors

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
)

// RandomKeyword asks builders to pick a color on the caller's behalf.
const RandomKeyword = "random"

var hexColor = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// Random returns a color drawn uniformly from the 24-bit range as "#rrggbb".
func Random() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("colors: reading random bytes: %v", err))
	}
	return fmt.Sprintf("#%06x", binary.BigEndian.Uint32(b[:])&0xFFFFFF)
}

// Valid reports whether s is a 3 or 6 digit hex color with a leading '#'.
func Valid(s string) bool {
	return hexColor.MatchString(s)
}

// Resolve returns a random color for "" or "random" and validates anything else.
func Resolve(s string) (string, error) {
	if s == "" || s == RandomKeyword {
		return Random(), nil
	}
	if !Valid(s) {
		return "", fmt.Errorf("invalid hex color %q", s)
	}
	return s, nil
}
