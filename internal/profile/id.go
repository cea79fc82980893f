package profile

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// DeriveID turns a display name into a stable id: lowercase, runs of
// non-alphanumerics collapsed to single dashes. Falls back to a random
// id when the name has no usable characters (e.g. all punctuation).
func DeriveID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	id := strings.Trim(b.String(), "-")
	if id == "" {
		return RandomID()
	}
	return id
}

// RandomID returns a short random identifier.
func RandomID() string {
	return uuid.NewString()[:8]
}
