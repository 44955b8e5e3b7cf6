// Package deck identifies imported card content so repeated imports of the
// same deck never duplicate cards.
package deck

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ogunacik/kartbox/internal/parser"
)

// Normalize concatenates the entry's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each
// field before joining them, so cosmetic edits to a deck file do not change
// a card's identity.
func Normalize(e parser.Entry) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	// Joined with newlines so adjacent fields cannot run together and
	// collide, e.g. "ab"+"c" vs "a"+"bc".
	return strings.Join([]string{
		normalizePart(e.Front),
		normalizePart(e.Back),
		normalizePart(e.Tag),
	}, "\n")
}

// Hash normalizes an entry and returns its SHA-256 hash as a hex string.
func Hash(e parser.Entry) string {
	normalized := Normalize(e)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
