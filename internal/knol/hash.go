// Package knol computes content hashes used to recognise cards that were
// already imported.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize joins a card's front and back after cleaning each part: line
// endings become "\n", surrounding whitespace is trimmed, and text is
// lowercased.
func Normalize(front, back string) string {
	normalizePart := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return strings.ToLower(p)
	}
	// The newline keeps "ab"+"c" distinct from "a"+"bc".
	return normalizePart(front) + "\n" + normalizePart(back)
}

// Hash returns the SHA-256 of the normalised content as a hex string.
func Hash(front, back string) string {
	sum := sha256.Sum256([]byte(Normalize(front, back)))
	return fmt.Sprintf("%x", sum)
}

// Set is a collection of content hashes.
type Set map[string]struct{}

// Add records the hash of front and back and reports whether it was new.
func (s Set) Add(front, back string) bool {
	h := Hash(front, back)
	if _, ok := s[h]; ok {
		return false
	}
	s[h] = struct{}{}
	return true
}
