package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// User identifies a participant. Users are created lazily the first time a
// username is referenced (bet creation, quote update, trade) and are never
// deleted by core logic.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Canonicalize normalizes a username to its canonical form: first letter
// upper-cased, the rest lower-cased. Every operation that accepts a username
// must pass it through here so differently-cased references resolve to the
// same user.
func Canonicalize(username string) string {
	name := strings.TrimSpace(username)
	if name == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}
