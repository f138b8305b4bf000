package todo

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText rejects creating an item whose text is empty or
// whitespace-only. It is a validation error: rendered inline at the form
// that produced it, never propagated further.
var ErrEmptyText = errors.New("item text is empty")

// ErrNoSession rejects a mutation attempted without an active principal.
var ErrNoSession = errors.New("no active session")

// CleanText prepares user-entered item text for storage: surrounding
// whitespace is trimmed and the result NFC-normalized, so the same visible
// string from different keyboards stores identically. Returns ErrEmptyText
// if nothing remains.
func CleanText(s string) (string, error) {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return "", ErrEmptyText
	}
	return s, nil
}
