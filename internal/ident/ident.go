package ident

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// FallbackSetID is used when a set name contains nothing slug-worthy.
const FallbackSetID domain.SetID = "custom-set"

// NewCardID returns a fresh random card identifier.
func NewCardID() domain.CardID {
	return domain.CardID(uuid.NewString())
}

// Fold strips accents and lowercases s, so "Café" and "cafe" fold alike.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Slugify derives a set id from a user-supplied name. Every run of
// characters outside [a-z0-9] becomes a single '-', and separators at either
// end are dropped. Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) domain.SetID {
	var b strings.Builder
	pendingSep := false
	for _, r := range Fold(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return FallbackSetID
	}
	return domain.SetID(b.String())
}
