package track

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "José" -> "Jose").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName normalizes a display name for comparison (lowercase, no
// diacritics, collapsed whitespace). Used so the same person labeled twice
// with casing or accent variants resolves to one name.
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), " ")
}

// CanonicalName returns the already-assigned spelling matching name under
// normalization, or name itself when no identity carries an equivalent one.
func (b *Bank) CanonicalName(name string) string {
	want := NormalizeName(name)
	if want == "" {
		return name
	}
	for _, ident := range b.identities {
		if ident.Name != "" && NormalizeName(ident.Name) == want {
			return ident.Name
		}
	}
	return name
}
