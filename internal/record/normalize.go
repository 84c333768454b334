package record

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NormalizeColumn canonicalises a column header: stray byte-order marks are
// removed, surrounding space trimmed and the name lowercased.
func NormalizeColumn(name string) string {
	name = strings.ReplaceAll(name, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeEmail returns the comparison form of an email address.
func NormalizeEmail(email string) string {
	return fold(email)
}

// NormalizeName returns the comparison form of a person name. Internal runs
// of whitespace collapse to one space so "Ana  Maria" matches "Ana Maria".
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(fold(name)), " ")
}

// fold applies NFC then Unicode case folding. NFC first so that composed and
// decomposed accents compare equal.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return folder.String(norm.NFC.String(s))
}
