package pagination

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldText collapses whitespace, NFC-normalizes and case-folds s so that
// keyword matching behaves the same across scripts and input encodings.
func foldText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}
