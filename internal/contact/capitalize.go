package contact

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capitalize upper-cases the first letter of each word of s, leaving the
// rest untouched: "work" becomes "Work", "iPhone" becomes "IPhone".
func Capitalize(s string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Title(language.Und, cases.NoLower).String(s)
}
