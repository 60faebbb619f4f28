package dedupe

import (
	"regexp"
	"strings"
)

var (
	reLegalSuffix = regexp.MustCompile(`\b(pvt|ltd|limited|llp|inc|corp|co)\b`)
	reNonAlnum    = regexp.MustCompile(`[^a-z0-9 ]`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// NormalizeCompanyName reduces a company name to its comparable core:
// lowercase, legal suffixes removed as whole words, non-alphanumerics
// stripped, whitespace collapsed. Idempotent.
func NormalizeCompanyName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reLegalSuffix.ReplaceAllString(s, " ")
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
