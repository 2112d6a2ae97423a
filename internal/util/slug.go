// Package util provides URL slug generation and validation.
package util

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// MaxSlugLength bounds generated slugs to fit the indexed column.
const MaxSlugLength = 200

// Slugify converts a string to a URL-friendly slug. Non-Latin text is
// transliterated to ASCII first, so "Привет мир" becomes "privet-mir".
func Slugify(s string) string {
	result := unidecode.Unidecode(s)
	result = strings.ToLower(result)

	result = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '.', '/', '\t', '\n':
			return '-'
		}
		return r
	}, result)

	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxSlugLength {
		result = strings.TrimRight(result[:MaxSlugLength], "-")
	}
	return result
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength {
		return false
	}

	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	return !strings.Contains(s, "--")
}
