// Package security hardens user-supplied free-text input before it
// reaches a database query.
package security

import (
	"errors"
	"strings"
	"unicode"
)

// MaxSearchTermLength defines the maximum allowed length for search terms.
const MaxSearchTermLength = 100

// ValidateSearchTerm validates a search term typed into the user list.
// Terms are only matched via parameterized LIKE queries, so this is about
// keeping garbage (control characters, absurd lengths) out of queries and
// logs rather than about injection.
func ValidateSearchTerm(term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", nil
	}

	if len(term) > MaxSearchTermLength {
		return "", errors.New("search term too long")
	}

	for _, char := range term {
		if unicode.IsControl(char) {
			return "", errors.New("search term contains invalid characters")
		}
	}

	return term, nil
}

// EscapeLikePattern escapes LIKE wildcards so a term matches literally.
func EscapeLikePattern(term string) string {
	if term == "" {
		return ""
	}

	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, "%", `\%`)
	term = strings.ReplaceAll(term, "_", `\_`)

	return term
}
