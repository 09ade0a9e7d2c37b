package security

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "user-management-service/pkg/errors"
)

const (
	// MaxSearchTermLength defines the maximum allowed length, in characters, for search values
	MaxSearchTermLength = 100
)

// ValidateSearchTerm checks a value supplied to an exact-match search. The value
// is bound as a query parameter, so quotes and SQL keywords are plain data; only
// oversized input and control characters are refused.
func ValidateSearchTerm(param, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", apperrors.NewValidationError(param, fmt.Sprintf("query parameter '%s' is required", param))
	}

	if utf8.RuneCountInString(term) > MaxSearchTermLength {
		return "", apperrors.NewValidationError(param, "search value too long")
	}

	if !utf8.ValidString(term) {
		return "", apperrors.NewValidationError(param, "search value contains invalid characters")
	}
	for _, r := range term {
		if unicode.IsControl(r) {
			return "", apperrors.NewValidationError(param, "search value contains invalid characters")
		}
	}

	return term, nil
}
