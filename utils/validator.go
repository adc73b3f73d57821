// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Review comment length bounds. Short comments are rejected as
// insufficiently informative for the audit trail.
const (
	CommentMinLength = 10
	CommentMaxLength = 2000
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// ValidateComment checks a review comment against the length bounds after
// trimming. Bounds are counted in characters, not bytes. It returns an
// empty message when the comment is acceptable.
func ValidateComment(comment string) (string, bool) {
	length := utf8.RuneCountInString(strings.TrimSpace(comment))
	if length < CommentMinLength {
		return "Comment must be at least 10 characters", false
	}
	if length > CommentMaxLength {
		return "Comment must not exceed 2000 characters", false
	}
	return "", true
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}
