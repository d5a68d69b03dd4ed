package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateID accepts uuids and slug-style ids (max 64 chars).
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
