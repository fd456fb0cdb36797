package errors

import (
	"strings"
	"unicode"
)

// Length limits for query parameters accepted from callers.
const (
	MaxParameterLength = 100
	MaxKeywordLength   = 300
)

// ValidateParameter validates a caller-supplied string parameter.
//
// Empty values are accepted: the caller decides whether a default applies.
// Non-empty values are rejected when they:
//   - exceed maxLen bytes
//   - contain control characters or null bytes
//
// The returned error carries ErrCodeInvalidInput and names the parameter.
func ValidateParameter(name, value string, maxLen int) error {
	if value == "" {
		return nil
	}
	if len(value) > maxLen {
		return New(ErrCodeInvalidInput, "%s is too long (max %d characters)", name, maxLen)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", name)
		}
	}
	return nil
}

// ValidateSourceName validates a source name used as part of cache keys.
// Unlike ValidateParameter it rejects empty names and path traversal.
func ValidateSourceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "sourceName cannot be empty")
	}
	if err := ValidateParameter("sourceName", name, MaxParameterLength); err != nil {
		return err
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "sourceName contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
