package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxPathLength = 4096

// ValidateOutputPath validates a path that artifacts will be written to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Must name a file, not end in a separator
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return New(ErrCodeInvalidPath, "output path must name a file: %q", path)
	}

	return nil
}

// exportPrefixRegex matches prefixes that stay a single, portable file name.
var exportPrefixRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateExportPrefix validates the prefix of generated export file names.
// An empty prefix is allowed and means the default.
func ValidateExportPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if len(prefix) > 128 {
		return New(ErrCodeInvalidInput, "export prefix too long (max 128 characters)")
	}
	if strings.Contains(prefix, "..") || !exportPrefixRegex.MatchString(prefix) {
		return New(ErrCodeInvalidInput, "invalid export prefix: %q", prefix)
	}
	return nil
}

// ValidateRedisURL validates a cache backend URL for safety.
// It ensures the URL uses a redis scheme.
func ValidateRedisURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "redis URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") && !strings.HasPrefix(rawURL, "unix://") {
		return New(ErrCodeInvalidInput, "redis URL must use redis, rediss or unix scheme")
	}

	return nil
}
