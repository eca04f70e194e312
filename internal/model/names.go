package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reserved pin names.
const (
	PinLatest  = "LATEST"
	PinCurrent = "CURRENT"
)

// NormalizeName upper-cases a pin name, keyword or metadata key.
// A Caser keeps state, so each call builds its own.
func NormalizeName(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// ValidatePinName normalizes and validates a pin name. Reserved names are
// valid here; callers decide which operations accept them.
func ValidatePinName(name string) (string, error) {
	n := NormalizeName(name)
	if n == "" || strings.HasPrefix(n, ".") || strings.ContainsAny(n, "/\\ \t\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPinName, name)
	}
	if IsVersionDirName(strings.ToLower(n)) || strings.Trim(n, "0123456789") == "" {
		return "", fmt.Errorf("%w: %q looks like a version", ErrInvalidPinName, name)
	}
	return n, nil
}

// NormalizeKeyword normalizes and validates a keyword.
func NormalizeKeyword(kw string) (string, error) {
	n := NormalizeName(kw)
	if n == "" || strings.ContainsAny(n, "\r\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKeyword, kw)
	}
	return n, nil
}

// NormalizeMetadataKey normalizes and validates a metadata key.
func NormalizeMetadataKey(key string) (string, error) {
	n := NormalizeName(key)
	if n == "" || strings.ContainsAny(n, "=\r\n") {
		return "", fmt.Errorf("%w: bad key %q", ErrInvalidMetadata, key)
	}
	return n, nil
}

// ValidateMetadataValue rejects values the sidecar format cannot hold.
func ValidateMetadataValue(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: value %q contains a newline", ErrInvalidMetadata, value)
	}
	return nil
}
