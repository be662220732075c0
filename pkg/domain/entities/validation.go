package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxNameLength = 255

var codePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

func normalizeName(kind, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s name cannot be empty", ErrInvalidName, kind)
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", fmt.Errorf("%w: %s name cannot exceed %d characters", ErrInvalidName, kind, maxNameLength)
	}
	return trimmed, nil
}

// normalizeCode validates SKUs and raw material codes and returns the stored,
// upper-cased form.
func normalizeCode(sentinel error, field, code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", sentinel, field)
	}
	if !codePattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %s %q can only contain letters, numbers, and hyphens", sentinel, field, code)
	}
	return strings.ToUpper(trimmed), nil
}

// NormalizeSKU returns the stored form of a product SKU
func NormalizeSKU(sku string) (string, error) {
	return normalizeCode(ErrInvalidSKU, "product sku", sku)
}

// NormalizeCode returns the stored form of a raw material code
func NormalizeCode(code string) (string, error) {
	return normalizeCode(ErrInvalidCode, "raw material code", code)
}

func requireNonNegative(sentinel error, field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative, got %s", sentinel, field, value)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
