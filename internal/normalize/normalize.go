// Package normalize turns raw catalog text into the typed values stored for a
// product.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidIdentifier is returned when a product identifier is not a
// non-negative decimal integer.
var ErrInvalidIdentifier = errors.New("invalid product identifier")

const (
	nbsp           = "\u00a0"
	currencySymbol = "€"
	minorDigits    = 2
)

// ParsePrice converts catalog price text such as "1.299,99 €" to minor
// currency units (129999). The number is read from the text before the first
// non-breaking space. Fraction digits beyond the second are truncated. Any
// text that does not parse yields 0.
func ParsePrice(text string) int64 {
	amount, _, _ := strings.Cut(text, nbsp)
	amount = strings.TrimSpace(strings.ReplaceAll(amount, currencySymbol, ""))
	amount = strings.ReplaceAll(amount, ".", "")
	if amount == "" {
		return 0
	}

	whole, frac, hasFrac := strings.Cut(amount, ",")
	if hasFrac && strings.Contains(frac, ",") {
		return 0
	}
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0
	}

	if len(frac) > minorDigits {
		frac = frac[:minorDigits]
	}
	frac += strings.Repeat("0", minorDigits-len(frac))

	units, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0
	}
	return units
}

// ParseIdentifier parses the catalog's numeric product identifier.
func ParseIdentifier(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !allDigits(trimmed) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, text)
	}

	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidIdentifier, text, err)
	}
	return id, nil
}

// FormatPrice renders minor units with a decimal comma: 1999 -> "19,99".
func FormatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d,%02d", sign, minor/100, minor%100)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
