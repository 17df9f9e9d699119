// Package availability maps the catalog's human-readable stock status onto
// stable numeric codes.
package availability

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Code is a stock-availability status. The numeric values are persisted and
// must never change.
type Code int

const (
	Unknown               Code = -1
	Available             Code = 1
	TemporarilyOutOfStock Code = 2
	SoldOut               Code = 3
	Backorder             Code = 4
)

var (
	// ErrUnrecognizedStatus is returned when status text matches no known code.
	ErrUnrecognizedStatus = errors.New("unrecognized availability status")
	// ErrUnknownCode is returned for a numeric code outside the table.
	ErrUnknownCode = errors.New("unknown availability code")
)

// Display strings as rendered by the catalog.
var texts = map[Code]string{
	Available:             "Jetzt verfügbar",
	TemporarilyOutOfStock: "Vorübergehend nicht auf Lager",
	SoldOut:               "Ausverkauft",
	Backorder:             "Nachbestellungen möglich",
	Unknown:               "Unknown",
}

var byText = func() map[string]Code {
	m := make(map[string]Code, len(texts))
	for code, text := range texts {
		m[norm.NFC.String(text)] = code
	}
	return m
}()

// Codes returns every code in the table in ascending order, Unknown first.
func Codes() []Code {
	return []Code{Unknown, Available, TemporarilyOutOfStock, SoldOut, Backorder}
}

// CodeFromText maps status text to a code. Text is trimmed and NFC-normalized
// before lookup. When there is no exact match, text containing the backorder
// phrase still maps to Backorder because the catalog appends delivery hints
// to it.
func CodeFromText(text string) (Code, error) {
	normalized := norm.NFC.String(strings.TrimSpace(text))

	if code, ok := byText[normalized]; ok {
		return code, nil
	}
	if strings.Contains(normalized, texts[Backorder]) {
		return Backorder, nil
	}

	return Unknown, fmt.Errorf("%w: %q", ErrUnrecognizedStatus, text)
}

// TextFromCode returns the display string for code.
func TextFromCode(code Code) (string, error) {
	text, ok := texts[code]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownCode, int(code))
	}
	return text, nil
}

// String returns the display string, or the bare number for codes outside
// the table.
func (c Code) String() string {
	if text, ok := texts[c]; ok {
		return text
	}
	return fmt.Sprintf("Code(%d)", int(c))
}
