package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxValueSize bounds a single form value in bytes.
const DefaultMaxValueSize = 1024

var (
	ErrValueTooLarge = errors.New("value exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("value contains invalid UTF-8 sequences")
)

// SanitizeValue cleans a form value before it is stored. Oversized or
// invalid UTF-8 values are rejected; control characters other than newline,
// tab and carriage return are stripped. A limit <= 0 means DefaultMaxValueSize.
func SanitizeValue(value string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxValueSize
	}
	if len(value) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrValueTooLarge, len(value), limit)
	}
	if !utf8.ValidString(value) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(value, unsafeControl) < 0 {
		return value, nil
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
