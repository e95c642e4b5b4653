// Package validation checks user-supplied notation input and file paths
// before they reach the parser, guarding against binary input and resource
// exhaustion.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Security limits to prevent DoS attacks (CWE-400).
const (
	// MaxInputSize is the maximum accepted notation input (4 MB).
	MaxInputSize = 4 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInputTooLarge    = errors.New("input too large")
	ErrNotText          = errors.New("input is not UTF-8 text")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ValidatePath checks a user-supplied file path for length limits and
// invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateText checks that data is notation text: within MaxInputSize,
// valid UTF-8, and free of NUL bytes and stray control characters. Tabs,
// newlines and carriage returns are allowed.
func ValidateText(data []byte) error {
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if bytes.IndexByte(data, 0) != -1 {
		return fmt.Errorf("%w: contains null bytes", ErrNotText)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8", ErrNotText)
	}
	if !isLikelyText(data) {
		return fmt.Errorf("%w: too many control characters", ErrNotText)
	}
	return nil
}

// ReadText reads at most MaxInputSize bytes from r and validates them.
func ReadText(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return "", err
	}
	if err := ValidateText(data); err != nil {
		return "", err
	}
	return string(data), nil
}

// isLikelyText reports whether more than 95% of the ASCII bytes in buf are
// printable. Empty input counts as text; bytes of multi-byte runes are
// neutral.
func isLikelyText(buf []byte) bool {
	printable, control := 0, 0
	for _, b := range buf {
		switch {
		case b >= 0x20 && b <= 0x7e, b == '\t', b == '\n', b == '\r':
			printable++
		case b < 0x20 || b == 0x7f:
			control++
		}
	}
	if control == 0 {
		return true
	}
	return float64(printable)/float64(printable+control) > 0.95
}
