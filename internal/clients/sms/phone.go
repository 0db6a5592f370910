package sms

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// CanonicalPhone normalizes a stored phone number to E.164. Numbers without a
// country code are assumed to be North American (+1). Formatting characters
// (spaces, dashes, dots, parentheses) are stripped.
func CanonicalPhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidPhoneNumber
	}

	hasPlus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
			continue
		}
		switch r {
		case '+', ' ', '-', '.', '(', ')':
			continue
		default:
			return "", ErrInvalidPhoneNumber
		}
	}

	number := digits.String()
	switch {
	case hasPlus:
		// Already carries a country code. E.164 allows up to 15 digits.
		if len(number) < 8 || len(number) > 15 {
			return "", ErrInvalidPhoneNumber
		}
		return "+" + number, nil
	case len(number) == 10:
		return "+1" + number, nil
	case len(number) == 11 && number[0] == '1':
		return "+" + number, nil
	default:
		return "", ErrInvalidPhoneNumber
	}
}
