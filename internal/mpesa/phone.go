package mpesa

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number format")

// NormalizePhone converts a payer phone number to the canonical
// 254XXXXXXXXX form the gateway requires: a leading 0 is replaced with the
// country code, a leading +254 loses the plus, and a bare 254 prefix passes
// through. Anything else is rejected, as is any result that is not exactly
// 12 characters.
func NormalizePhone(input string) (string, error) {
	p := strings.TrimSpace(input)

	switch {
	case strings.HasPrefix(p, "0"):
		p = "254" + p[1:]
	case strings.HasPrefix(p, "+254"):
		p = p[1:]
	case strings.HasPrefix(p, "254"):
		// already canonical
	default:
		return "", ErrInvalidPhone
	}

	if len(p) != 12 {
		return "", fmt.Errorf("%w: must be 12 digits in the form 2547XXXXXXXX", ErrInvalidPhone)
	}

	return p, nil
}
