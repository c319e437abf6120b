package utils

import (
	"regexp"
	"strings"
)

var (
	e164Re     = regexp.MustCompile(`^\+\d{10,15}$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// NormalizePhone turns free-form input into E.164, or reports failure.
// A leading + keeps all digits as-is; bare 10 digits are assumed US (+1);
// anything else just gets a + prefixed. The result must still pass the
// E.164 length check.
func NormalizePhone(raw string) (string, bool) {
	hasPlus := strings.HasPrefix(strings.TrimLeft(raw, " \t\r\n"), "+")
	digits := nonDigitRe.ReplaceAllString(raw, "")

	if digits == "" {
		return "", false
	}

	var normalized string
	switch {
	case hasPlus:
		normalized = "+" + digits
	case len(digits) == 10:
		normalized = "+1" + digits
	default:
		normalized = "+" + digits
	}

	if !e164Re.MatchString(normalized) {
		return "", false
	}

	return normalized, true
}

// PhoneLast4 returns the trailing four digits of a normalized phone,
// used by the backend to render the masked number.
func PhoneLast4(normalized string) string {
	if len(normalized) < 4 {
		return normalized
	}
	return normalized[len(normalized)-4:]
}
