package utils

import (
	"regexp"
)

// Share codes use a human-friendly alphabet: no 0/O/o, 1/I/l or i, so codes
// survive being read aloud or retyped from a screenshot.
var shareCodeRe = regexp.MustCompile(`^[A-HJ-NP-Za-hj-kmnp-z2-9]{8}$`)

func ValidateShareCode(code string) bool {
	return shareCodeRe.MatchString(code)
}
