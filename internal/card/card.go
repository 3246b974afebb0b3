// Package card holds the PAN helpers used by the payment pipeline.
package card

import (
	"regexp"
	"strings"
)

// Visa, Mastercard, Discover-like (4, 5, 6) and Amex-like (37) prefixes, 13 to 16 digits.
var panPattern = regexp.MustCompile(`^(?:[456][0-9]{12,15}|37[0-9]{11,14})$`)

// IsValidLuhn reports whether pan has an accepted prefix and length and passes the Luhn checksum.
func IsValidLuhn(pan string) bool {
	if !panPattern.MatchString(pan) {
		return false
	}

	sum := 0
	for i, pos := len(pan)-1, 1; i >= 0; i, pos = i-1, pos+1 {
		d := int(pan[i] - '0')
		if pos%2 == 0 {
			if d < 5 {
				d *= 2
			} else {
				d = d*2 - 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// BIN returns the first six characters. pan must be at least six long.
func BIN(pan string) string {
	return pan[:6]
}

func LastDigit(pan string) byte {
	return pan[len(pan)-1]
}

func IsEvenSumOfDigits(s string) bool {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += int(s[i] - '0')
	}
	return sum%2 == 0
}

// Mask keeps the BIN and the last four digits.
func Mask(pan string) string {
	n := len(pan)
	if n <= 10 {
		return strings.Repeat("*", n)
	}
	return pan[:6] + strings.Repeat("*", n-10) + pan[n-4:]
}
