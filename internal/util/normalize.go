package util

import "strings"

// NormalizeName trims a person's name and collapses inner runs of whitespace
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MaskPhone keeps the last two digits of a phone number for log output
func MaskPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) <= 2 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-2) + string(digits[len(digits)-2:])
}
