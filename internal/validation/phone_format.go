package validation

// FormatPhone renders typed text with the +7 (XXX) XXX-XX-XX mask.
// The first digit is treated as the country code and replaced by the fixed
// +7 prefix; anything past 11 digits is dropped.
func FormatPhone(s string) string {
	d := Digits(s)
	n := len(d)

	switch {
	case n == 0:
		return ""
	case n <= 1:
		return "+7 (" + d
	case n <= 4:
		return "+7 (" + d[1:]
	case n <= 7:
		return "+7 (" + d[1:4] + ") " + d[4:]
	case n <= 9:
		return "+7 (" + d[1:4] + ") " + d[4:7] + "-" + d[7:]
	}

	end := n
	if end > PhoneDigits {
		end = PhoneDigits
	}
	return "+7 (" + d[1:4] + ") " + d[4:7] + "-" + d[7:9] + "-" + d[9:end]
}
