package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	PhoneDigits      = 11
	NationalIDDigits = 12
	CodeLength       = 6
	MinPasswordLen   = 8
)

var (
	ErrPhoneRequired      = errors.New("phone number is required")
	ErrPhoneInvalid       = errors.New("phone number must contain 11 digits")
	ErrTermsRequired      = errors.New("terms must be accepted")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("email address is invalid")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordInvalid    = errors.New("password must be at least 8 characters and contain letters and digits")
	ErrNationalIDRequired = errors.New("identification number is required")
	ErrNationalIDInvalid  = errors.New("identification number must contain 12 digits")
	ErrCodeInvalid        = errors.New("code must contain 6 digits")
	ErrRequired           = errors.New("field is required")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Digits strips everything except ASCII digits
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Phone accepts any text that normalises to exactly 11 digits.
// The display mask has no bearing on validity.
func Phone(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrPhoneRequired
	}
	if len(Digits(s)) != PhoneDigits {
		return ErrPhoneInvalid
	}
	return nil
}

func Terms(accepted bool) error {
	if !accepted {
		return ErrTermsRequired
	}
	return nil
}

func Email(s string) error {
	if s == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(s) {
		return ErrEmailInvalid
	}
	return nil
}

// Password requires 8+ characters with at least one ASCII letter and one digit
func Password(s string) error {
	if s == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(s) < MinPasswordLen {
		return ErrPasswordInvalid
	}

	hasLetter := false
	hasDigit := false
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordInvalid
	}
	return nil
}

// NationalID applies the same 12-digit rule to IIN and BIN
func NationalID(s string) error {
	if s == "" {
		return ErrNationalIDRequired
	}
	if len(Digits(s)) != NationalIDDigits {
		return ErrNationalIDInvalid
	}
	return nil
}

// OTPCode accepts exactly six ASCII digits
func OTPCode(s string) error {
	if len(s) != CodeLength {
		return ErrCodeInvalid
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return ErrCodeInvalid
		}
	}
	return nil
}

func Required(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrRequired
	}
	return nil
}
