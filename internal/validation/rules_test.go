package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhone(t *testing.T) {
	t.Run("accepts formatted and raw 11 digit numbers", func(t *testing.T) {
		assert.NoError(t, Phone("+7 (999) 123-45-67"))
		assert.NoError(t, Phone("79991234567"))
	})

	t.Run("rejects wrong digit counts", func(t *testing.T) {
		assert.ErrorIs(t, Phone("+7 (999) 123-45"), ErrPhoneInvalid)
		assert.ErrorIs(t, Phone("799912345678"), ErrPhoneInvalid)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		assert.ErrorIs(t, Phone("   "), ErrPhoneRequired)
	})
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"7":                  "+7 (7",
		"7999":               "+7 (999",
		"79991":              "+7 (999) 1",
		"7999123":            "+7 (999) 123",
		"79991234":           "+7 (999) 123-4",
		"7999123456":         "+7 (999) 123-45-6",
		"79991234567":        "+7 (999) 123-45-67",
		"799912345678":       "+7 (999) 123-45-67",
		"+7 (999) 123-45-67": "+7 (999) 123-45-67",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPhone(in), "input %q", in)
	}

	formatted := FormatPhone("79991234567")
	require.NoError(t, Phone(formatted))
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("jane@example.com"))
	assert.ErrorIs(t, Email(""), ErrEmailRequired)
	for _, bad := range []string{"jane", "jane@example", "ja ne@example.com", "@example.com", "jane@@example.com"} {
		assert.ErrorIs(t, Email(bad), ErrEmailInvalid, bad)
	}
}

func TestPassword(t *testing.T) {
	assert.ErrorIs(t, Password("abc123"), ErrPasswordInvalid)
	assert.NoError(t, Password("abcd1234"))
	assert.ErrorIs(t, Password("abcdefgh"), ErrPasswordInvalid)
	assert.ErrorIs(t, Password("12345678"), ErrPasswordInvalid)
	assert.ErrorIs(t, Password(""), ErrPasswordRequired)
}

func TestNationalID(t *testing.T) {
	assert.NoError(t, NationalID("123456789012"))
	assert.NoError(t, NationalID("1234 5678 9012"))
	assert.ErrorIs(t, NationalID("12345678901"), ErrNationalIDInvalid)
	assert.ErrorIs(t, NationalID(""), ErrNationalIDRequired)
}

func TestOTPCode(t *testing.T) {
	assert.NoError(t, OTPCode("000000"))
	assert.NoError(t, OTPCode("123456"))
	assert.ErrorIs(t, OTPCode("12345"), ErrCodeInvalid)
	assert.ErrorIs(t, OTPCode("1234567"), ErrCodeInvalid)
	assert.ErrorIs(t, OTPCode("12a456"), ErrCodeInvalid)
}

func TestProfile(t *testing.T) {
	valid := ProfileForm{
		LastName:             "Ivanova",
		FirstName:            "Anna",
		Email:                "anna@example.com",
		Password:             "abcd1234",
		IdentificationNumber: "123456789012",
	}

	t.Run("valid form has no errors", func(t *testing.T) {
		errs := Profile(valid)
		assert.Nil(t, errs)
		assert.NoError(t, errs.Err())
	})

	t.Run("middle name is optional", func(t *testing.T) {
		form := valid
		form.MiddleName = ""
		assert.Nil(t, Profile(form))
	})

	t.Run("reports every failing field", func(t *testing.T) {
		errs := Profile(ProfileForm{Email: "nope", Password: "short"})
		require.Error(t, errs.Err())
		assert.Len(t, errs, 5)
		assert.Equal(t, ErrEmailInvalid.Error(), errs["email"])
		assert.Equal(t, ErrPasswordInvalid.Error(), errs["password"])
		assert.Contains(t, errs.Error(), "lastName")
	})
}
