package validation

import (
	"sort"
	"strings"
)

// Errors maps a form field name to the reason it failed
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when there are no field errors so callers can
// return the result directly as an error.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ProfileForm is what the profile step collects
type ProfileForm struct {
	LastName             string `json:"lastName"`
	FirstName            string `json:"firstName"`
	MiddleName           string `json:"middleName"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	IdentificationNumber string `json:"identificationNumber"`
}

// Profile checks every field and reports all failures at once
func Profile(f ProfileForm) Errors {
	errs := Errors{}
	check := func(field string, err error) {
		if err != nil {
			errs[field] = err.Error()
		}
	}

	check("lastName", Required(f.LastName))
	check("firstName", Required(f.FirstName))
	check("email", Email(f.Email))
	check("password", Password(f.Password))
	check("identificationNumber", NationalID(f.IdentificationNumber))

	if len(errs) == 0 {
		return nil
	}
	return errs
}
