package model

// Patch is a partial record update. Nil fields are left untouched.
type Patch struct {
	Phone                *string `json:"phone,omitempty"`
	TermsAccepted        *bool   `json:"termsAccepted,omitempty"`
	Role                 *Role   `json:"role,omitempty"`
	LastName             *string `json:"lastName,omitempty"`
	FirstName            *string `json:"firstName,omitempty"`
	MiddleName           *string `json:"middleName,omitempty"`
	Email                *string `json:"email,omitempty"`
	Password             *string `json:"password,omitempty"`
	IdentificationNumber *string `json:"identificationNumber,omitempty"`
	IsRegistered         *bool   `json:"isRegistered,omitempty"`
}

// Ptr is a small helper for building patches
func Ptr[T any](v T) *T {
	return &v
}

// Apply shallow-merges the present fields over rec and returns the result
func (p Patch) Apply(rec Record) Record {
	if p.Phone != nil {
		rec.Phone = *p.Phone
	}
	if p.TermsAccepted != nil {
		rec.TermsAccepted = *p.TermsAccepted
	}
	if p.Role != nil {
		rec.Role = *p.Role
	}
	if p.LastName != nil {
		rec.LastName = *p.LastName
	}
	if p.FirstName != nil {
		rec.FirstName = *p.FirstName
	}
	if p.MiddleName != nil {
		rec.MiddleName = *p.MiddleName
	}
	if p.Email != nil {
		rec.Email = *p.Email
	}
	if p.Password != nil {
		rec.Password = *p.Password
	}
	if p.IdentificationNumber != nil {
		rec.IdentificationNumber = *p.IdentificationNumber
	}
	if p.IsRegistered != nil {
		rec.IsRegistered = *p.IsRegistered
	}
	return rec
}

// Fields lists the JSON names of the present fields, in record order
func (p Patch) Fields() []string {
	var fields []string
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(p.Phone != nil, "phone")
	add(p.TermsAccepted != nil, "termsAccepted")
	add(p.Role != nil, "role")
	add(p.LastName != nil, "lastName")
	add(p.FirstName != nil, "firstName")
	add(p.MiddleName != nil, "middleName")
	add(p.Email != nil, "email")
	add(p.Password != nil, "password")
	add(p.IdentificationNumber != nil, "identificationNumber")
	add(p.IsRegistered != nil, "isRegistered")
	return fields
}
