package model

import (
	"errors"
	"fmt"
)

// Role is the account type picked on the role step
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCarrier  Role = "carrier"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts only the two known roles
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleCarrier:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// IDLabel returns the name of the identification number for the role.
// Customers register a business (BIN), carriers an individual (IIN).
func (r Role) IDLabel() string {
	if r == RoleCustomer {
		return "BIN"
	}
	return "IIN"
}

// Record is the accumulated registration data. It is always fully populated;
// unset fields hold their zero/default values.
type Record struct {
	Phone                string `json:"phone"`
	TermsAccepted        bool   `json:"termsAccepted"`
	Role                 Role   `json:"role"`
	LastName             string `json:"lastName"`
	FirstName            string `json:"firstName"`
	MiddleName           string `json:"middleName"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	IdentificationNumber string `json:"identificationNumber"`
	IsRegistered         bool   `json:"isRegistered"`
}

// DefaultRecord returns the record a fresh wizard starts from
func DefaultRecord() Record {
	return Record{Role: RoleCustomer}
}

// ProfileComplete reports whether every required profile field is filled
func (r Record) ProfileComplete() bool {
	return r.LastName != "" &&
		r.FirstName != "" &&
		r.Email != "" &&
		r.Password != "" &&
		r.IdentificationNumber != ""
}

// Redacted returns a copy safe to show outside the store
func (r Record) Redacted() Record {
	r.Password = ""
	return r
}
