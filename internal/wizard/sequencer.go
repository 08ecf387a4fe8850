package wizard

import (
	"errors"

	"registration-wizard/internal/model"
)

var (
	ErrRegisteredIncomplete = errors.New("record is marked registered but the profile is incomplete")
	ErrCompleteUnregistered = errors.New("profile is complete but the record is not marked registered")
)

// DeriveInitialStep picks the step to resume at from the shape of persisted
// data alone. The first matching rule wins.
func DeriveInitialStep(rec model.Record) model.Step {
	switch {
	case rec.IsRegistered:
		return model.StepComplete
	case rec.ProfileComplete():
		return model.StepComplete
	case rec.Phone != "" && rec.Role != "":
		return model.StepProfile
	case rec.Phone != "" && rec.TermsAccepted:
		return model.StepRole
	default:
		return model.StepPhone
	}
}

// CheckConsistency flags records where the registered marker and the
// profile completeness disagree. DeriveInitialStep resolves both cases to
// Complete; this makes the disagreement visible.
func CheckConsistency(rec model.Record) error {
	complete := rec.ProfileComplete()
	switch {
	case rec.IsRegistered && !complete:
		return ErrRegisteredIncomplete
	case !rec.IsRegistered && complete:
		return ErrCompleteUnregistered
	}
	return nil
}
