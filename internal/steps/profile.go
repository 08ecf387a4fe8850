package steps

import (
	"registration-wizard/internal/model"
	"registration-wizard/internal/util"
	"registration-wizard/internal/validation"
)

type ProfileScreen struct {
	flow *Flow
}

func (s *ProfileScreen) Form() validation.ProfileForm {
	d := s.flow.store.Data()
	return validation.ProfileForm{
		LastName:             d.LastName,
		FirstName:            d.FirstName,
		MiddleName:           d.MiddleName,
		Email:                d.Email,
		Password:             d.Password,
		IdentificationNumber: d.IdentificationNumber,
	}
}

func (s *ProfileScreen) Editing() bool {
	return s.flow.store.IsEditing()
}

func (s *ProfileScreen) IDLabel() string {
	return s.flow.store.Data().Role.IDLabel()
}

// Submit saves the profile, marks the record registered and moves on to
// the profile display. In edit mode that returns to Complete.
func (s *ProfileScreen) Submit(form validation.ProfileForm) error {
	if err := s.flow.require(ScreenProfile); err != nil {
		return err
	}

	form.LastName = util.NormalizeName(form.LastName)
	form.FirstName = util.NormalizeName(form.FirstName)
	form.MiddleName = util.NormalizeName(form.MiddleName)
	if err := validation.Profile(form).Err(); err != nil {
		return err
	}

	s.flow.store.UpdateData(model.Patch{
		LastName:             model.Ptr(form.LastName),
		FirstName:            model.Ptr(form.FirstName),
		MiddleName:           model.Ptr(form.MiddleName),
		Email:                model.Ptr(form.Email),
		Password:             model.Ptr(form.Password),
		IdentificationNumber: model.Ptr(form.IdentificationNumber),
		IsRegistered:         model.Ptr(true),
	})
	s.flow.store.SetIsEditing(false)
	s.flow.store.NextStep()
	return nil
}

// Back cancels an edit (back to Complete) or walks back to the code step
func (s *ProfileScreen) Back() error {
	if err := s.flow.require(ScreenProfile); err != nil {
		return err
	}
	if s.flow.store.IsEditing() {
		s.flow.store.SetIsEditing(false)
		s.flow.store.NextStep()
		return nil
	}
	s.flow.store.PrevStep()
	return nil
}
