package steps

import "registration-wizard/internal/model"

type CompleteScreen struct {
	flow *Flow
}

// Profile is the registered record without the password
func (s *CompleteScreen) Profile() model.Record {
	return s.flow.store.Data().Redacted()
}

// Edit reopens the profile form in edit mode
func (s *CompleteScreen) Edit() error {
	if err := s.flow.require(ScreenComplete); err != nil {
		return err
	}
	s.flow.store.SetIsEditing(true)
	s.flow.store.SetStep(model.StepProfile)
	return nil
}

// Logout wipes the record and its persisted copy
func (s *CompleteScreen) Logout() error {
	if err := s.flow.require(ScreenComplete); err != nil {
		return err
	}
	s.flow.store.Reset()
	return nil
}
