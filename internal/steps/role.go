package steps

import (
	"registration-wizard/internal/model"
	"registration-wizard/internal/validation"
)

type RoleScreen struct {
	flow *Flow
}

func (s *RoleScreen) Selected() model.Role {
	return s.flow.store.Data().Role
}

// Select records the choice immediately without advancing
func (s *RoleScreen) Select(role string) error {
	if err := s.flow.require(ScreenRole); err != nil {
		return err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return validation.Errors{"role": err.Error()}
	}
	s.flow.store.UpdateData(model.Patch{Role: model.Ptr(r)})
	return nil
}

func (s *RoleScreen) Continue() error {
	if err := s.flow.require(ScreenRole); err != nil {
		return err
	}
	s.flow.store.NextStep()
	return nil
}

func (s *RoleScreen) Back() error {
	if err := s.flow.require(ScreenRole); err != nil {
		return err
	}
	s.flow.store.PrevStep()
	return nil
}
