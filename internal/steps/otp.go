package steps

import (
	"context"
	"time"

	"registration-wizard/internal/validation"
)

// OTPScreen keeps no state of its own; the typed digits and the countdown
// display belong to whatever renders it.
type OTPScreen struct {
	flow *Flow
}

// Phone is the number the code went to
func (s *OTPScreen) Phone() string {
	return s.flow.store.Data().Phone
}

func (s *OTPScreen) ResendIn(ctx context.Context) time.Duration {
	return s.flow.otp.ResendIn(ctx, s.flow.key)
}

func (s *OTPScreen) Submit(ctx context.Context, code string) error {
	if err := s.flow.require(ScreenOTP); err != nil {
		return err
	}
	if err := validation.OTPCode(code); err != nil {
		return validation.Errors{"code": err.Error()}
	}

	ok, err := s.flow.otp.Verify(ctx, s.Phone(), code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeRejected
	}
	s.flow.store.NextStep()
	return nil
}

func (s *OTPScreen) Resend(ctx context.Context) error {
	if err := s.flow.require(ScreenOTP); err != nil {
		return err
	}
	return s.flow.otp.Resend(ctx, s.flow.key, s.Phone())
}

func (s *OTPScreen) Back() error {
	if err := s.flow.require(ScreenOTP); err != nil {
		return err
	}
	s.flow.store.PrevStep()
	return nil
}
