package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registration-wizard/internal/hashing"
	"registration-wizard/internal/model"
	"registration-wizard/internal/otp"
	"registration-wizard/internal/storage"
	"registration-wizard/internal/validation"
	"registration-wizard/internal/wizard"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type FlowSuite struct {
	suite.Suite
	provider *storage.Memory
	clock    *clock
	codes    *otp.Service
	flow     *Flow
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func (s *FlowSuite) SetupTest() {
	hasher, err := hashing.NewHasher(hashing.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1})
	s.Require().NoError(err)

	s.provider = storage.NewMemory()
	s.clock = &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s.codes = otp.NewService(otp.NewSimulated(hasher, 0, 0, nil), otp.NewMemoryCooldown(s.clock.Now), time.Minute)
	s.flow = NewFlow(wizard.Open(s.provider), s.codes, "test")
}

func validProfile() validation.ProfileForm {
	return validation.ProfileForm{
		LastName:             "Ivanov",
		FirstName:            "Ivan",
		Email:                "ivan@example.com",
		Password:             "secret123",
		IdentificationNumber: "123456789012",
	}
}

func (s *FlowSuite) registerThroughOTP() {
	ctx := context.Background()
	s.Require().NoError(s.flow.Phone().Submit(ctx, PhoneForm{Phone: "87011234567", TermsAccepted: true}))
	s.Require().NoError(s.flow.Role().Select("carrier"))
	s.Require().NoError(s.flow.Role().Continue())
	s.Require().NoError(s.flow.OTP().Submit(ctx, "123456"))
}

func (s *FlowSuite) TestCurrent() {
	s.Equal(ScreenPhone, Current(wizard.State{Step: model.StepPhone}))
	s.Equal(ScreenRole, Current(wizard.State{Step: model.StepRole}))
	s.Equal(ScreenOTP, Current(wizard.State{Step: model.StepOTP}))
	s.Equal(ScreenProfile, Current(wizard.State{Step: model.StepProfile}))
	s.Equal(ScreenComplete, Current(wizard.State{Step: model.StepComplete}))
	s.Equal(ScreenProfile, Current(wizard.State{Step: model.StepComplete, Editing: true}))
}

func (s *FlowSuite) TestHappyPath() {
	s.registerThroughOTP()
	s.Equal(ScreenProfile, s.flow.Screen())
	s.Equal("IIN", s.flow.Profile().IDLabel())

	form := validProfile()
	form.FirstName = "  Ivan   Petrovich "
	s.Require().NoError(s.flow.Profile().Submit(form))

	s.Equal(ScreenComplete, s.flow.Screen())
	profile := s.flow.Complete().Profile()
	s.Equal("+7 (701) 123-45-67", profile.Phone)
	s.Equal(model.RoleCarrier, profile.Role)
	s.Equal("Ivan Petrovich", profile.FirstName)
	s.Empty(profile.Password)
	s.True(profile.IsRegistered)

	reopened := wizard.Open(s.provider)
	s.Equal(model.StepComplete, reopened.CurrentStep())
	s.Equal("secret123", reopened.Data().Password)
}

func (s *FlowSuite) TestPhoneValidation() {
	err := s.flow.Phone().Submit(context.Background(), PhoneForm{Phone: "123"})

	var fields validation.Errors
	s.Require().True(errors.As(err, &fields))
	s.Equal(validation.ErrPhoneInvalid.Error(), fields["phone"])
	s.Equal(validation.ErrTermsRequired.Error(), fields["termsAccepted"])
	s.Equal(ScreenPhone, s.flow.Screen())
	s.Empty(s.flow.Store().Data().Phone)
}

func (s *FlowSuite) TestPhoneSubmitCancelledKeepsStep() {
	hasher, err := hashing.NewHasher(hashing.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1})
	s.Require().NoError(err)
	slow := otp.NewService(otp.NewSimulated(hasher, time.Hour, 0, nil), otp.NewMemoryCooldown(s.clock.Now), time.Minute)
	flow := NewFlow(wizard.Open(storage.NewMemory()), slow, "slow")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err = flow.Phone().Submit(ctx, PhoneForm{Phone: "77011234567", TermsAccepted: true})
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(ScreenPhone, flow.Screen())
	s.Equal("+7 (701) 123-45-67", flow.Store().Data().Phone)
}

func (s *FlowSuite) TestWrongScreen() {
	s.ErrorIs(s.flow.Role().Continue(), ErrNotCurrentScreen)
	s.ErrorIs(s.flow.OTP().Submit(context.Background(), "123456"), ErrNotCurrentScreen)
	s.ErrorIs(s.flow.Profile().Submit(validProfile()), ErrNotCurrentScreen)
	s.ErrorIs(s.flow.Complete().Edit(), ErrNotCurrentScreen)
	s.Equal(model.StepPhone, s.flow.Store().CurrentStep())
}

func (s *FlowSuite) TestRoleSelectDoesNotAdvance() {
	s.Require().NoError(s.flow.Phone().Submit(context.Background(), PhoneForm{Phone: "77011234567", TermsAccepted: true}))

	s.Require().NoError(s.flow.Role().Select("carrier"))
	s.Equal(ScreenRole, s.flow.Screen())
	s.Equal(model.RoleCarrier, s.flow.Role().Selected())

	var fields validation.Errors
	s.True(errors.As(s.flow.Role().Select("admin"), &fields))
	s.Equal(model.RoleCarrier, s.flow.Role().Selected())
}

func (s *FlowSuite) TestOTP() {
	ctx := context.Background()
	s.Require().NoError(s.flow.Phone().Submit(ctx, PhoneForm{Phone: "77011234567", TermsAccepted: true}))
	s.Require().NoError(s.flow.Role().Continue())
	s.Equal("+7 (701) 123-45-67", s.flow.OTP().Phone())

	s.Run("short code", func() {
		var fields validation.Errors
		s.True(errors.As(s.flow.OTP().Submit(ctx, "123"), &fields))
		s.Contains(fields, "code")
	})

	s.Run("resend waits for the countdown", func() {
		s.Equal(time.Minute, s.flow.OTP().ResendIn(ctx))
		s.ErrorIs(s.flow.OTP().Resend(ctx), otp.ErrResendTooEarly)

		s.clock.now = s.clock.now.Add(time.Minute)
		s.NoError(s.flow.OTP().Resend(ctx))
		s.Equal(time.Minute, s.flow.OTP().ResendIn(ctx))
	})

	s.Run("any six digits pass", func() {
		s.NoError(s.flow.OTP().Submit(ctx, "000000"))
		s.Equal(ScreenProfile, s.flow.Screen())
	})
}

func (s *FlowSuite) TestProfileValidationKeepsRecord() {
	s.registerThroughOTP()

	form := validProfile()
	form.Password = "short"
	form.IdentificationNumber = "12"
	err := s.flow.Profile().Submit(form)

	var fields validation.Errors
	s.Require().True(errors.As(err, &fields))
	s.Len(fields, 2)
	s.Empty(s.flow.Store().Data().Email)
	s.Equal(ScreenProfile, s.flow.Screen())
}

func (s *FlowSuite) TestBack() {
	ctx := context.Background()
	s.ErrorIs(s.flow.Back(), ErrCannotGoBack)

	s.registerThroughOTP()
	s.Require().NoError(s.flow.Back())
	s.Equal(ScreenOTP, s.flow.Screen())
	s.Require().NoError(s.flow.Back())
	s.Equal(ScreenRole, s.flow.Screen())
	s.Require().NoError(s.flow.Back())
	s.Equal(ScreenPhone, s.flow.Screen())
	s.Equal("+7 (701) 123-45-67", s.flow.Phone().Form().Phone)

	s.Require().NoError(s.flow.Phone().Submit(ctx, PhoneForm{Phone: "77011234567", TermsAccepted: true}))
	s.Equal(ScreenRole, s.flow.Screen())
}

func (s *FlowSuite) TestEditRoundTrip() {
	s.registerThroughOTP()
	s.Require().NoError(s.flow.Profile().Submit(validProfile()))

	s.Require().NoError(s.flow.Complete().Edit())
	s.Equal(ScreenProfile, s.flow.Screen())
	s.True(s.flow.Profile().Editing())
	s.Equal("ivan@example.com", s.flow.Profile().Form().Email)

	s.Run("back cancels the edit", func() {
		s.Require().NoError(s.flow.Back())
		s.Equal(ScreenComplete, s.flow.Screen())
		s.False(s.flow.Store().IsEditing())
	})

	s.Run("submit saves and returns", func() {
		s.Require().NoError(s.flow.Complete().Edit())
		form := s.flow.Profile().Form()
		form.Email = "new@example.com"
		s.Require().NoError(s.flow.Profile().Submit(form))
		s.Equal(ScreenComplete, s.flow.Screen())
		s.Equal("new@example.com", s.flow.Complete().Profile().Email)
	})

	s.Run("edit mode is not restored on reload", func() {
		s.Require().NoError(s.flow.Complete().Edit())
		reopened := wizard.Open(s.provider)
		s.False(reopened.IsEditing())
		s.Equal(model.StepComplete, reopened.CurrentStep())
	})
}

func (s *FlowSuite) TestLogout() {
	s.registerThroughOTP()
	s.Require().NoError(s.flow.Profile().Submit(validProfile()))

	s.Require().NoError(s.flow.Complete().Logout())
	s.Equal(ScreenPhone, s.flow.Screen())
	s.Equal(model.DefaultRecord(), s.flow.Store().Data())
	s.Equal(0, s.provider.Len())
}

func (s *FlowSuite) TestNewFlowPanicsWithoutDependencies() {
	s.Panics(func() { NewFlow(nil, s.codes, "k") })
	s.Panics(func() { NewFlow(wizard.New(storage.NewMemory()), nil, "k") })
}
