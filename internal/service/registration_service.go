package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"registration-wizard/internal/model"
	"registration-wizard/internal/otp"
	"registration-wizard/internal/session"
	"registration-wizard/internal/steps"
	"registration-wizard/internal/validation"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrWrongStep       = errors.New("action does not match the current step")
	ErrSessionNotFound = session.ErrSessionNotFound
	ErrResendTooEarly  = otp.ErrResendTooEarly
)

// InputError carries per-field messages for a rejected form
type InputError struct {
	Fields validation.Errors
}

func (e *InputError) Error() string {
	return e.Fields.Error()
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// View is what a client needs to render the current screen
type View struct {
	SessionID string           `json:"sessionId"`
	Step      string           `json:"step"`
	Screen    steps.ScreenName `json:"screen"`
	IsEditing bool             `json:"isEditing"`
	Data      model.Record     `json:"data"`
	IDLabel   string           `json:"idLabel"`
	ResendIn  int              `json:"resendIn"`
}

// RegistrationService drives one wizard per session
type RegistrationService struct {
	sessions *session.Registry
	otp      *otp.Service
	logger   *zap.Logger
}

func NewRegistrationService(sessions *session.Registry, codes *otp.Service, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{sessions: sessions, otp: codes, logger: logger}
}

func (s *RegistrationService) Create(ctx context.Context) (*View, error) {
	sess := s.sessions.Create()
	var view *View
	err := sess.Do(func() error {
		view = s.view(ctx, sess.ID, steps.NewFlow(sess.Store, s.otp, sess.ID))
		return nil
	})
	return view, err
}

func (s *RegistrationService) Get(ctx context.Context, id string) (*View, error) {
	return s.act(ctx, id, func(*steps.Flow) error { return nil })
}

func (s *RegistrationService) SubmitPhone(ctx context.Context, id string, form steps.PhoneForm) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		return f.Phone().Submit(ctx, form)
	})
}

// SelectRole records a role without leaving the role screen
func (s *RegistrationService) SelectRole(ctx context.Context, id, role string) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		return f.Role().Select(role)
	})
}

// ContinueRole optionally selects role and then advances
func (s *RegistrationService) ContinueRole(ctx context.Context, id, role string) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		if role != "" {
			if err := f.Role().Select(role); err != nil {
				return err
			}
		}
		return f.Role().Continue()
	})
}

func (s *RegistrationService) SubmitCode(ctx context.Context, id, code string) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		return f.OTP().Submit(ctx, code)
	})
}

func (s *RegistrationService) ResendCode(ctx context.Context, id string) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		return f.OTP().Resend(ctx)
	})
}

func (s *RegistrationService) SubmitProfile(ctx context.Context, id string, form validation.ProfileForm) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		return f.Profile().Submit(form)
	})
}

func (s *RegistrationService) Back(ctx context.Context, id string) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		return f.Back()
	})
}

func (s *RegistrationService) Edit(ctx context.Context, id string) (*View, error) {
	return s.act(ctx, id, func(f *steps.Flow) error {
		return f.Complete().Edit()
	})
}

// Logout wipes the record and forgets the session
func (s *RegistrationService) Logout(ctx context.Context, id string) error {
	_, err := s.act(ctx, id, func(f *steps.Flow) error {
		return f.Complete().Logout()
	})
	if err != nil {
		return err
	}
	s.sessions.Drop(id)
	s.logger.Info("registration session closed", zap.String("session_id", id))
	return nil
}

func (s *RegistrationService) act(ctx context.Context, id string, fn func(*steps.Flow) error) (*View, error) {
	sess, err := s.sessions.Open(id)
	if err != nil {
		return nil, err
	}

	var view *View
	err = sess.Do(func() error {
		flow := steps.NewFlow(sess.Store, s.otp, sess.ID)
		if err := fn(flow); err != nil {
			return translate(err)
		}
		view = s.view(ctx, sess.ID, flow)
		return nil
	})
	return view, err
}

func (s *RegistrationService) view(ctx context.Context, id string, flow *steps.Flow) *View {
	state := flow.Store().Snapshot()
	v := &View{
		SessionID: id,
		Step:      state.Step.String(),
		Screen:    steps.Current(state),
		IsEditing: state.Editing,
		Data:      state.Data.Redacted(),
		IDLabel:   state.Data.Role.IDLabel(),
	}
	if v.Screen == steps.ScreenOTP {
		v.ResendIn = otp.Seconds(s.otp.ResendIn(ctx, id))
	}
	return v
}

// translate maps screen errors onto the service taxonomy
func translate(err error) error {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		return &InputError{Fields: fields}
	case errors.Is(err, steps.ErrCodeRejected):
		return &InputError{Fields: validation.Errors{"code": err.Error()}}
	case errors.Is(err, steps.ErrNotCurrentScreen), errors.Is(err, steps.ErrCannotGoBack):
		return fmt.Errorf("%w: %v", ErrWrongStep, err)
	default:
		return err
	}
}
