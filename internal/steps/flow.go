// Package steps implements the wizard screens on top of the registration
// store. Screens validate input locally and only then touch the store.
package steps

import (
	"errors"
	"fmt"

	"registration-wizard/internal/model"
	"registration-wizard/internal/otp"
	"registration-wizard/internal/wizard"
)

var (
	ErrNotCurrentScreen = errors.New("screen is not active")
	ErrCannotGoBack     = errors.New("screen has no previous step")
	ErrCodeRejected     = errors.New("code was not accepted")
)

type ScreenName string

const (
	ScreenPhone    ScreenName = "phone"
	ScreenRole     ScreenName = "role"
	ScreenOTP      ScreenName = "otp"
	ScreenProfile  ScreenName = "profile"
	ScreenComplete ScreenName = "complete"
)

// Current picks the screen to show. Edit mode always shows the profile
// form, whatever the step.
func Current(state wizard.State) ScreenName {
	if state.Editing {
		return ScreenProfile
	}
	switch state.Step {
	case model.StepRole:
		return ScreenRole
	case model.StepOTP:
		return ScreenOTP
	case model.StepProfile:
		return ScreenProfile
	case model.StepComplete:
		return ScreenComplete
	default:
		return ScreenPhone
	}
}

// Flow binds the screens to one store. Key identifies the wizard towards
// the code resend countdown.
type Flow struct {
	store *wizard.Store
	otp   *otp.Service
	key   string
}

func NewFlow(store *wizard.Store, codes *otp.Service, key string) *Flow {
	if store == nil || codes == nil {
		panic("steps: flow needs a store and an otp service")
	}
	return &Flow{store: store, otp: codes, key: key}
}

func (f *Flow) Store() *wizard.Store { return f.store }

func (f *Flow) Screen() ScreenName {
	return Current(f.store.Snapshot())
}

func (f *Flow) require(name ScreenName) error {
	if cur := f.Screen(); cur != name {
		return fmt.Errorf("%w: %s (current is %s)", ErrNotCurrentScreen, name, cur)
	}
	return nil
}

func (f *Flow) Phone() *PhoneScreen       { return &PhoneScreen{flow: f} }
func (f *Flow) Role() *RoleScreen         { return &RoleScreen{flow: f} }
func (f *Flow) OTP() *OTPScreen           { return &OTPScreen{flow: f} }
func (f *Flow) Profile() *ProfileScreen   { return &ProfileScreen{flow: f} }
func (f *Flow) Complete() *CompleteScreen { return &CompleteScreen{flow: f} }

// Back runs the back action of whichever screen is showing
func (f *Flow) Back() error {
	switch f.Screen() {
	case ScreenRole:
		return f.Role().Back()
	case ScreenOTP:
		return f.OTP().Back()
	case ScreenProfile:
		return f.Profile().Back()
	default:
		return ErrCannotGoBack
	}
}
