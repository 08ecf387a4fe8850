package steps

import (
	"context"
	"fmt"

	"registration-wizard/internal/model"
	"registration-wizard/internal/validation"
)

type PhoneForm struct {
	Phone         string `json:"phone"`
	TermsAccepted bool   `json:"termsAccepted"`
}

type PhoneScreen struct {
	flow *Flow
}

// Form prefills the inputs from the record
func (s *PhoneScreen) Form() PhoneForm {
	d := s.flow.store.Data()
	return PhoneForm{Phone: d.Phone, TermsAccepted: d.TermsAccepted}
}

// Submit stores the masked phone, sends a code and advances once the
// send completes. A cancelled ctx leaves the step where it was.
func (s *PhoneScreen) Submit(ctx context.Context, form PhoneForm) error {
	if err := s.flow.require(ScreenPhone); err != nil {
		return err
	}

	phone := validation.FormatPhone(form.Phone)
	errs := validation.Errors{}
	if err := validation.Phone(phone); err != nil {
		errs["phone"] = err.Error()
	}
	if err := validation.Terms(form.TermsAccepted); err != nil {
		errs["termsAccepted"] = err.Error()
	}
	if err := errs.Err(); err != nil {
		return err
	}

	s.flow.store.UpdateData(model.Patch{
		Phone:         model.Ptr(phone),
		TermsAccepted: model.Ptr(true),
	})

	if err := s.flow.otp.Send(ctx, s.flow.key, phone); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	s.flow.store.NextStep()
	return nil
}
