package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"registration-wizard/internal/otp"
	"registration-wizard/internal/steps"
	"registration-wizard/internal/validation"
)

var (
	errQuit = errors.New("quit")
	errBack = errors.New("back")
)

type console struct {
	ctx   context.Context
	lines <-chan string
	out   io.Writer
}

func newConsole(ctx context.Context, in io.Reader, out io.Writer) *console {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return &console{ctx: ctx, lines: lines, out: out}
}

func (c *console) say(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// ask prompts for one line. "quit" and "back" work at every prompt.
func (c *console) ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	select {
	case <-c.ctx.Done():
		return "", c.ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "quit":
			return "", errQuit
		case "back":
			return "", errBack
		}
		return line, nil
	}
}

// askDefault keeps current when the answer is empty
func (c *console) askDefault(label, current string, hidden bool) (string, error) {
	shown := current
	if hidden && current != "" {
		shown = "********"
	}
	prompt := label + ": "
	if shown != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, shown)
	}
	v, err := c.ask(prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

func run(ctx context.Context, in io.Reader, out io.Writer, flow *steps.Flow) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newConsole(ctx, in, out)
	c.say("Registration wizard. Type 'back' to return a step or 'quit' to leave; progress is saved.")

	for {
		err := show(c, flow)
		switch {
		case err == nil:
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			c.say("")
			return nil
		case errors.Is(err, errBack):
			if err := flow.Back(); err != nil {
				c.say("There is no previous step.")
			}
		default:
			report(c, err)
		}
	}
}

func report(c *console, err error) {
	var fields validation.Errors
	var early *otp.TooEarlyError
	switch {
	case errors.As(err, &fields):
		for _, name := range sortedKeys(fields) {
			c.say("  %s: %s", name, fields[name])
		}
	case errors.As(err, &early):
		c.say("A new code can be requested in %ds.", otp.Seconds(early.Remaining))
	case errors.Is(err, steps.ErrCodeRejected):
		c.say("The code was not accepted.")
	default:
		c.say("Error: %v", err)
	}
}

func show(c *console, flow *steps.Flow) error {
	switch flow.Screen() {
	case steps.ScreenPhone:
		return phoneScreen(c, flow.Phone())
	case steps.ScreenRole:
		return roleScreen(c, flow.Role())
	case steps.ScreenOTP:
		return otpScreen(c, flow.OTP())
	case steps.ScreenProfile:
		return profileScreen(c, flow.Profile())
	default:
		return completeScreen(c, flow.Complete())
	}
}

func phoneScreen(c *console, s *steps.PhoneScreen) error {
	form := s.Form()
	c.say("\n== Phone number ==")

	phone, err := c.askDefault("Phone", form.Phone, false)
	if err != nil {
		return err
	}
	terms, err := c.ask("Accept the terms of service? [y/N]: ")
	if err != nil {
		return err
	}
	form.Phone = phone
	form.TermsAccepted = isYes(terms)

	c.say("Sending code...")
	return s.Submit(c.ctx, form)
}

func roleScreen(c *console, s *steps.RoleScreen) error {
	c.say("\n== Role ==")
	c.say("  customer: I ship goods")
	c.say("  carrier:  I carry goods")

	role, err := c.askDefault("Role", string(s.Selected()), false)
	if err != nil {
		return err
	}
	if err := s.Select(role); err != nil {
		return err
	}
	return s.Continue()
}

func otpScreen(c *console, s *steps.OTPScreen) error {
	c.say("\n== Verification ==")
	c.say("A code was sent to %s (simulated: any 6 digits are accepted).", s.Phone())
	if left := otp.Seconds(s.ResendIn(c.ctx)); left > 0 {
		c.say("You can request a new code in %ds.", left)
	} else {
		c.say("Type 'resend' for a new code.")
	}

	code, err := c.ask("Code: ")
	if err != nil {
		return err
	}
	if strings.EqualFold(code, "resend") {
		if err := s.Resend(c.ctx); err != nil {
			return err
		}
		c.say("A new code was sent.")
		return nil
	}
	return s.Submit(c.ctx, code)
}

func profileScreen(c *console, s *steps.ProfileScreen) error {
	form := s.Form()
	if s.Editing() {
		c.say("\n== Edit profile == (enter keeps the current value, 'back' cancels)")
	} else {
		c.say("\n== Profile ==")
	}

	prompts := []struct {
		label  string
		field  *string
		hidden bool
	}{
		{"Last name", &form.LastName, false},
		{"First name", &form.FirstName, false},
		{"Middle name (optional)", &form.MiddleName, false},
		{"Email", &form.Email, false},
		{"Password", &form.Password, true},
		{s.IDLabel(), &form.IdentificationNumber, false},
	}
	for _, p := range prompts {
		v, err := c.askDefault(p.label, *p.field, p.hidden)
		if err != nil {
			return err
		}
		*p.field = v
	}
	return s.Submit(form)
}

func completeScreen(c *console, s *steps.CompleteScreen) error {
	p := s.Profile()
	c.say("\n== Registered ==")
	c.say("  Name:  %s", strings.TrimSpace(strings.Join([]string{p.LastName, p.FirstName, p.MiddleName}, " ")))
	c.say("  Phone: %s", p.Phone)
	c.say("  Email: %s", p.Email)
	c.say("  Role:  %s", p.Role)
	c.say("  %s:   %s", p.Role.IDLabel(), p.IdentificationNumber)

	cmd, err := c.ask("edit, logout or quit: ")
	if err != nil {
		return err
	}
	switch strings.ToLower(cmd) {
	case "edit":
		return s.Edit()
	case "logout":
		if err := s.Logout(); err != nil {
			return err
		}
		c.say("Logged out. Saved data was removed.")
		return nil
	default:
		c.say("Unknown command %q.", cmd)
		return nil
	}
}

func isYes(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true
	}
	return false
}

func sortedKeys(m validation.Errors) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
