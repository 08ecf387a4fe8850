package otp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrResendTooEarly = errors.New("code was sent recently")

// TooEarlyError carries how long the caller has to wait before a resend
type TooEarlyError struct {
	Remaining time.Duration
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("%s, retry in %ds", ErrResendTooEarly, Seconds(e.Remaining))
}

func (e *TooEarlyError) Is(target error) bool {
	return target == ErrResendTooEarly
}

// Seconds rounds a countdown up to whole seconds for display
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Service pairs a provider with the resend countdown
type Service struct {
	provider Provider
	cooldown Cooldown
	interval time.Duration
}

func NewService(provider Provider, cooldown Cooldown, interval time.Duration) *Service {
	return &Service{provider: provider, cooldown: cooldown, interval: interval}
}

// Send delivers a code and restarts the countdown for key
func (s *Service) Send(ctx context.Context, key, phone string) error {
	if err := s.provider.Send(ctx, phone); err != nil {
		return err
	}
	return s.cooldown.Start(ctx, key, s.interval)
}

// Resend delivers a new code only once the countdown has run out
func (s *Service) Resend(ctx context.Context, key, phone string) error {
	ok, left, err := s.cooldown.Acquire(ctx, key, s.interval)
	if err != nil {
		return err
	}
	if !ok {
		return &TooEarlyError{Remaining: left}
	}
	if err := s.provider.Send(ctx, phone); err != nil {
		// nothing went out, so the countdown must not hold the user back
		if rerr := s.cooldown.Release(context.WithoutCancel(ctx), key); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (s *Service) Verify(ctx context.Context, phone, code string) (bool, error) {
	return s.provider.Verify(ctx, phone, code)
}

// ResendIn reports the countdown; errors count as "can resend now"
func (s *Service) ResendIn(ctx context.Context, key string) time.Duration {
	left, err := s.cooldown.Remaining(ctx, key)
	if err != nil {
		return 0
	}
	return left
}

type sweeper interface {
	Sweep(now time.Time) int
}

// Sweep drops expired countdowns and stale issued codes from in-process
// state. Redis-backed countdowns expire on their own.
func (s *Service) Sweep(now time.Time) int {
	n := 0
	if sw, ok := s.provider.(sweeper); ok {
		n += sw.Sweep(now)
	}
	if sw, ok := s.cooldown.(sweeper); ok {
		n += sw.Sweep(now)
	}
	return n
}
