package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"registration-wizard/internal/hashing"
	"registration-wizard/internal/util"
	"registration-wizard/internal/validation"
)

// Provider delivers and checks one-time codes
type Provider interface {
	Send(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) (bool, error)
}

// issuedCodeTTL bounds how long an unverified code is remembered
const issuedCodeTTL = 10 * time.Minute

type issuedCode struct {
	hash     *hashing.HashResult
	issuedAt time.Time
}

// Simulated never talks to an SMS gateway. It issues a random code, keeps
// only its hash, and accepts any well-formed code on verification.
type Simulated struct {
	hasher      *hashing.Hasher
	sendDelay   time.Duration
	verifyDelay time.Duration
	logger      *zap.Logger

	now    func() time.Time
	mu     sync.Mutex
	issued map[string]issuedCode
}

func NewSimulated(hasher *hashing.Hasher, sendDelay, verifyDelay time.Duration, logger *zap.Logger) *Simulated {
	return &Simulated{
		hasher:      hasher,
		sendDelay:   sendDelay,
		verifyDelay: verifyDelay,
		logger:      util.OrNop(logger),
		now:         time.Now,
		issued:      make(map[string]issuedCode),
	}
}

func (s *Simulated) Send(ctx context.Context, phone string) error {
	code, err := randomCode()
	if err != nil {
		return err
	}
	hashed, err := s.hasher.HashCode(code)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	return RunTask(ctx, s.sendDelay, func() {
		s.mu.Lock()
		s.issued[validation.Digits(phone)] = issuedCode{hash: hashed, issuedAt: s.now()}
		s.mu.Unlock()

		s.logger.Info("one-time code sent (simulated)", zap.String("phone", util.MaskPhone(phone)))
		s.logger.Debug("simulated one-time code", zap.String("phone", util.MaskPhone(phone)), zap.String("code", code))
	})
}

func (s *Simulated) Verify(ctx context.Context, phone, code string) (bool, error) {
	if err := validation.OTPCode(code); err != nil {
		return false, err
	}
	if err := RunTask(ctx, s.verifyDelay, nil); err != nil {
		return false, err
	}

	key := validation.Digits(phone)
	s.mu.Lock()
	issued, ok := s.issued[key]
	delete(s.issued, key)
	s.mu.Unlock()

	matched := false
	if ok && s.now().Sub(issued.issuedAt) <= issuedCodeTTL {
		matched, _ = s.hasher.VerifyCode(code, issued.hash)
	}
	s.logger.Info("one-time code accepted (simulated)",
		zap.String("phone", util.MaskPhone(phone)),
		zap.Bool("matched_issued_code", matched),
	)
	return true, nil
}

// Sweep forgets codes issued longer ago than the code lifetime
func (s *Simulated) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, issued := range s.issued {
		if now.Sub(issued.issuedAt) > issuedCodeTTL {
			delete(s.issued, key)
			n++
		}
	}
	return n
}

// Issued reports how many codes are waiting for verification
func (s *Simulated) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issued)
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
