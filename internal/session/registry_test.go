package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"registration-wizard/internal/encryption"
	"registration-wizard/internal/model"
	"registration-wizard/internal/storage"
	"registration-wizard/internal/wizard"
)

type RegistrySuite struct {
	suite.Suite
	provider *storage.Memory
	now      time.Time
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.provider = storage.NewMemory()
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.registry = s.newRegistry()
}

func (s *RegistrySuite) newRegistry(opts ...Option) *Registry {
	base := []Option{
		WithShards(4),
		WithIdleTimeout(time.Minute),
		WithClock(func() time.Time { return s.now }),
	}
	return NewRegistry(s.provider, append(base, opts...)...)
}

func (s *RegistrySuite) TestCreateStartsFresh() {
	sess := s.registry.Create()

	s.NotEmpty(sess.ID)
	s.Equal(model.StepPhone, sess.Store.CurrentStep())
	s.Equal(1, s.registry.Len())

	got, err := s.registry.Open(sess.ID)
	s.Require().NoError(err)
	s.Same(sess, got)
}

func (s *RegistrySuite) TestPersistsUnderPrefixedKey() {
	sess := s.registry.Create()
	sess.Store.UpdateData(model.Patch{Phone: model.Ptr("+7 (701) 123-45-67")})

	raw, ok, err := s.provider.Get(KeyPrefix + sess.ID)
	s.Require().NoError(err)
	s.True(ok)
	s.Contains(raw, "+7 (701) 123-45-67")
}

func (s *RegistrySuite) TestOpenUnknown() {
	_, err := s.registry.Open(uuid.NewString())
	s.ErrorIs(err, ErrSessionNotFound)

	_, err = s.registry.Open("../../etc/passwd")
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *RegistrySuite) TestResumesFromSharedProvider() {
	sess := s.registry.Create()
	sess.Store.UpdateData(model.Patch{
		Phone:         model.Ptr("+7 (701) 123-45-67"),
		TermsAccepted: model.Ptr(true),
		Role:          model.Ptr(model.RoleCarrier),
	})

	// a second instance over the same provider, e.g. after a restart
	other := s.newRegistry()
	resumed, err := other.Open(sess.ID)
	s.Require().NoError(err)

	s.NotSame(sess, resumed)
	// phone plus a role resumes past the code step
	s.Equal(model.StepProfile, resumed.Store.CurrentStep())
	s.Equal(model.RoleCarrier, resumed.Store.Data().Role)
}

func (s *RegistrySuite) TestSweepEvictsIdleSessions() {
	idle := s.registry.Create()
	idle.Store.UpdateData(model.Patch{Phone: model.Ptr("+7 (701) 123-45-67")})

	s.now = s.now.Add(45 * time.Second)
	active := s.registry.Create()

	s.now = s.now.Add(30 * time.Second)
	s.Equal(1, s.registry.Sweep(s.now))
	s.Equal(1, s.registry.Len())

	_, err := s.registry.Open(active.ID)
	s.NoError(err)

	// evicted but persisted, so it comes back
	back, err := s.registry.Open(idle.ID)
	s.Require().NoError(err)
	s.NotSame(idle, back)
	s.Equal("+7 (701) 123-45-67", back.Store.Data().Phone)
}

func (s *RegistrySuite) TestDrop() {
	sess := s.registry.Create()
	s.registry.Drop(sess.ID)
	s.Equal(0, s.registry.Len())

	_, err := s.registry.Open(sess.ID)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *RegistrySuite) TestObserverPerSession() {
	var mu sync.Mutex
	seen := map[string][]wizard.EventType{}
	registry := s.newRegistry(WithObserver(func(id string) wizard.Observer {
		return wizard.ObserverFunc(func(e wizard.Event) {
			mu.Lock()
			seen[id] = append(seen[id], e.Type)
			mu.Unlock()
		})
	}))

	sess := registry.Create()
	sess.Store.NextStep()

	s.Equal([]wizard.EventType{wizard.EventInitialized, wizard.EventStepChanged}, seen[sess.ID])
}

func (s *RegistrySuite) TestDoSerialises() {
	sess := s.registry.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Do(func() error {
				sess.Store.NextStep()
				sess.Store.PrevStep()
				return nil
			})
		}()
	}
	wg.Wait()
	s.Equal(model.StepPhone, sess.Store.CurrentStep())
}

func (s *RegistrySuite) TestRunStopsWithContext() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.registry.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("Run did not return after cancel")
	}
}

func (s *RegistrySuite) TestUnreadableRecordResumesFromDefaults() {
	oldSealer, err := encryption.NewSealer("old-secret")
	s.Require().NoError(err)
	newSealer, err := encryption.NewSealer("new-secret")
	s.Require().NoError(err)

	before := NewRegistry(storage.NewSealed(s.provider, oldSealer))
	sess := before.Create()
	sess.Store.UpdateData(model.Patch{
		Phone:         model.Ptr("+7 (701) 123-45-67"),
		TermsAccepted: model.Ptr(true),
	})

	after := NewRegistry(storage.NewSealed(s.provider, newSealer))
	got, err := after.Open(sess.ID)
	s.Require().NoError(err)
	s.Equal(model.StepPhone, got.Store.CurrentStep())
	s.Equal(model.DefaultRecord(), got.Store.Data())
}

func (s *RegistrySuite) TestSweepRunsHooks() {
	var seen []time.Time
	registry := s.newRegistry(WithSweepHook(func(now time.Time) { seen = append(seen, now) }))
	registry.Create()

	s.Zero(registry.Sweep(s.now))
	s.Equal(1, registry.Sweep(s.now.Add(2*time.Minute)))
	s.Equal([]time.Time{s.now, s.now.Add(2 * time.Minute)}, seen)
}
