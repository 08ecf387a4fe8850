package wizard

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"registration-wizard/internal/model"
	"registration-wizard/internal/storage"
)

const DefaultKey = "registration_data"

// State is a consistent snapshot of the store
type State struct {
	Data    model.Record
	Step    model.Step
	Editing bool
}

// Store owns the registration record, the current step and the editing
// flag. It is the only writer of the persisted blob.
type Store struct {
	mu        sync.Mutex
	provider  storage.Provider
	key       string
	logger    *zap.Logger
	observers []Observer

	data    model.Record
	step    model.Step
	editing bool
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// New builds a store holding defaults. Call Initialize to load persisted data.
func New(provider storage.Provider, opts ...Option) *Store {
	if provider == nil {
		panic("wizard: nil storage provider")
	}
	s := &Store{
		provider: provider,
		key:      DefaultKey,
		logger:   zap.NewNop(),
		data:     model.DefaultRecord(),
		step:     model.StepPhone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open is New followed by Initialize
func Open(provider storage.Provider, opts ...Option) *Store {
	s := New(provider, opts...)
	s.Initialize()
	return s
}

// Initialize loads the persisted record over defaults and derives the step
// from it. Unreadable data is logged and replaced by defaults.
func (s *Store) Initialize() {
	s.mu.Lock()
	s.data, s.step = s.load()
	s.editing = false
	step := s.step
	s.mu.Unlock()

	s.logger.Debug("registration store initialized", zap.Stringer("step", step))
	s.notify(Event{Type: EventInitialized, Step: step, PrevStep: step})
}

// load returns the saved record merged over defaults together with the
// resume step. The step comes from what was actually saved, so a default
// filled in for a missing field never moves the user forward.
func (s *Store) load() (model.Record, model.Step) {
	raw, ok, err := s.provider.Get(s.key)
	if err != nil {
		s.logger.Warn("failed to read saved registration data", zap.String("key", s.key), zap.Error(err))
		return model.DefaultRecord(), model.StepPhone
	}
	if !ok {
		return model.DefaultRecord(), model.StepPhone
	}

	var saved model.Record
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("failed to parse saved registration data", zap.String("key", s.key), zap.Error(err))
		return model.DefaultRecord(), model.StepPhone
	}
	rec := model.DefaultRecord()
	// saved decoded cleanly, so this cannot fail
	_ = json.Unmarshal([]byte(raw), &rec)

	if err := CheckConsistency(rec); err != nil {
		s.logger.Warn("saved registration data is inconsistent", zap.String("key", s.key), zap.Error(err))
	}
	return rec, DeriveInitialStep(saved)
}

// persist must be called with mu held. Failures are logged only.
func (s *Store) persist() {
	b, err := json.Marshal(s.data)
	if err != nil {
		s.logger.Warn("failed to encode registration data", zap.Error(err))
		return
	}
	if err := s.provider.Set(s.key, string(b)); err != nil {
		s.logger.Warn("failed to save registration data", zap.String("key", s.key), zap.Error(err))
	}
}

// UpdateData merges patch into the record and persists it. No validation.
func (s *Store) UpdateData(patch model.Patch) {
	s.mu.Lock()
	s.data = patch.Apply(s.data)
	s.persist()
	step := s.step
	s.mu.Unlock()

	s.notify(Event{Type: EventDataUpdated, Step: step, PrevStep: step, Fields: patch.Fields()})
}

// SetStep jumps to step unconditionally. Out-of-range values are ignored.
func (s *Store) SetStep(step model.Step) {
	if !step.Valid() {
		s.logger.Warn("ignoring invalid step", zap.Int("step", int(step)))
		return
	}
	s.moveTo(func(model.Step) model.Step { return step })
}

// NextStep advances one step; it does nothing at Complete
func (s *Store) NextStep() {
	s.moveTo(func(cur model.Step) model.Step {
		if cur < model.StepComplete {
			return cur + 1
		}
		return cur
	})
}

// PrevStep retreats one step; it does nothing at Phone
func (s *Store) PrevStep() {
	s.moveTo(func(cur model.Step) model.Step {
		if cur > model.StepPhone {
			return cur - 1
		}
		return cur
	})
}

func (s *Store) moveTo(next func(model.Step) model.Step) {
	s.mu.Lock()
	prev := s.step
	s.step = next(prev)
	cur := s.step
	s.mu.Unlock()

	if cur != prev {
		s.notify(Event{Type: EventStepChanged, Step: cur, PrevStep: prev})
	}
}

// Reset restores defaults and deletes the persisted blob (logout)
func (s *Store) Reset() {
	s.mu.Lock()
	prev := s.step
	s.data = model.DefaultRecord()
	s.step = model.StepPhone
	s.editing = false
	if err := s.provider.Delete(s.key); err != nil {
		s.logger.Warn("failed to delete registration data", zap.String("key", s.key), zap.Error(err))
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventReset, Step: model.StepPhone, PrevStep: prev})
}

// SetIsEditing toggles edit mode without touching the step
func (s *Store) SetIsEditing(editing bool) {
	s.mu.Lock()
	changed := s.editing != editing
	s.editing = editing
	step := s.step
	s.mu.Unlock()

	if changed {
		s.notify(Event{Type: EventEditingChanged, Step: step, PrevStep: step, Editing: editing})
	}
}

func (s *Store) Data() model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *Store) CurrentStep() model.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Store) IsEditing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Data: s.data, Step: s.step, Editing: s.editing}
}

func (s *Store) notify(e Event) {
	for _, o := range s.observers {
		o.Observe(e)
	}
}
