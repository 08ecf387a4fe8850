// Package session keeps one registration store per HTTP client. Sessions
// live in memory while active and are rebuilt from the persisted record
// when a client comes back after eviction or a restart.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"registration-wizard/internal/bucketing"
	"registration-wizard/internal/storage"
	"registration-wizard/internal/wizard"
)

// KeyPrefix namespaces per-session records in a shared provider
const KeyPrefix = wizard.DefaultKey + ":"

var ErrSessionNotFound = errors.New("session not found")

// Session is a store plus the lock that makes multi-step screen actions
// atomic for one client.
type Session struct {
	ID    string
	Store *wizard.Store

	mu       sync.Mutex
	lastSeen atomic.Int64
}

// Do runs fn while holding the session lock
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

type Registry struct {
	provider storage.Provider
	buckets  *bucketing.Manager
	shards   []*shard
	idle     time.Duration
	now      func() time.Time
	logger   *zap.Logger
	observer func(id string) wizard.Observer
	onSweep  []func(now time.Time)
}

type Option func(*Registry)

func WithShards(n int) Option {
	return func(r *Registry) { r.buckets = bucketing.NewManager(n) }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idle = d }
}

// WithSweepHook runs fn after every sweep, so companions holding
// per-session state can expire it on the same schedule.
func WithSweepHook(fn func(now time.Time)) Option {
	return func(r *Registry) { r.onSweep = append(r.onSweep, fn) }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithObserver attaches an observer built for each session's store
func WithObserver(fn func(id string) wizard.Observer) Option {
	return func(r *Registry) { r.observer = fn }
}

// NewRegistry stores every session under KeyPrefix+id in provider
func NewRegistry(provider storage.Provider, opts ...Option) *Registry {
	if provider == nil {
		panic("session: nil storage provider")
	}
	r := &Registry{
		provider: storage.NewPrefixed(provider, KeyPrefix),
		buckets:  bucketing.NewManager(32),
		idle:     30 * time.Minute,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.shards = make([]*shard, r.buckets.Buckets())
	for i := range r.shards {
		r.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	return r.shards[r.buckets.Bucket(id)]
}

func (r *Registry) newSession(id string) *Session {
	opts := []wizard.Option{
		wizard.WithKey(id),
		wizard.WithLogger(r.logger.With(zap.String("session_id", id))),
	}
	if r.observer != nil {
		if o := r.observer(id); o != nil {
			opts = append(opts, wizard.WithObserver(o))
		}
	}
	sess := &Session{ID: id, Store: wizard.New(r.provider, opts...)}
	sess.touch(r.now())
	return sess
}

// Create starts a new session at the phone step
func (r *Registry) Create() *Session {
	id := uuid.NewString()
	sess := r.newSession(id)
	sess.Store.Initialize()

	sh := r.shardFor(id)
	sh.mu.Lock()
	sh.sessions[id] = sess
	sh.mu.Unlock()

	r.logger.Info("registration session created", zap.String("session_id", id))
	return sess
}

// Open returns the live session for id, or rebuilds it from the persisted
// record. Ids with neither are unknown.
func (r *Registry) Open(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	sh := r.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sess, ok := sh.sessions[id]; ok {
		sess.touch(r.now())
		return sess, nil
	}

	_, ok, err := r.provider.Get(id)
	switch {
	case err != nil:
		// an unreadable record still resumes, starting over from defaults
		r.logger.Warn("failed to read saved session, resuming from defaults",
			zap.String("session_id", id), zap.Error(err))
	case !ok:
		return nil, ErrSessionNotFound
	}

	sess := r.newSession(id)
	sess.Store.Initialize()
	sh.sessions[id] = sess

	r.logger.Info("registration session resumed",
		zap.String("session_id", id),
		zap.Stringer("step", sess.Store.CurrentStep()))
	return sess, nil
}

// Drop forgets the in-memory session; persisted data is untouched
func (r *Registry) Drop(id string) {
	sh := r.shardFor(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
}

// Sweep evicts sessions idle for longer than the idle timeout and reports
// how many went.
func (r *Registry) Sweep(now time.Time) int {
	evicted := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if now.Sub(sess.LastSeen()) > r.idle {
				delete(sh.sessions, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	if evicted > 0 {
		r.logger.Debug("idle registration sessions evicted", zap.Int("count", evicted))
	}
	for _, fn := range r.onSweep {
		fn(now)
	}
	return evicted
}

// Run sweeps every interval until ctx is done
func (r *Registry) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}
