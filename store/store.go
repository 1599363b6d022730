// Package store holds the single authoritative application state. It loads
// the persisted state once at startup, gates writes until that load has
// finished, notifies selector subscribers of changes and persists every
// accepted write in the background.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/widgetdeck/logging"
	"github.com/sirupsen/logrus"
)

// Loadable is implemented by state types carrying an "is loading" flag.
type Loadable[S any] interface {
	// WithLoading returns a copy of the state with the flag set.
	WithLoading(loading bool) S
}

// Persister loads and saves the state. LoadState returns nil when nothing
// is persisted.
type Persister[S any] interface {
	LoadState(ctx context.Context) (*S, error)
	SaveState(ctx context.Context, state S) error
}

// Options configures a Store.
type Options[S any] struct {
	Storage Persister[S]
	Initial S
	// Prepare normalizes a state before it is installed. Defaults to identity.
	Prepare func(S) S
	// Merge combines the initial state with the loaded one. Defaults to
	// returning the loaded state.
	Merge func(initial, loaded S) S
	// OnReady runs once after the loaded state is installed. The store
	// accepts writes from inside OnReady.
	OnReady func(state S)
	Logger  *logrus.Entry
	// SaveTimeout bounds each background save. Defaults to 5s.
	SaveTimeout time.Duration
}

// Store is a subscribable, persisted state container.
type Store[S Loadable[S]] struct {
	storage     Persister[S]
	initial     S
	prepare     func(S) S
	merge       func(initial, loaded S) S
	onReady     func(S)
	logger      *logrus.Entry
	saveTimeout time.Duration

	mu      sync.RWMutex
	state   S
	loaded  bool
	closed  bool
	pending []func(S) S
	subs    []*subscription[S]
	nextSub uint64

	// outbox holds listener calls in write order. One caller at a time
	// drains it; delivering is set while it does.
	outbox     []func()
	delivering bool

	saveSeq  uint64
	lastSave chan struct{}

	ready chan struct{}
}

// New creates a store and starts loading the persisted state in the
// background. Until the load completes Get returns the prepared initial
// state with the loading flag set.
func New[S Loadable[S]](opts Options[S]) *Store[S] {
	s := &Store[S]{
		storage:     opts.Storage,
		initial:     opts.Initial,
		prepare:     opts.Prepare,
		merge:       opts.Merge,
		onReady:     opts.OnReady,
		logger:      opts.Logger,
		saveTimeout: opts.SaveTimeout,
		ready:       make(chan struct{}),
	}
	if s.prepare == nil {
		s.prepare = func(state S) S { return state }
	}
	if s.merge == nil {
		s.merge = func(_, loaded S) S { return loaded }
	}
	if s.logger == nil {
		s.logger = logging.NewLogger("store")
	}
	if s.saveTimeout <= 0 {
		s.saveTimeout = 5 * time.Second
	}

	s.state = s.prepare(s.initial.WithLoading(true))

	go s.load()
	return s
}

// load runs exactly once. Backend failures are logged and treated as
// "nothing persisted".
func (s *Store[S]) load() {
	var next S
	var loaded *S
	if s.storage != nil {
		var err error
		loaded, err = s.storage.LoadState(context.Background())
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load persisted state, starting from defaults")
			loaded = nil
		}
	}
	if loaded != nil {
		next = s.merge(s.initial, *loaded)
	} else {
		next = s.initial
	}
	next = s.prepare(next).WithLoading(false)

	s.mu.Lock()
	queued := s.pending
	s.pending = nil
	for _, fn := range queued {
		next = fn(next)
	}
	s.state = next
	s.loaded = true
	notes := s.collect(next)
	if len(queued) > 0 {
		s.logger.WithField("updates", len(queued)).Debug("Replayed updates queued during load")
		s.scheduleSave(next)
	}
	s.dispatchLocked(notes)
	s.logger.WithField("restored", loaded != nil).Debug("State loaded")

	if s.onReady != nil {
		s.onReady(next)
	}
	close(s.ready)
}

// Get returns the current state.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set replaces the state, notifies subscribers whose selection changed and
// schedules a save. Listeners see writes in the order they were applied:
// when another goroutine is delivering, or Set is called from a listener,
// the notifications are handed to that delivery and Set returns without
// waiting for them. Before the initial load completes (and after Close) Set
// is a no-op and the state is dropped.
func (s *Store[S]) Set(state S) {
	s.mu.Lock()
	if !s.loaded || s.closed {
		loaded, closed := s.loaded, s.closed
		s.mu.Unlock()
		s.logger.WithField("loaded", loaded).WithField("closed", closed).Warn("Dropping state write")
		return
	}
	s.state = state
	notes := s.collect(state)
	s.scheduleSave(state)
	s.dispatchLocked(notes)
}

// Update atomically transforms the current state. Updates issued before the
// initial load completes are queued and applied, in order, on top of the
// loaded state. An update returning an unchanged state neither notifies nor
// saves.
func (s *Store[S]) Update(fn func(S) S) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("Dropping state update after close")
		return
	}
	if !s.loaded {
		s.pending = append(s.pending, fn)
		s.mu.Unlock()
		return
	}
	prev := s.state
	next := fn(prev)
	if strictEqual(prev, next) {
		s.mu.Unlock()
		return
	}
	s.state = next
	notes := s.collect(next)
	s.scheduleSave(next)
	s.dispatchLocked(notes)
}

// Ready is closed once the loaded state is installed and OnReady returned.
func (s *Store[S]) Ready() <-chan struct{} {
	return s.ready
}

// Loaded reports whether the initial load has completed.
func (s *Store[S]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Flush waits until every save scheduled so far has finished.
func (s *Store[S]) Flush(ctx context.Context) error {
	s.mu.RLock()
	last := s.lastSave
	s.mu.RUnlock()

	if last == nil {
		return nil
	}
	select {
	case <-last:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes and waits for pending saves.
func (s *Store[S]) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

// scheduleSave persists state after every previously scheduled save has
// finished. A save that has been superseded by a newer one by the time its
// turn comes is skipped. Caller holds mu.
func (s *Store[S]) scheduleSave(state S) {
	if s.storage == nil {
		return
	}

	s.saveSeq++
	seq := s.saveSeq
	prev := s.lastSave
	done := make(chan struct{})
	s.lastSave = done

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}

		s.mu.RLock()
		superseded := s.saveSeq != seq
		s.mu.RUnlock()
		if superseded {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()
		if err := s.storage.SaveState(ctx, state); err != nil {
			s.logger.WithError(err).Warn("Failed to persist state")
		}
	}()
}
