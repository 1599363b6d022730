package store

// subscription is a type-erased selector subscription.
type subscription[S any] struct {
	id uint64
	// check compares the selection of state with the last one seen and
	// returns the pending listener call, or nil if nothing changed.
	// Called with the store lock held.
	check func(state S) func()
}

type subscribeConfig struct {
	equality        Equality
	fireImmediately bool
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

// WithEquality selects the comparator used to detect changes.
func WithEquality(eq Equality) SubscribeOption {
	return func(c *subscribeConfig) { c.equality = eq }
}

// FireImmediately calls the listener once at subscribe time with the
// current selection as both arguments.
func FireImmediately() SubscribeOption {
	return func(c *subscribeConfig) { c.fireImmediately = true }
}

// Subscribe calls listener whenever selector(state) changes under the
// configured equality (Shallow by default). Listeners for one write run in
// subscription order, and writes are delivered in the order they were
// applied. The returned function
// removes the subscription.
func Subscribe[S Loadable[S], V any](s *Store[S], selector func(S) V, listener func(cur, prev V), opts ...SubscribeOption) (unsubscribe func()) {
	cfg := subscribeConfig{equality: Shallow}
	for _, opt := range opts {
		opt(&cfg)
	}
	return subscribe(s, selector, listener, cfg)
}

// SubscribeShallow is Subscribe with the Shallow comparator. Equality
// options are ignored.
func SubscribeShallow[S Loadable[S], V any](s *Store[S], selector func(S) V, listener func(cur, prev V), opts ...SubscribeOption) (unsubscribe func()) {
	return subscribeLocked(s, selector, listener, Shallow, opts)
}

// SubscribeStrict is Subscribe with the Strict comparator. Equality options
// are ignored.
func SubscribeStrict[S Loadable[S], V any](s *Store[S], selector func(S) V, listener func(cur, prev V), opts ...SubscribeOption) (unsubscribe func()) {
	return subscribeLocked(s, selector, listener, Strict, opts)
}

func subscribeLocked[S Loadable[S], V any](s *Store[S], selector func(S) V, listener func(cur, prev V), eq Equality, opts []SubscribeOption) func() {
	cfg := subscribeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.equality = eq
	return subscribe(s, selector, listener, cfg)
}

func subscribe[S Loadable[S], V any](s *Store[S], selector func(S) V, listener func(cur, prev V), cfg subscribeConfig) func() {
	s.mu.Lock()
	last := selector(s.state)
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, &subscription[S]{
		id: id,
		check: func(state S) func() {
			cur := selector(state)
			if cfg.equality.eq(last, cur) {
				return nil
			}
			prev := last
			last = cur
			return func() { listener(cur, prev) }
		},
	})
	current := last
	s.mu.Unlock()

	if cfg.fireImmediately {
		listener(current, current)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// collect evaluates every subscription against state. Caller holds mu.
func (s *Store[S]) collect(state S) []func() {
	var notes []func()
	for _, sub := range s.subs {
		if note := sub.check(state); note != nil {
			notes = append(notes, note)
		}
	}
	return notes
}

// dispatchLocked queues notes behind those of earlier writes and delivers
// the queue unless another call already is. Caller holds mu; it is released
// before any listener runs.
func (s *Store[S]) dispatchLocked(notes []func()) {
	s.outbox = append(s.outbox, notes...)
	if s.delivering || len(s.outbox) == 0 {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.outbox) > 0 {
		batch := s.outbox
		s.outbox = nil
		s.mu.Unlock()
		s.deliver(batch)
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

// deliver runs batch. A panicking listener stops delivery of the rest and
// hands the queue to the next writer.
func (s *Store[S]) deliver(batch []func()) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.delivering = false
			s.mu.Unlock()
			panic(r)
		}
	}()
	for _, note := range batch {
		note()
	}
}
