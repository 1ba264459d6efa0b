package session

import (
	"slices"
	"sync"
	"time"

	"github.com/kbukum/apifire/logger"
)

// Factory creates the session for a timeout the pool has not seen before.
type Factory func(timeout time.Duration) Session

// Pool caches one Session per distinct timeout. Sessions are created on
// first use and kept for the pool's lifetime.
type Pool struct {
	mu             sync.Mutex
	sessions       map[time.Duration]Session
	factory        Factory
	defaultTimeout time.Duration
	log            *logger.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithFactory sets the function used to create new sessions.
func WithFactory(f Factory) PoolOption {
	return func(p *Pool) { p.factory = f }
}

// WithLogger sets the logger used to report session creation.
func WithLogger(l *logger.Logger) PoolOption {
	return func(p *Pool) { p.log = l }
}

// WithDefaultTimeout overrides the timeout of the pre-seeded session and
// the timeout used when Get is asked for a non-positive one.
func WithDefaultTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.defaultTimeout = d
		}
	}
}

// WithSessionOptions makes the pool create resty sessions with opts.
func WithSessionOptions(opts Options) PoolOption {
	return func(p *Pool) {
		p.factory = func(timeout time.Duration) Session {
			return NewRestySession(timeout, opts)
		}
	}
}

// NewPool creates a pool seeded with a session for the default timeout.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		sessions:       make(map[time.Duration]Session),
		defaultTimeout: DefaultTimeout,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.factory == nil {
		p.factory = func(timeout time.Duration) Session {
			return NewRestySession(timeout, Options{Logger: p.log})
		}
	}
	p.log = p.log.WithComponent("session-pool")

	p.sessions[p.defaultTimeout] = p.factory(p.defaultTimeout)
	return p
}

// DefaultTimeout returns the timeout of the pre-seeded session.
func (p *Pool) DefaultTimeout() time.Duration {
	return p.defaultTimeout
}

// Get returns the session for timeout, creating and registering it if
// none exists yet. Concurrent first use of a timeout creates exactly one
// session.
func (p *Pool) Get(timeout time.Duration) Session {
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sessions[timeout]; ok {
		return s
	}

	p.log.Debug("creating session", logger.Fields(logger.FieldTimeout, timeout.String()))
	s := p.factory(timeout)
	p.sessions[timeout] = s
	return s
}

// Len returns the number of sessions in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Timeouts returns the timeouts that currently have a session, ascending.
func (p *Pool) Timeouts() []time.Duration {
	p.mu.Lock()
	out := make([]time.Duration, 0, len(p.sessions))
	for d := range p.sessions {
		out = append(out, d)
	}
	p.mu.Unlock()
	slices.Sort(out)
	return out
}

// Close releases idle connections of every session. Sessions stay
// registered and usable.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		s.Close()
	}
}
