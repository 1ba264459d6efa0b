package endpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/apifire/component"
	"github.com/kbukum/apifire/config"
	"github.com/kbukum/apifire/logger"
	"github.com/kbukum/apifire/session"
)

// Dispatcher runs endpoint calls. It owns the session pool, the default
// callback executor and the hooks shared by every call.
// Construct one per process and pass it to every Call.
type Dispatcher struct {
	name     string
	pool     *session.Pool
	log      *logger.Logger
	executor Executor
	queue    *SerialQueue
	hooks    []CallHooks
	tempDir  string

	inflight sync.WaitGroup
	mu       sync.RWMutex
	started  bool
	stopped  bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPool sets the session pool.
func WithPool(p *session.Pool) Option {
	return func(d *Dispatcher) { d.pool = p }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithExecutor sets the default callback executor, replacing the
// dispatcher's own serial queue.
func WithExecutor(e Executor) Option {
	return func(d *Dispatcher) { d.executor = e }
}

// WithHooks adds hooks that observe every call.
func WithHooks(h ...CallHooks) Option {
	return func(d *Dispatcher) { d.hooks = append(d.hooks, h...) }
}

// WithTempDir sets the directory downloads are staged in.
func WithTempDir(dir string) Option {
	return func(d *Dispatcher) { d.tempDir = dir }
}

// WithName sets the dispatcher name.
func WithName(name string) Option {
	return func(d *Dispatcher) { d.name = name }
}

// NewDispatcher creates a dispatcher from cfg. A nil cfg uses defaults.
// cfg is not modified.
func NewDispatcher(cfg *config.Config, opts ...Option) *Dispatcher {
	var c config.Config
	if cfg != nil {
		c = *cfg
	}
	c.ApplyDefaults()
	cfg = &c

	d := &Dispatcher{name: cfg.Name, tempDir: cfg.TempDir}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.New(&cfg.Logger, cfg.Name)
	}
	d.log = d.log.WithComponent("dispatcher")
	if d.pool == nil {
		d.pool = session.NewPool(
			session.WithDefaultTimeout(cfg.DefaultTimeout),
			session.WithLogger(d.log),
			session.WithSessionOptions(session.Options{
				UserAgent: cfg.UserAgent,
				Headers:   cfg.Headers,
				Logger:    d.log,
			}),
		)
	}
	if d.executor == nil {
		d.queue = NewSerialQueue()
		d.executor = d.queue
	}
	return d
}

// Name returns the dispatcher name.
func (d *Dispatcher) Name() string { return d.name }

// Pool returns the session pool.
func (d *Dispatcher) Pool() *session.Pool { return d.pool }

// Start marks the dispatcher as running. Calls do not require it.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return fmt.Errorf("dispatcher %s already stopped", d.name)
	}
	d.started = true
	d.log.Info("Dispatcher started", logger.Fields(
		"sessions", d.pool.Len(),
		"default_timeout", d.pool.DefaultTimeout().String(),
	))
	return nil
}

// Stop waits for in-flight calls to deliver their results, drains the
// default executor and closes idle connections. It returns ctx.Err() if ctx
// ends first. Calls made after Stop fail with errors.ErrCodeDispatcherStopped.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.mu.Unlock()

	waited := make(chan struct{})
	go func() {
		d.inflight.Wait()
		if d.queue != nil {
			d.queue.Close()
		}
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.pool.Close()
	d.log.Info("Dispatcher stopped")
	return nil
}

// Health reports whether the dispatcher accepts calls.
func (d *Dispatcher) Health(ctx context.Context) component.Health {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return component.Health{Name: d.name, Status: component.StatusUnhealthy, Message: "stopped"}
	}
	return component.Health{
		Name:    d.name,
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d sessions", d.pool.Len()),
	}
}

// Describe reports the dispatcher configuration.
func (d *Dispatcher) Describe() component.Description {
	return component.Description{
		Name: d.name,
		Type: "dispatcher",
		Details: fmt.Sprintf("sessions=%d default_timeout=%s",
			d.pool.Len(), d.pool.DefaultTimeout()),
	}
}

var (
	_ component.Component   = (*Dispatcher)(nil)
	_ component.Describable = (*Dispatcher)(nil)
)

// admit registers a call as in flight unless the dispatcher is stopped.
func (d *Dispatcher) admit() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return false
	}
	d.inflight.Add(1)
	return true
}

func (d *Dispatcher) executorFor(e *Endpoint) Executor {
	if e.Executor != nil {
		return e.Executor
	}
	return d.executor
}

func (d *Dispatcher) hooksFor(e *Endpoint) CallHooks {
	if e.Hooks == nil {
		return MultiHooks(d.hooks...)
	}
	return MultiHooks(append(append([]CallHooks(nil), d.hooks...), e.Hooks)...)
}
