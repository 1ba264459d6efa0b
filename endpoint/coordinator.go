package endpoint

import "sync"

// Callback receives the result of an endpoint call.
type Callback[T any] func(Result[T])

// Coordinator fans a single result out to every registered callback.
// Callbacks run synchronously in registration order. Only the first
// Complete has any effect.
type Coordinator[T any] struct {
	mu        sync.Mutex
	callbacks []Callback[T]
	completed bool
}

// NewCoordinator creates a coordinator with cbs already registered.
// Nil callbacks are skipped.
func NewCoordinator[T any](cbs ...Callback[T]) *Coordinator[T] {
	c := &Coordinator[T]{}
	for _, cb := range cbs {
		c.Add(cb)
	}
	return c
}

// Add registers cb to run on completion. Callbacks added after Complete
// are never invoked.
func (c *Coordinator[T]) Add(cb Callback[T]) {
	if cb == nil {
		return
	}
	c.mu.Lock()
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
}

// Len returns the number of registered callbacks.
func (c *Coordinator[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.callbacks)
}

// Complete invokes every callback with r and reports whether it did so.
// Calls after the first return false without invoking anything.
func (c *Coordinator[T]) Complete(r Result[T]) bool {
	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return false
	}
	c.completed = true
	cbs := c.callbacks
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(r)
	}
	return true
}
