package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Wait when the signal did not resolve in time
var ErrTimeout = errors.New("timed out waiting for player")

// Ready is a one-shot readiness signal. Resolve takes effect exactly once;
// later calls are ignored.
type Ready struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewReady creates an unresolved signal
func NewReady() *Ready {
	return &Ready{done: make(chan struct{})}
}

// Resolve marks the capability available (err == nil) or permanently
// unavailable. Reports whether this call was the one that resolved it.
func (r *Ready) Resolve(err error) bool {
	resolved := false
	r.once.Do(func() {
		r.err = err
		close(r.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the signal is resolved
func (r *Ready) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the signal resolves, ctx ends or timeout elapses.
// It returns the resolution error, ctx.Err(), or ErrTimeout.
func (r *Ready) Wait(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTimeout
	}
}

// Err returns the resolution error, or nil while unresolved
func (r *Ready) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
