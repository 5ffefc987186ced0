package cyberservice

import (
	"sync"
	"time"
)

// StopSignal is a single-shot signal that indicates a stop was requested.
// It starts unset and, once set, stays set. It is safe for concurrent use.
type StopSignal struct {
	once sync.Once
	c    chan struct{}
}

// NewStopSignal returns an unset StopSignal.
func NewStopSignal() *StopSignal {
	return &StopSignal{
		c: make(chan struct{}),
	}
}

// Set sets the signal, releasing all waiters. Setting it again has no
// effect.
func (o *StopSignal) Set() {
	o.once.Do(func() {
		close(o.c)
	})
}

// IsSet reports whether the signal has been set without blocking.
func (o *StopSignal) IsSet() bool {
	select {
	case <-o.c:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal is set.
func (o *StopSignal) Wait() {
	<-o.c
}

// WaitTimeout blocks until the signal is set or timeout elapses. It reports
// whether the signal is set.
func (o *StopSignal) WaitTimeout(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-o.c:
		return true
	case <-t.C:
		return o.IsSet()
	}
}

// Done returns a channel that is closed when the signal is set.
func (o *StopSignal) Done() <-chan struct{} {
	return o.c
}
