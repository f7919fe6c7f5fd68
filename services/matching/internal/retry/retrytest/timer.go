// Package retrytest provides a backoff timer that fires without waiting.
package retrytest

import (
	"sync"
	"time"
)

// Timer records every requested wait and fires immediately.
type Timer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

func NewTimer() *Timer {
	return &Timer{c: make(chan time.Time, 1)}
}

func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	t.c <- time.Now()
}

func (t *Timer) Stop() {}

func (t *Timer) C() <-chan time.Time {
	return t.c
}

// Delays returns the waits requested so far.
func (t *Timer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]time.Duration, len(t.delays))
	copy(out, t.delays)
	return out
}
