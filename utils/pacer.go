package utils

import (
	"context"
	"time"
)

// Pacer enforces a fixed politeness delay before every request.
// A zero delay disables waiting.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer that sleeps for delay before each call to Wait.
// A zero delay makes Wait return immediately unless ctx is already done.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Delay returns the configured delay.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Wait blocks for the configured delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
