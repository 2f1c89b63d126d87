// Package pacing centralizes the delays inserted between simulated user actions.
package pacing

import (
	"context"
	"time"
)

// Default delays.
const (
	DefaultActionDelay = 2000 * time.Millisecond
	DefaultItemDelay   = 2000 * time.Millisecond
	DefaultSettleDelay = 3000 * time.Millisecond
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy holds the pacing rules. The zero value waits for nothing.
type Policy struct {
	// ActionDelay follows every navigation and click.
	ActionDelay time.Duration
	// ItemDelay separates two consecutive postings.
	ItemDelay time.Duration
	// SettleDelay follows a request for more listing content.
	SettleDelay time.Duration

	sleep SleepFunc
}

// NewPolicy builds a policy from the configured action delay. Typing waits
// half the action delay.
func NewPolicy(actionDelay time.Duration) *Policy {
	if actionDelay < 0 {
		actionDelay = 0
	}
	return &Policy{
		ActionDelay: actionDelay,
		ItemDelay:   DefaultItemDelay,
		SettleDelay: DefaultSettleDelay,
		sleep:       Sleep,
	}
}

// Default returns the policy with all default delays.
func Default() *Policy {
	return NewPolicy(DefaultActionDelay)
}

// None returns a policy that never waits.
func None() *Policy {
	return &Policy{sleep: Sleep}
}

// WithSleeper returns a copy of p that waits through fn.
func (p *Policy) WithSleeper(fn SleepFunc) *Policy {
	cp := *p
	cp.sleep = fn
	return &cp
}

// TypingDelay is the wait after typing into a field.
func (p *Policy) TypingDelay() time.Duration {
	return p.ActionDelay / 2
}

func (p *Policy) wait(ctx context.Context, d time.Duration) error {
	if p == nil {
		return ctx.Err()
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = Sleep
	}
	return sleep(ctx, d)
}

// AfterAction waits the action delay.
func (p *Policy) AfterAction(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.wait(ctx, p.ActionDelay)
}

// AfterTyping waits the typing delay.
func (p *Policy) AfterTyping(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.wait(ctx, p.TypingDelay())
}

// BetweenItems waits the inter-posting delay.
func (p *Policy) BetweenItems(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.wait(ctx, p.ItemDelay)
}

// AfterMore waits for newly requested listing content to render.
func (p *Policy) AfterMore(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.wait(ctx, p.SettleDelay)
}
