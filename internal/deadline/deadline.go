// Package deadline decides whether orders are still accepted today.
package deadline

import (
	"time"

	"github.com/pizza-nz/lunch-bot/internal/config"
)

// Policy evaluates the daily order cutoff. The cutoff is read from a live
// config.Deadline on every call, so changes made in the Settings table take
// effect without a restart.
type Policy struct {
	deadline *config.Deadline
	loc      *time.Location
	bypass   bool
	now      func() time.Time
}

// Option configures a Policy
type Option func(*Policy)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// New creates a policy. With bypass set orders are accepted at any time.
func New(deadline *config.Deadline, loc *time.Location, bypass bool, opts ...Option) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	p := &Policy{deadline: deadline, loc: loc, bypass: bypass, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Now returns the current time in the business timezone
func (p *Policy) Now() time.Time {
	return p.now().In(p.loc)
}

// Cutoff returns the deadline instant on the day of now
func (p *Policy) Cutoff(now time.Time) time.Time {
	now = now.In(p.loc)
	hour, minute := p.deadline.Get()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, p.loc)
}

// IsPast reports whether now is strictly after today's cutoff. The cutoff
// instant itself still accepts orders.
func (p *Policy) IsPast(now time.Time) bool {
	if p.bypass {
		return false
	}
	return now.After(p.Cutoff(now))
}

// IsPastNow is IsPast at the current time
func (p *Policy) IsPastNow() bool {
	return p.IsPast(p.Now())
}

// NextDeliveryDate returns the earliest date an order placed at now can be
// delivered: tomorrow before the cutoff, the day after once it has passed.
func (p *Policy) NextDeliveryDate(now time.Time) time.Time {
	now = now.In(p.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc).AddDate(0, 0, 1)
	if p.IsPast(now) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// String returns the cutoff as HH:MM
func (p *Policy) String() string {
	return p.deadline.String()
}

// Bypassed reports whether the deadline is disabled
func (p *Policy) Bypassed() bool {
	return p.bypass
}
