// Package clock decides which calendar day is "today" and whether it
// can still change, given a timezone and the 23:59 daily close.
package clock

import (
	"fmt"
	"time"

	"github.com/kazuki326/coinboard/internal/domain/model"
)

// Daily close: from 23:59:00 local time the current day is final.
const (
	closeHour   = 23
	closeMinute = 59
)

// Policy is a pure function of wall-clock time and a timezone. It has
// no state beyond the resolved location and an injectable time source.
type Policy struct {
	loc *time.Location
	now func() time.Time
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithNow replaces the wall-clock source, for tests.
func WithNow(now func() time.Time) Option {
	return func(p *Policy) {
		if now != nil {
			p.now = now
		}
	}
}

// New resolves the timezone identifier and builds a Policy.
// An unknown identifier yields ErrBadTimezone.
func New(timezone string, opts ...Option) (*Policy, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadTimezone, timezone, err)
	}
	p := &Policy{
		loc: loc,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// CurrentDate returns today's calendar day in the policy timezone.
func (p *Policy) CurrentDate() model.Date {
	return model.DateOf(p.now().In(p.loc))
}

// IsMutable reports whether today's value can still be written. It is
// false only during the closing minute, 23:59:00 through 23:59:59.
func (p *Policy) IsMutable() bool {
	local := p.now().In(p.loc)
	return !(local.Hour() == closeHour && local.Minute() >= closeMinute)
}

// LastFinalizedDate returns the most recent day whose value can no
// longer change: yesterday while today is mutable, today afterwards.
// Ranking queries default to this date so a snapshot is never computed
// against a day that is still being edited.
func (p *Policy) LastFinalizedDate() model.Date {
	if p.IsMutable() {
		return p.CurrentDate().AddDays(-1)
	}
	return p.CurrentDate()
}
