// Package budget tracks the work units and wall-clock time a run may spend.
package budget

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

// UnitsOfWorkPerClockCheck is how many work units pass between wall-clock
// reads. Reading the clock on every unit dominates the inner loops.
const UnitsOfWorkPerClockCheck = 100

// Clock supplies the current time. Tests substitute a controllable clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Budget bounds a single run by work units, elapsed time, or both.
//
// A Budget is shared by every stage of a run. Its work counter is atomic so
// trimming can build pruning trees concurrently against the same Budget.
//
// Thread-safety: Exceeded, WorkDone and TimeTaken are safe for concurrent use.
type Budget struct {
	clock         Clock
	ctx           context.Context
	start         time.Time
	work          atomic.Uint64
	workLimit     uint64
	hasWorkLimit  bool
	durationLimit time.Duration // zero means unlimited
}

// Option configures a Budget.
type Option func(*Budget)

// WithWorkLimit caps the number of work units.
func WithWorkLimit(units uint64) Option {
	return func(b *Budget) {
		b.workLimit = units
		b.hasWorkLimit = true
	}
}

// WithTimeLimit caps elapsed wall-clock time. The limit is rounded up to the
// next whole millisecond. Non-positive values are ignored; callers validate
// user-supplied limits before building a Budget.
func WithTimeLimit(seconds float64) Option {
	return func(b *Budget) {
		if seconds > 0 && !math.IsNaN(seconds) && !math.IsInf(seconds, 1) {
			b.durationLimit = time.Duration(math.Ceil(seconds*1000)) * time.Millisecond
		}
	}
}

// WithContext makes cancellation of ctx count as running out of time.
// Cancellation is observed at the same cadence as the clock.
func WithContext(ctx context.Context) Option {
	return func(b *Budget) {
		b.ctx = ctx
	}
}

// WithClock substitutes the time source.
func WithClock(c Clock) Option {
	return func(b *Budget) {
		b.clock = c
	}
}

// New starts a Budget. The clock starts at construction.
func New(opts ...Option) *Budget {
	b := &Budget{clock: systemClock{}}
	for _, opt := range opts {
		opt(b)
	}
	b.start = b.clock.Now()
	return b
}

// Bind attaches ctx to a Budget built without WithContext. It must be called
// before the Budget is shared between goroutines. A Budget that already has a
// context keeps it.
func (b *Budget) Bind(ctx context.Context) {
	if b.ctx == nil && ctx != nil {
		b.ctx = ctx
	}
}

// Unlimited returns a Budget that never runs out.
func Unlimited() *Budget {
	return New()
}

// Exceeded records one unit of work and reports whether a limit has been
// passed. The work limit is checked on every call; the clock and context only
// every UnitsOfWorkPerClockCheck units.
func (b *Budget) Exceeded() bool {
	done := b.work.Add(1)
	if b.hasWorkLimit && done > b.workLimit {
		return true
	}
	if done%UnitsOfWorkPerClockCheck != 0 {
		return false
	}
	if b.ctx != nil && b.ctx.Err() != nil {
		return true
	}
	return b.durationLimit > 0 && b.Elapsed() > b.durationLimit
}

// WorkDone returns the number of units recorded so far.
func (b *Budget) WorkDone() uint64 {
	return b.work.Load()
}

// Elapsed returns wall-clock time since the Budget was created.
func (b *Budget) Elapsed() time.Duration {
	return b.clock.Now().Sub(b.start)
}

// TimeTaken snapshots the work and time spent so far.
func (b *Budget) TimeTaken() TimeTaken {
	return TimeTaken{
		Work:    b.WorkDone(),
		Seconds: b.Elapsed().Seconds(),
	}
}
