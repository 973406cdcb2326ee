package app

import "time"

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// Ticker is the tick source driving a Timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a tick source; tests substitute a manual one.
type TickerFactory func(d time.Duration) Ticker

type stdTicker struct {
	t *time.Ticker
}

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Timer is the session countdown. It is owned by a single session loop and is not
// safe for concurrent use.
type Timer struct {
	budget    int
	remaining int
	expired   bool
	ticker    Ticker
}

func NewTimer(budgetSeconds int) *Timer {
	if budgetSeconds < 0 {
		budgetSeconds = 0
	}
	return &Timer{budget: budgetSeconds, remaining: budgetSeconds}
}

// Start acquires a tick source. Calling Start on a running timer is a no-op.
func (t *Timer) Start(factory TickerFactory) {
	if t.ticker != nil {
		return
	}
	if factory == nil {
		factory = NewStdTicker
	}
	t.ticker = factory(TickInterval)
}

// Stop releases the tick source. It is safe to call repeatedly.
func (t *Timer) Stop() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	t.ticker = nil
}

// C returns the tick channel, or nil once stopped so a select never fires on it.
func (t *Timer) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C()
}

// Running reports whether a tick source is held.
func (t *Timer) Running() bool {
	return t.ticker != nil
}

// Tick consumes one second. It returns true exactly once, on the tick that reaches zero.
func (t *Timer) Tick() bool {
	if t.expired {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining == 0 {
		t.expired = true
		return true
	}
	return false
}

func (t *Timer) Remaining() int { return t.remaining }

func (t *Timer) Budget() int { return t.budget }

// Elapsed is the time consumed so far.
func (t *Timer) Elapsed() int { return t.budget - t.remaining }
