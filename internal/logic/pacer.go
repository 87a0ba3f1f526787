package logic

import "time"

// PacerConfig controls tick spacing and drift correction.
type PacerConfig struct {
	// Interval is the nominal time between ticks.
	Interval time.Duration
	// SyncEvery is how many counted ticks pass between wall-clock checks (0 disables).
	SyncEvery int
	// SyncThreshold is how many ticks of drift are tolerated before snapping.
	SyncThreshold int
	// Slack is subtracted from every computed delay.
	Slack time.Duration
}

// DefaultPacerConfig returns 100ms ticks, checked against the wall clock every
// 10 ticks and corrected when more than one tick off.
func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		Interval:      100 * time.Millisecond,
		SyncEvery:     10,
		SyncThreshold: 1,
	}
}

// Pacer is the deadline bookkeeping behind the tick scheduler.
// Deadlines advance from the previous target, not from the firing time, so
// per-firing jitter does not accumulate.
type Pacer struct {
	cfg      PacerConfig
	running  bool
	ticks    int
	start    time.Time
	deadline time.Time
	resyncs  int
}

// NewPacer creates an idle pacer.
func NewPacer(cfg PacerConfig) *Pacer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPacerConfig().Interval
	}
	return &Pacer{cfg: cfg}
}

// Start records now as the origin and schedules the first deadline one
// interval later. It returns false if the pacer is already running.
func (p *Pacer) Start(now time.Time) bool {
	if p.running {
		return false
	}
	p.running = true
	p.ticks = 0
	p.start = now
	p.deadline = now.Add(p.cfg.Interval)
	return true
}

// Stop clears all deadline state.
func (p *Pacer) Stop() {
	p.running = false
	p.ticks = 0
	p.start = time.Time{}
	p.deadline = time.Time{}
}

// Running reports whether a deadline is pending.
func (p *Pacer) Running() bool {
	return p.running
}

// Ticks returns the counted ticks since Start.
func (p *Pacer) Ticks() int {
	return p.ticks
}

// Resyncs returns how many times the tick count was snapped to the wall clock.
func (p *Pacer) Resyncs() int {
	return p.resyncs
}

// Deadline returns the time the next tick is due.
func (p *Pacer) Deadline() time.Time {
	return p.deadline
}

// Delay returns how long to wait from now until the next deadline, never negative.
func (p *Pacer) Delay(now time.Time) time.Duration {
	d := p.deadline.Sub(now) - p.cfg.Slack
	if d < 0 {
		return 0
	}
	return d
}

// Fire records a firing at now and returns how many ticks are due.
//
// Normally one tick is due. Every SyncEvery ticks the counted total is
// compared with the total implied by the wall clock; if they differ by more
// than SyncThreshold the count is snapped. A forward snap makes the skipped
// ticks due as well, a backward snap makes none due.
func (p *Pacer) Fire(now time.Time) int {
	if !p.running {
		return 0
	}

	before := p.ticks
	p.ticks++
	p.deadline = p.deadline.Add(p.cfg.Interval)

	if p.cfg.SyncEvery > 0 && p.ticks%p.cfg.SyncEvery == 0 {
		expected := int(now.Sub(p.start) / p.cfg.Interval)
		if abs(expected-p.ticks) > p.cfg.SyncThreshold {
			p.ticks = expected
			p.deadline = p.start.Add(time.Duration(expected+1) * p.cfg.Interval)
			p.resyncs++
		}
	}

	return max(p.ticks-before, 0)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
