package logic

import "fmt"

// EngineConfig holds the values the engine starts with and resets to.
type EngineConfig struct {
	RoundTime   Time
	Rounds      int
	BlinkWindow int
}

// DefaultEngineConfig returns a 10 x 1:00 configuration with a 3 second blink window.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RoundTime:   DefaultRoundTime,
		Rounds:      DefaultRounds,
		BlinkWindow: DefaultBlinkWindow,
	}
}

// Engine is the EMOM countdown state machine. It is not safe for concurrent
// use; a single owner applies commands and ticks sequentially.
type Engine struct {
	cfg       EngineConfig
	roundTime Time
	tracker   *RoundTracker
	blink     BlinkState
	counts    EventCounts

	// inRound is set while a started round has not been finished, reset or
	// abandoned by an idle adjustment. Start resumes such a round.
	inRound bool
	// finished is set after the last round completes. Start begins again at round 1.
	finished bool
}

// NewEngine creates an idle engine from cfg.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Rounds < 1 {
		cfg.Rounds = DefaultRounds
	}
	if cfg.BlinkWindow < 1 {
		cfg.BlinkWindow = DefaultBlinkWindow
	}
	return &Engine{
		cfg:       cfg,
		roundTime: cfg.RoundTime,
		tracker:   NewRoundTracker(cfg.RoundTime, cfg.Rounds),
		blink:     BlinkNone,
	}
}

// Apply dispatches a command and returns the events it produced.
func (e *Engine) Apply(cmd Command) ([]Event, error) {
	switch cmd {
	case CommandStart:
		return e.Start(), nil
	case CommandStop:
		return e.Stop(), nil
	case CommandReset:
		return e.Reset(), nil
	case CommandTick:
		return e.Tick(), nil
	case CommandIncrementSecond:
		e.adjustRoundTime(func(t *Time) { t.IncrementSeconds() })
	case CommandDecrementSecond:
		maxSeconds := e.MaxSeconds()
		e.adjustRoundTime(func(t *Time) { t.DecrementSeconds(maxSeconds) })
	case CommandIncrementQuarter:
		e.adjustRoundTime(func(t *Time) { t.IncrementQuarter() })
	case CommandDecrementQuarter:
		e.adjustRoundTime(func(t *Time) { t.DecrementQuarter() })
	case CommandIncrementMinute:
		e.adjustRoundTime(func(t *Time) { t.IncrementMinutes() })
	case CommandDecrementMinute:
		e.adjustRoundTime(func(t *Time) { t.DecrementMinutes() })
	case CommandIncrementRound:
		e.tracker.IncrementRounds()
		e.refreshBlink()
	case CommandDecrementRound:
		e.tracker.DecrementRounds()
		e.refreshBlink()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return nil, nil
}

// Start begins or resumes counting. Starting a running engine, or one whose
// round time is zero, does nothing.
func (e *Engine) Start() []Event {
	if e.tracker.Running || e.roundTime.IsZero() {
		return nil
	}

	e.tracker.Running = true
	e.counts.Starts++

	if e.inRound && !e.tracker.CurrentTime.IsZero() {
		e.updateBlink()
		return []Event{e.event(EventResumed)}
	}

	if e.finished || e.tracker.CurrentRound > e.tracker.Rounds {
		e.tracker.CurrentRound = 1
	}
	e.finished = false
	e.inRound = true
	e.beginRound()
	return []Event{e.event(EventStarted), e.event(EventRoundStart)}
}

// Stop pauses counting. Stopping an idle engine does nothing.
func (e *Engine) Stop() []Event {
	if !e.tracker.Running {
		return nil
	}
	e.tracker.Running = false
	e.blink = BlinkNone
	e.counts.Stops++
	return []Event{e.event(EventStopped)}
}

// Reset stops the engine and restores the configured round time and rounds.
func (e *Engine) Reset() []Event {
	e.roundTime = e.cfg.RoundTime
	e.tracker.Reset()
	e.blink = BlinkNone
	e.inRound = false
	e.finished = false
	e.counts.Resets++
	return []Event{e.event(EventReset)}
}

// Tick advances the countdown by one tenth of a second and handles the end
// of a round. Ticks arriving while stopped are ignored.
func (e *Engine) Tick() []Event {
	if !e.tracker.Running {
		return nil
	}

	e.tracker.CurrentTime.Tick(e.MaxSeconds())
	if !e.tracker.CurrentTime.IsZero() {
		e.updateBlink()
		return nil
	}

	events := []Event{e.event(EventRoundComplete)}
	e.counts.RoundsCompleted++

	if e.tracker.LastRound() {
		e.tracker.CurrentTime = e.roundTime
		e.tracker.Running = false
		e.blink = BlinkNone
		e.inRound = false
		e.finished = true
		e.counts.Finished++
		return append(events, e.event(EventFinished))
	}

	e.tracker.CurrentRound++
	e.beginRound()
	return append(events, e.event(EventRoundStart))
}

// MaxSeconds is the seconds-per-minute ceiling used when borrowing a minute.
func (e *Engine) MaxSeconds() int {
	if e.roundTime.Minutes > 0 {
		return secondsPerMinute
	}
	return max(e.roundTime.Seconds, 1)
}

// Running reports whether the engine is counting.
func (e *Engine) Running() bool {
	return e.tracker.Running
}

// View returns a copy of the renderable state.
func (e *Engine) View() View {
	return View{
		RoundTime: e.roundTime,
		Current:   e.tracker.CurrentTime,
		Round:     e.tracker.CurrentRound,
		Rounds:    e.tracker.Rounds,
		Running:   e.tracker.Running,
		Blink:     e.blink,
		Counts:    e.counts,
	}
}

// beginRound loads the round time and counts off the first tick so a 1:00
// round is displayed from 0:59.9.
func (e *Engine) beginRound() {
	e.tracker.CurrentTime = e.roundTime
	e.tracker.CurrentTime.Tick(e.MaxSeconds())
	e.blink = BlinkNone
}

// adjustRoundTime changes the configured round time. While running the
// change applies from the next round on; while idle it replaces the live
// countdown and abandons any paused round.
func (e *Engine) adjustRoundTime(fn func(*Time)) {
	fn(&e.roundTime)
	if e.tracker.Running {
		e.updateBlink()
		return
	}
	e.tracker.CurrentTime = e.roundTime
	e.inRound = false
	e.blink = BlinkNone
}

func (e *Engine) refreshBlink() {
	if e.tracker.Running {
		e.updateBlink()
		return
	}
	e.blink = BlinkNone
}

func (e *Engine) updateBlink() {
	e.blink = DeriveBlink(e.tracker.CurrentTime, e.roundTime, e.tracker.CurrentRound, e.cfg.BlinkWindow)
}

func (e *Engine) event(t EventType) Event {
	return Event{
		Type:      t,
		Round:     e.tracker.CurrentRound,
		Rounds:    e.tracker.Rounds,
		Remaining: e.tracker.CurrentTime,
	}
}
