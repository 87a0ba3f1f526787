// Package controller owns a timer engine and drives it from a single
// goroutine. Commands, timer firings and shutdown are serialized through one
// select loop, so the engine never needs a lock.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/emom-timer/internal/logic"
)

// ErrStopped is returned by Do once Run has returned.
var ErrStopped = errors.New("controller stopped")

// Observer is notified after every state change with the new view and the
// events the change produced. Observers run on the controller goroutine and
// must not block.
type Observer interface {
	Observe(view logic.View, events []logic.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(view logic.View, events []logic.Event)

// Observe calls f.
func (f ObserverFunc) Observe(view logic.View, events []logic.Event) {
	f(view, events)
}

// Recorder receives scheduler measurements.
type Recorder interface {
	RecordTick(due int, lateness time.Duration)
	RecordResync()
	RecordCommand(cmd logic.Command)
}

type nopRecorder struct{}

func (nopRecorder) RecordTick(int, time.Duration) {}
func (nopRecorder) RecordResync()                 {}
func (nopRecorder) RecordCommand(logic.Command)   {}

// Options configures a Controller.
type Options struct {
	Observers []Observer
	Recorder  Recorder
	// NewSession returns the id attached to events of a new workout.
	// Defaults to random UUIDs.
	NewSession func() string
}

type request struct {
	cmd   logic.Command
	reply chan response
}

type response struct {
	view logic.View
	err  error
}

// Controller serializes access to an engine and its pacer.
type Controller struct {
	engine     *logic.Engine
	pacer      *logic.Pacer
	clock      clockwork.Clock
	observers  []Observer
	recorder   Recorder
	newSession func() string

	cmds chan request
	done chan struct{}

	// Owned by the Run goroutine.
	timer   clockwork.Timer
	timerC  <-chan time.Time
	session string

	mu          sync.RWMutex
	view        logic.View
	lastSession string
}

// New creates a controller. Run must be called before Do.
func New(engine *logic.Engine, pacer *logic.Pacer, clock clockwork.Clock, opts Options) *Controller {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.NewSession == nil {
		opts.NewSession = uuid.NewString
	}
	return &Controller{
		engine:     engine,
		pacer:      pacer,
		clock:      clock,
		observers:  opts.Observers,
		recorder:   opts.Recorder,
		newSession: opts.NewSession,
		cmds:       make(chan request),
		done:       make(chan struct{}),
		view:       engine.View(),
	}
}

// Run processes commands and timer firings until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.disarm()

	c.notify(c.clock.Now(), nil)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("controller stopping")
			return nil

		case req := <-c.cmds:
			view, err := c.apply(req.cmd)
			req.reply <- response{view: view, err: err}

		case <-c.timerC:
			c.fire()
		}
	}
}

// Do applies a user command and returns the resulting view. The scheduler's
// tick command is rejected.
func (c *Controller) Do(ctx context.Context, cmd logic.Command) (logic.View, error) {
	if cmd == logic.CommandTick {
		return logic.View{}, logic.ErrInternalCommand
	}

	req := request{cmd: cmd, reply: make(chan response, 1)}
	select {
	case c.cmds <- req:
	case <-c.done:
		return logic.View{}, ErrStopped
	case <-ctx.Done():
		return logic.View{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.view, resp.err
	case <-ctx.Done():
		return logic.View{}, ctx.Err()
	}
}

// Snapshot returns the view published after the most recent state change.
func (c *Controller) Snapshot() logic.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Session returns the id of the current (or last) workout, empty before the first start.
func (c *Controller) Session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSession
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) apply(cmd logic.Command) (logic.View, error) {
	wasRunning := c.engine.Running()

	evs, err := c.engine.Apply(cmd)
	if err != nil {
		log.Warn().Err(err).Str("cmd", string(cmd)).Msg("command rejected")
		return c.engine.View(), err
	}
	c.recorder.RecordCommand(cmd)

	now := c.clock.Now()
	running := c.engine.Running()
	switch {
	case !wasRunning && running:
		c.pacer.Start(now)
		c.arm(now)
	case wasRunning && !running:
		c.disarm()
		c.pacer.Stop()
	}

	log.Debug().Str("cmd", string(cmd)).Bool("running", running).Msg("command applied")
	return c.notify(now, evs), nil
}

func (c *Controller) fire() {
	c.timer = nil
	c.timerC = nil

	now := c.clock.Now()
	if !c.engine.Running() || !c.pacer.Running() {
		log.Debug().Msg("stale tick ignored")
		return
	}

	lateness := now.Sub(c.pacer.Deadline())
	resyncs := c.pacer.Resyncs()
	due := c.pacer.Fire(now)
	if c.pacer.Resyncs() != resyncs {
		c.recorder.RecordResync()
		log.Debug().Int("ticks", c.pacer.Ticks()).Int("due", due).Msg("tick count resynced to wall clock")
	}
	c.recorder.RecordTick(due, lateness)

	var evs []logic.Event
	for i := 0; i < due && c.engine.Running(); i++ {
		evs = append(evs, c.engine.Tick()...)
	}

	if !c.engine.Running() {
		c.pacer.Stop()
	}
	c.notify(now, evs)

	if c.engine.Running() {
		c.arm(now)
	}
}

// arm schedules the next firing. Only one timer is ever pending.
func (c *Controller) arm(now time.Time) {
	c.disarm()
	c.timer = c.clock.NewTimer(c.pacer.Delay(now))
	c.timerC = c.timer.Chan()
}

func (c *Controller) disarm() {
	if c.timer == nil {
		return
	}
	stopAndDrainTimer(c.timer)
	c.timer = nil
	c.timerC = nil
}

// notify stamps events, publishes the new view and calls observers.
func (c *Controller) notify(now time.Time, evs []logic.Event) logic.View {
	for i := range evs {
		if evs[i].Type == logic.EventStarted {
			c.session = c.newSession()
		}
		evs[i].Timestamp = now
		evs[i].Session = c.session
		log.Info().
			Str("event", string(evs[i].Type)).
			Int("round", evs[i].Round).
			Int("rounds", evs[i].Rounds).
			Str("remaining", evs[i].Remaining.String()).
			Msg("timer event")
	}

	view := c.engine.View()
	c.mu.Lock()
	c.view = view
	c.lastSession = c.session
	c.mu.Unlock()

	for _, o := range c.observers {
		o.Observe(view, evs)
	}
	return view
}

// stopAndDrainTimer stops a timer and drains its channel so a firing that
// raced with Stop is never observed.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
