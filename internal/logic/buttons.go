package logic

import "time"

// ButtonState represents the logical state of a push button.
type ButtonState string

const (
	ButtonPressed  ButtonState = "PRESSED"
	ButtonReleased ButtonState = "RELEASED"
)

// ButtonInput represents a single sample of the control buttons.
type ButtonInput struct {
	Start bool // true = pressed (already inverted from raw GPIO)
	Stop  bool
	Reset bool
	Time  time.Time
}

// ChannelState tracks debounce state for a single button.
type ChannelState struct {
	// Current stable (debounced) state
	Stable ButtonState
	// Pending state during debounce
	Pending ButtonState
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// ButtonDetector debounces button samples into engine commands.
type ButtonDetector struct {
	debounceDuration time.Duration
	start            ChannelState
	stop             ChannelState
	reset            ChannelState
	baselined        bool
}

// NewButtonDetector creates a detector with the given debounce duration.
func NewButtonDetector(debounceDuration time.Duration) *ButtonDetector {
	return &ButtonDetector{debounceDuration: debounceDuration}
}

// Process takes a new sample and returns the commands for any debounced
// presses. Nothing is returned until every button has a stable baseline, so
// a button held down at startup does not fire.
func (d *ButtonDetector) Process(input ButtonInput) []Command {
	startPressed := d.processChannel(&d.start, buttonState(input.Start), input.Time)
	stopPressed := d.processChannel(&d.stop, buttonState(input.Stop), input.Time)
	resetPressed := d.processChannel(&d.reset, buttonState(input.Reset), input.Time)

	if !d.baselined {
		if d.start.Baselined && d.stop.Baselined && d.reset.Baselined {
			d.baselined = true
		}
		return nil
	}

	// Reset wins over start/stop pressed on the same sample.
	var cmds []Command
	if resetPressed {
		return append(cmds, CommandReset)
	}
	if stopPressed {
		cmds = append(cmds, CommandStop)
	}
	if startPressed {
		cmds = append(cmds, CommandStart)
	}
	return cmds
}

// processChannel handles debounce logic for a single button.
// Returns true if a debounced press occurred.
func (d *ButtonDetector) processChannel(ch *ChannelState, newState ButtonState, now time.Time) bool {
	// First time seeing this button
	if !ch.Baselined {
		if ch.Pending != newState {
			ch.Pending = newState
			ch.PendingSince = now
			return false
		}
		if now.Sub(ch.PendingSince) >= d.debounceDuration {
			ch.Stable = newState
			ch.Baselined = true
			ch.Pending = ""
		}
		return false
	}

	if newState == ch.Stable {
		ch.Pending = ""
		return false
	}

	if ch.Pending != newState {
		ch.Pending = newState
		ch.PendingSince = now
		return false
	}

	if now.Sub(ch.PendingSince) >= d.debounceDuration {
		ch.Stable = newState
		ch.Pending = ""
		return newState == ButtonPressed
	}
	return false
}

// IsBaselined returns whether every button has a stable baseline.
func (d *ButtonDetector) IsBaselined() bool {
	return d.baselined
}

func buttonState(pressed bool) ButtonState {
	if pressed {
		return ButtonPressed
	}
	return ButtonReleased
}
