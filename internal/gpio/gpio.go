// Package gpio provides the button box and warning lights with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import (
	"github.com/rs/zerolog/log"

	"github.com/sweeney/emom-timer/internal/logic"
)

// Buttons reads the momentary push buttons.
type Buttons interface {
	// Read returns the logical states of the buttons: true = pressed.
	// Buttons pull the line low when pressed.
	Read() (start, stop, reset bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// LEDs drives the warning lights.
type LEDs interface {
	// Set switches the green and red lights.
	Set(green, red bool) error

	// Close switches the lights off and releases GPIO resources.
	Close() error
}

// Pins holds line offsets (BCM numbering).
type Pins struct {
	Start int
	Stop  int
	Reset int
	Green int
	Red   int
}

// LEDObserver mirrors the warning cue onto the lights:
// green for the start of a round, red for its end.
type LEDObserver struct {
	leds  LEDs
	green bool
	red   bool
	set   bool
}

// NewLEDObserver creates an observer driving leds.
func NewLEDObserver(leds LEDs) *LEDObserver {
	return &LEDObserver{leds: leds}
}

// Observe updates the lights when the cue changes.
func (o *LEDObserver) Observe(view logic.View, _ []logic.Event) {
	green := view.Blink == logic.BlinkWarnStart
	red := view.Blink == logic.BlinkWarnEnd
	if o.set && green == o.green && red == o.red {
		return
	}
	if err := o.leds.Set(green, red); err != nil {
		log.Error().Err(err).Msg("set leds")
		return
	}
	o.green, o.red, o.set = green, red, true
}
