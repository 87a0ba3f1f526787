//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Board drives the button box on actual hardware using the Linux GPIO character device.
type Board struct {
	chip    *gpiocdev.Chip
	buttons *gpiocdev.Lines
	leds    *gpiocdev.Lines
}

// NewBoard requests the button and light lines on the named chip.
func NewBoard(chip string, pins Pins) (*Board, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons short to ground, so use the internal pull-up and read active low.
	buttons, err := c.RequestLines(
		[]int{pins.Start, pins.Stop, pins.Reset},
		gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow,
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request button pins %d,%d,%d: %w", pins.Start, pins.Stop, pins.Reset, err)
	}

	leds, err := c.RequestLines([]int{pins.Green, pins.Red}, gpiocdev.AsOutput(0, 0))
	if err != nil {
		buttons.Close()
		c.Close()
		return nil, fmt.Errorf("request led pins %d,%d: %w", pins.Green, pins.Red, err)
	}

	return &Board{chip: c, buttons: buttons, leds: leds}, nil
}

// Read returns the logical button states: true = pressed.
func (b *Board) Read() (bool, bool, bool, error) {
	values := make([]int, 3)
	if err := b.buttons.Values(values); err != nil {
		return false, false, false, fmt.Errorf("read buttons: %w", err)
	}
	return values[0] == 1, values[1] == 1, values[2] == 1, nil
}

// Set switches the green and red lights.
func (b *Board) Set(green, red bool) error {
	if err := b.leds.SetValues([]int{bit(green), bit(red)}); err != nil {
		return fmt.Errorf("set leds: %w", err)
	}
	return nil
}

// Close switches the lights off and releases GPIO resources.
// Lines are returned to inputs so the Pi boots with them floating.
func (b *Board) Close() error {
	var errs []error

	if b.leds != nil {
		if err := b.leds.SetValues([]int{0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("switch off leds: %w", err))
		}
		if err := b.leds.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led pins: %w", err))
		}
		if err := b.leds.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pins: %w", err))
		}
	}
	if b.buttons != nil {
		if err := b.buttons.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pins: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}

func bit(on bool) int {
	if on {
		return 1
	}
	return 0
}
