package gpio

import (
	"errors"
	"sync"
)

// Sample represents a single button reading (already in logical form).
type Sample struct {
	Start bool // true = pressed
	Stop  bool
	Reset bool
}

// FakeButtons is a test double that returns scripted button values.
type FakeButtons struct {
	mu sync.Mutex

	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeButtons creates a FakeButtons with the given samples.
func NewFakeButtons(samples []Sample) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButtons) Read() (bool, bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, false, false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, false, false, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.Start, s.Stop, s.Reset, nil
}

// Close marks the buttons as closed.
func (f *FakeButtons) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset rewinds to the beginning of samples.
func (f *FakeButtons) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.Closed = false
}

// LEDState is one recorded Set call.
type LEDState struct {
	Green bool
	Red   bool
}

// FakeLEDs records every state it is set to.
type FakeLEDs struct {
	mu sync.Mutex

	States   []LEDState
	SetError error
	Closed   bool
}

// Set records the requested state.
func (f *FakeLEDs) Set(green, red bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, LEDState{Green: green, Red: red})
	return nil
}

// Close marks the lights as closed.
func (f *FakeLEDs) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// History returns a copy of the recorded states.
func (f *FakeLEDs) History() []LEDState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LEDState(nil), f.States...)
}
