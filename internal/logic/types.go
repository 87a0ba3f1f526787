// Package logic contains the pure EMOM timer engine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Wall-clock time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"time"
)

// BlinkState is the visual cue derived from the position within a round.
type BlinkState string

const (
	BlinkNone      BlinkState = "NONE"
	BlinkWarnStart BlinkState = "WARN_START"
	BlinkWarnEnd   BlinkState = "WARN_END"
)

// Command is a user (or scheduler) request to the engine.
type Command string

const (
	CommandStart            Command = "start"
	CommandStop             Command = "stop"
	CommandReset            Command = "reset"
	CommandIncrementSecond  Command = "increment_second"
	CommandDecrementSecond  Command = "decrement_second"
	CommandIncrementQuarter Command = "increment_quarter"
	CommandDecrementQuarter Command = "decrement_quarter"
	CommandIncrementMinute  Command = "increment_minute"
	CommandDecrementMinute  Command = "decrement_minute"
	CommandIncrementRound   Command = "increment_round"
	CommandDecrementRound   Command = "decrement_round"

	// CommandTick is issued by the scheduler only.
	CommandTick Command = "tick"
)

var (
	// ErrUnknownCommand is returned when a command name is not recognized.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInternalCommand is returned when an external caller issues a scheduler-only command.
	ErrInternalCommand = errors.New("command is internal to the scheduler")
)

// UserCommands lists the commands a presentation layer may issue.
var UserCommands = []Command{
	CommandStart,
	CommandStop,
	CommandReset,
	CommandIncrementSecond,
	CommandDecrementSecond,
	CommandIncrementQuarter,
	CommandDecrementQuarter,
	CommandIncrementMinute,
	CommandDecrementMinute,
	CommandIncrementRound,
	CommandDecrementRound,
}

// ParseCommand validates a command name coming from outside the engine.
func ParseCommand(name string) (Command, error) {
	cmd := Command(name)
	if cmd == CommandTick {
		return "", ErrInternalCommand
	}
	for _, c := range UserCommands {
		if c == cmd {
			return cmd, nil
		}
	}
	return "", ErrUnknownCommand
}

// EventType represents an engine transition worth publishing.
type EventType string

const (
	EventStarted       EventType = "STARTED"
	EventResumed       EventType = "RESUMED"
	EventStopped       EventType = "STOPPED"
	EventReset         EventType = "RESET"
	EventRoundStart    EventType = "ROUND_START"
	EventRoundComplete EventType = "ROUND_COMPLETE"
	EventFinished      EventType = "FINISHED"
)

// Event represents an engine transition to be published.
// Timestamp and Session are filled in by the owner of the engine.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Round     int
	Rounds    int
	Remaining Time
	Session   string
}

// EventCounts tracks the number of engine transitions since startup.
type EventCounts struct {
	Starts          int
	Stops           int
	Resets          int
	RoundsCompleted int
	Finished        int
}

// View is a read-only copy of everything a presentation layer renders.
type View struct {
	RoundTime Time
	Current   Time
	Round     int
	Rounds    int
	Running   bool
	Blink     BlinkState
	Counts    EventCounts
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
