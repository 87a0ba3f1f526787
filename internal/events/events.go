// Package events defines how timer events leave the process: the Publisher
// interface implemented by the MQTT and NATS adapters, their JSON payloads,
// and a Queue that keeps slow brokers off the tick path.
package events

import (
	"encoding/json"
	"time"

	"github.com/sweeney/emom-timer/internal/logic"
)

// System event names.
const (
	SystemStartup   = "STARTUP"
	SystemShutdown  = "SHUTDOWN"
	SystemHeartbeat = "HEARTBEAT"
	SystemOffline   = "OFFLINE"
)

// Publisher publishes timer events to a broker.
type Publisher interface {
	// Publish sends a timer event.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether a broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted JSON; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the message body for timer events.
type Payload struct {
	Timer TimerPayload `json:"timer"`
}

// TimerPayload contains the event details.
type TimerPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Session   string `json:"session,omitempty"`
	Round     int    `json:"round"`
	Rounds    int    `json:"rounds"`
	Remaining string `json:"remaining"`
}

// FormatPayload creates the JSON payload for a timer event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Timer: TimerPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Event:     string(event.Type),
			Session:   event.Session,
			Round:     event.Round,
			Rounds:    event.Rounds,
			Remaining: event.Remaining.String(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
