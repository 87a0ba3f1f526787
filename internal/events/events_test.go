package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/emom-timer/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventRoundStart,
		Round:     3,
		Rounds:    10,
		Remaining: logic.Time{Seconds: 59, Tenths: 9},
		Session:   "abc",
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Timer.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("timestamp: got %s", parsed.Timer.Timestamp)
	}
	if parsed.Timer.Event != "ROUND_START" {
		t.Errorf("event: got %s, want ROUND_START", parsed.Timer.Event)
	}
	if parsed.Timer.Round != 3 || parsed.Timer.Rounds != 10 {
		t.Errorf("round: got %d/%d, want 3/10", parsed.Timer.Round, parsed.Timer.Rounds)
	}
	if parsed.Timer.Remaining != "0:59.9" {
		t.Errorf("remaining: got %s, want 0:59.9", parsed.Timer.Remaining)
	}
	if parsed.Timer.Session != "abc" {
		t.Errorf("session: got %s, want abc", parsed.Timer.Session)
	}
}

func TestFormatPayloadOmitsEmptySession(t *testing.T) {
	payload, err := FormatPayload(logic.Event{Type: logic.EventReset, Round: 1, Rounds: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["timer"]["session"]; ok {
		t.Error("session should be omitted when empty")
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     SystemShutdown,
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("event: got %s, want SHUTDOWN", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("reason: got %s, want SIGTERM", parsed.System.Reason)
	}
	if parsed.System.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("timestamp: got %s", parsed.System.Timestamp)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: SystemStartup, RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("got %s, want %s", payload, raw)
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(logic.Event{Type: logic.EventStarted}); err == nil {
		t.Error("expected error")
	}
	if len(f.Events) != 0 {
		t.Errorf("expected no events recorded on error, got %d", len(f.Events))
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Type: logic.EventStarted})
	f.PublishSystem(SystemEvent{Event: SystemStartup})
	f.Close()
	f.Reset()

	if len(f.Events) != 0 || len(f.SystemEvents) != 0 || f.Closed {
		t.Errorf("reset did not clear state: %+v", f)
	}
}
