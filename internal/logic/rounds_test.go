package logic

import "testing"

func TestNewRoundTracker(t *testing.T) {
	r := NewRoundTracker(Time{Seconds: 45}, 8)
	if r.CurrentTime != (Time{Seconds: 45}) {
		t.Errorf("CurrentTime: got %v, want 0:45", r.CurrentTime)
	}
	if r.Rounds != 8 {
		t.Errorf("Rounds: got %d, want 8", r.Rounds)
	}
	if r.CurrentRound != 1 {
		t.Errorf("CurrentRound: got %d, want 1", r.CurrentRound)
	}
	if r.Running {
		t.Error("new tracker should not be running")
	}
}

func TestNewRoundTrackerDefaultRounds(t *testing.T) {
	r := NewRoundTracker(DefaultRoundTime, 0)
	if r.Rounds != DefaultRounds {
		t.Errorf("Rounds: got %d, want %d", r.Rounds, DefaultRounds)
	}
}

func TestRoundTrackerReset(t *testing.T) {
	r := NewRoundTracker(DefaultRoundTime, DefaultRounds)
	r.CurrentTime = Time{Minutes: 2, Seconds: 30}
	r.Rounds = 15
	r.CurrentRound = 5
	r.Running = true

	r.Reset()

	if r.CurrentTime != (Time{Minutes: 1}) {
		t.Errorf("CurrentTime: got %v, want 1:00", r.CurrentTime)
	}
	if r.Rounds != DefaultRounds {
		t.Errorf("Rounds: got %d, want %d", r.Rounds, DefaultRounds)
	}
	if r.CurrentRound != 1 {
		t.Errorf("CurrentRound: got %d, want 1", r.CurrentRound)
	}
	if r.Running {
		t.Error("should not be running after reset")
	}
}

func TestIncrementRounds(t *testing.T) {
	r := NewRoundTracker(DefaultRoundTime, 15)
	r.IncrementRounds()
	if r.Rounds != 16 {
		t.Errorf("got %d, want 16", r.Rounds)
	}
}

func TestDecrementRounds(t *testing.T) {
	r := NewRoundTracker(DefaultRoundTime, 15)
	r.DecrementRounds()
	if r.Rounds != 14 {
		t.Errorf("got %d, want 14", r.Rounds)
	}

	r.Rounds = 1
	r.DecrementRounds()
	if r.Rounds != 1 {
		t.Errorf("floor: got %d, want 1", r.Rounds)
	}
}

func TestDecrementRoundsWhileRunningKeepsCurrentRound(t *testing.T) {
	r := NewRoundTracker(DefaultRoundTime, 5)
	r.Running = true
	r.CurrentRound = 4

	r.DecrementRounds()
	if r.Rounds != 4 {
		t.Errorf("got %d, want 4", r.Rounds)
	}
	r.DecrementRounds()
	if r.Rounds != 4 {
		t.Errorf("below current round: got %d, want 4", r.Rounds)
	}
}

func TestDecrementRoundsWhileIdleClampsCurrentRound(t *testing.T) {
	r := NewRoundTracker(DefaultRoundTime, 5)
	r.CurrentRound = 5

	r.DecrementRounds()
	if r.Rounds != 4 {
		t.Errorf("Rounds: got %d, want 4", r.Rounds)
	}
	if r.CurrentRound != 4 {
		t.Errorf("CurrentRound: got %d, want 4", r.CurrentRound)
	}
}
