package logic

// DefaultRounds is the number of rounds used when none is configured.
const DefaultRounds = 10

// RoundTracker holds the live countdown and round progress.
type RoundTracker struct {
	CurrentTime  Time
	Rounds       int
	CurrentRound int
	Running      bool

	defaultTime   Time
	defaultRounds int
}

// NewRoundTracker creates a tracker that resets to the given defaults.
// A non-positive rounds value falls back to DefaultRounds.
func NewRoundTracker(roundTime Time, rounds int) *RoundTracker {
	if rounds < 1 {
		rounds = DefaultRounds
	}
	r := &RoundTracker{
		defaultTime:   roundTime,
		defaultRounds: rounds,
	}
	r.Reset()
	return r
}

// Reset restores the configured defaults and clears the running flag.
func (r *RoundTracker) Reset() {
	r.CurrentTime = r.defaultTime
	r.Rounds = r.defaultRounds
	r.CurrentRound = 1
	r.Running = false
}

// IncrementRounds adds a round.
func (r *RoundTracker) IncrementRounds() {
	r.Rounds++
}

// DecrementRounds removes a round. There is always at least one round, and
// while running the count never drops below the round in progress.
func (r *RoundTracker) DecrementRounds() {
	floor := 1
	if r.Running {
		floor = max(r.CurrentRound, 1)
	}
	if r.Rounds <= floor {
		r.Rounds = floor
		return
	}
	r.Rounds--
	if r.CurrentRound > r.Rounds {
		r.CurrentRound = r.Rounds
	}
}

// LastRound reports whether the round in progress is the final one.
func (r *RoundTracker) LastRound() bool {
	return r.CurrentRound >= r.Rounds
}
