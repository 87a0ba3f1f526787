package logic

// DefaultBlinkWindow is the number of seconds a warning cue spans.
const DefaultBlinkWindow = 3

// halfSecondTenths is the last tenths digit of the "on" half of a flash.
const halfSecondTenths = 4

// DeriveBlink computes the warning cue for the live countdown.
//
// Rounds of 2*window+1 seconds or less never blink. After round 1, the first
// window seconds of a round flash WarnStart; the last window seconds of every
// round flash WarnEnd. Only the first half of each second is lit.
func DeriveBlink(current, roundTime Time, round, window int) BlinkState {
	if window < 1 {
		window = DefaultBlinkWindow
	}

	roundSeconds := roundTime.TotalSeconds()
	if roundSeconds <= 2*window+1 {
		return BlinkNone
	}

	remaining := current.TotalSeconds()
	lit := current.Tenths <= halfSecondTenths

	if round > 1 && remaining > roundSeconds-(window+1) && remaining < roundSeconds && lit {
		return BlinkWarnStart
	}
	if remaining > 0 && remaining <= window && lit {
		return BlinkWarnEnd
	}
	return BlinkNone
}
