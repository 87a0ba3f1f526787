// Package mqtt publishes timer events to an MQTT broker, buffering messages
// while the broker is unreachable.
package mqtt

import (
	"github.com/google/uuid"
)

// Topic is the MQTT topic for timer events.
const Topic = "emom/timer/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "emom/timer/system"

// DefaultBufferSize is the number of messages kept while disconnected.
const DefaultBufferSize = 1000

// Options configures a RealPublisher.
type Options struct {
	Broker string
	// ClientID defaults to "emom-timer-" plus a random suffix, so two
	// timers on one broker don't kick each other off.
	ClientID   string
	BufferSize int
}

func (o Options) withDefaults() Options {
	if o.ClientID == "" {
		o.ClientID = "emom-timer-" + uuid.NewString()[:8]
	}
	if o.BufferSize < 1 {
		o.BufferSize = DefaultBufferSize
	}
	return o
}
