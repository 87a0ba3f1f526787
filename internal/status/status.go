// Package status provides a thread-safe status tracker for the emom-timer daemon.
// It is read by HTTP handlers and system events.
package status

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/emom-timer/internal/logic"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	BlinkWindow int
	Broker      string
	NATSURL     string
	HTTPAddr    string
	GPIO        bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	View          logic.View
	Session       string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	NATSConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	clock clockwork.Clock

	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker started at clock.Now().
func NewTracker(clock clockwork.Clock, cfg Config) *Tracker {
	return &Tracker{
		clock: clock,
		snap: Snapshot{
			StartTime: clock.Now(),
			Config:    cfg,
		},
	}
}

// Observe records the latest timer view and the session of any events.
// Called by the controller after every change.
func (t *Tracker) Observe(view logic.View, evs []logic.Event) {
	t.mu.Lock()
	t.snap.View = view
	for _, e := range evs {
		if e.Session != "" {
			t.snap.Session = e.Session
		}
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNATSConnected sets the NATS connection status.
func (t *Tracker) SetNATSConnected(connected bool) {
	t.mu.Lock()
	t.snap.NATSConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set from the clock at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
