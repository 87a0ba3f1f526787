package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Timer         TimerJSON    `json:"timer"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          BrokerStatus `json:"mqtt"`
	NATS          BrokerStatus `json:"nats"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// TimerJSON is the JSON representation of the timer view.
type TimerJSON struct {
	Display   string `json:"display"`
	Current   string `json:"current"`
	RoundTime string `json:"round_time"`
	Round     int    `json:"round"`
	Rounds    int    `json:"rounds"`
	Running   bool   `json:"running"`
	Blink     string `json:"blink"`
	Session   string `json:"session,omitempty"`
}

// BrokerStatus reports a broker connection state.
type BrokerStatus struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	URL       string `json:"url,omitempty"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Starts          int `json:"starts"`
	Stops           int `json:"stops"`
	Resets          int `json:"resets"`
	RoundsCompleted int `json:"rounds_completed"`
	Finished        int `json:"finished"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	BlinkWindow int    `json:"blink_window"`
	HTTPAddr    string `json:"http_addr"`
	GPIO        bool   `json:"gpio"`
}

func buildInner(snap Snapshot) StatusInner {
	v := snap.View
	blink := string(v.Blink)
	if blink == "" {
		blink = "NONE"
	}

	return StatusInner{
		Timer: TimerJSON{
			Display:   v.Current.Clock(),
			Current:   v.Current.String(),
			RoundTime: v.RoundTime.Clock(),
			Round:     v.Round,
			Rounds:    v.Rounds,
			Running:   v.Running,
			Blink:     blink,
			Session:   snap.Session,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: BrokerStatus{
			Enabled:   snap.Config.Broker != "",
			Connected: snap.MQTTConnected,
			URL:       snap.Config.Broker,
		},
		NATS: BrokerStatus{
			Enabled:   snap.Config.NATSURL != "",
			Connected: snap.NATSConnected,
			URL:       snap.Config.NATSURL,
		},
		Counts: CountsJSON{
			Starts:          v.Counts.Starts,
			Stops:           v.Counts.Stops,
			Resets:          v.Counts.Resets,
			RoundsCompleted: v.Counts.RoundsCompleted,
			Finished:        v.Counts.Finished,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			BlinkWindow: snap.Config.BlinkWindow,
			HTTPAddr:    snap.Config.HTTPAddr,
			GPIO:        snap.Config.GPIO,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for a system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
