package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/lift-controller/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Lift          LiftJSON     `json:"lift"`
	LastCommand   string       `json:"last_command,omitempty"`
	LastCommandAt string       `json:"last_command_at,omitempty"`
	Clients       int          `json:"clients"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"command_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// LiftJSON is the wire form of logic.State, shared with the realtime channel.
type LiftJSON struct {
	Relay RelayJSON `json:"relay"`
	Limit LimitJSON `json:"limit"`
}

// RelayJSON is the wire form of logic.RelayState.
type RelayJSON struct {
	Up   bool `json:"up"`
	Stop bool `json:"stop"`
	Down bool `json:"down"`
}

// LimitJSON is the wire form of logic.LimitState.
type LimitJSON struct {
	Top    bool `json:"top"`
	Bottom bool `json:"bottom"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of command counts.
type CountsJSON struct {
	Up      int `json:"up"`
	Stop    int `json:"stop"`
	Down    int `json:"down"`
	Unknown int `json:"unknown"`
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
	HTTPAddr  string `json:"http_addr"`
	StaticDir string `json:"static_dir"`
	Chip      string `json:"chip"`
	Pins      []int  `json:"pins"`
	Broker    string `json:"broker,omitempty"`
}

// FormatLift converts a logic.State to its wire form.
func FormatLift(s logic.State) LiftJSON {
	return LiftJSON{
		Relay: RelayJSON{Up: s.Relay.Up, Stop: s.Relay.Stop, Down: s.Relay.Down},
		Limit: LimitJSON{Top: s.Limit.Top, Bottom: s.Limit.Bottom},
	}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Lift:          FormatLift(snap.State),
		LastCommand:   string(snap.LastCommand),
		Clients:       snap.Clients,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Up:      snap.Counts.Up,
			Stop:    snap.Counts.Stop,
			Down:    snap.Counts.Down,
			Unknown: snap.Counts.Unknown,
		},
		Config: ConfigJSON{
			HTTPAddr:  snap.Config.HTTPAddr,
			StaticDir: snap.Config.StaticDir,
			Chip:      snap.Config.Chip,
			Pins:      snap.Config.Pins,
			Broker:    snap.Config.Broker,
		},
	}
	if !snap.LastCommandAt.IsZero() {
		inner.LastCommandAt = snap.LastCommandAt.UTC().Format(time.RFC3339)
	}
	return inner
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

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
