// Package status provides a thread-safe status tracker for the lift-controller daemon.
// It is read by the HTTP status endpoints and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/lift-controller/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
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
	HTTPAddr  string
	StaticDir string
	Chip      string
	Pins      []int // relay up, stop, down, limit top, bottom
	Broker    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Counts        logic.CommandCounts
	LastCommand   logic.Direction
	LastCommandAt time.Time
	Clients       int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	clients func() int
}

// NewTracker creates a Tracker with the given start time and config.
// The state starts at the controller boot state.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.InitialState(),
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// CommandApplied records a recognized command. It satisfies controller.Observer.
func (t *Tracker) CommandApplied(ev logic.CommandEvent) {
	t.mu.Lock()
	t.snap.State = ev.State
	t.snap.Counts = ev.Counts
	t.snap.LastCommand = ev.Command
	t.snap.LastCommandAt = ev.Timestamp
	t.mu.Unlock()
}

// CountsChanged records the command counters, including unknown commands.
// It satisfies controller.CountsObserver.
func (t *Tracker) CountsChanged(counts logic.CommandCounts) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetClientCounter sets the function used to fill Snapshot.Clients.
func (t *Tracker) SetClientCounter(fn func() int) {
	t.mu.Lock()
	t.clients = fn
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	clients := t.clients
	t.mu.RUnlock()
	if clients != nil {
		s.Clients = clients()
	}
	s.Now = time.Now()
	return s
}
