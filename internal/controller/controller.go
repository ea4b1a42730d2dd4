// Package controller owns the shared lift State and the hardware handle.
// It turns client commands into relay writes and publishes the result to
// every connected session through a Fanout.
package controller

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/lift-controller/internal/gpio"
	"github.com/sweeney/lift-controller/internal/logic"
)

// Event names on the realtime channel.
type Event string

const (
	EventCommand Event = "command"
	EventStatus  Event = "status"
	EventLog     Event = "log"
)

// ConfirmationLine is broadcast after every recognized command.
const ConfirmationLine = "Server responded: OK"

// Message is a single server-to-client event.
type Message struct {
	Event Event
	State logic.State // EventStatus only
	Text  string      // EventLog only
}

// StatusMessage wraps s as a status event.
func StatusMessage(s logic.State) Message {
	return Message{Event: EventStatus, State: s}
}

// LogMessage wraps text as a log event.
func LogMessage(text string) Message {
	return Message{Event: EventLog, Text: text}
}

// Session is one connected client. Send must not block.
type Session interface {
	Send(msg Message)
}

// Fanout delivers messages to every registered session.
type Fanout interface {
	Add(s Session)
	Remove(s Session)
	Broadcast(msg Message)
}

// Observer is notified after every recognized command. It is called with the
// controller lock held and must not call back into the Controller.
type Observer interface {
	CommandApplied(ev logic.CommandEvent)
}

// CountsObserver is an optional Observer extension. CountsChanged runs for
// every received command, recognized or not, before any hardware access.
type CountsObserver interface {
	CountsChanged(counts logic.CommandCounts)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev logic.CommandEvent)

// CommandApplied calls f(ev).
func (f ObserverFunc) CommandApplied(ev logic.CommandEvent) { f(ev) }

// Controller serializes every command: at most one is in flight and relay
// writes never interleave.
type Controller struct {
	mu        sync.Mutex
	hw        gpio.Controller
	pins      gpio.Pins
	out       Fanout
	state     logic.State
	counts    logic.CommandCounts
	observers []Observer
	now       func() time.Time
}

// New creates a Controller in the boot state (stopped, limits unpolled).
// The hardware is not touched until the first command.
func New(hw gpio.Controller, pins gpio.Pins, out Fanout) *Controller {
	return &Controller{
		hw:    hw,
		pins:  pins,
		out:   out,
		state: logic.InitialState(),
		now:   time.Now,
	}
}

// SetClock replaces the time source used for command events.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// AddObserver registers o for command events.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// State returns a copy of the current state.
func (c *Controller) State() logic.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Counts returns a copy of the command counters.
func (c *Controller) Counts() logic.CommandCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts
}

// Connect registers s with the fanout and sends it the current state.
// Both happen under the command lock, so s always sees its initial status
// before any broadcast.
func (c *Controller) Connect(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.out.Add(s)
	s.Send(StatusMessage(c.state))
}

// Disconnect removes s from the fanout.
func (c *Controller) Disconnect(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.out.Remove(s)
}

// HandleCommand applies a client action.
//
// Relays are always cleared first. A recognized action then energizes its
// relay, re-reads the limits and broadcasts diagnostics, status and a
// confirmation to every session. An unrecognized action stops there: the
// relays stay de-energized, State.Relay keeps its previous value, and only
// the sender gets a warning.
func (c *Controller) HandleCommand(sender Session, action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log.Printf("command: received %q", action)
	c.counts = c.counts.Count(action)
	for _, o := range c.observers {
		if co, ok := o.(CountsObserver); ok {
			co.CountsChanged(c.counts)
		}
	}

	if err := c.hw.ClearRelays(); err != nil {
		return c.hardwareError(sender, err)
	}

	d, ok := logic.ParseDirection(action)
	if !ok {
		log.Printf("command: unknown %q, relays left cleared", action)
		sender.Send(LogMessage("Unknown command: " + action))
		return nil
	}

	if err := c.hw.Activate(d); err != nil {
		return c.hardwareError(sender, err)
	}
	log.Printf("command: relay %s energized", d)

	top, bottom, err := c.hw.ReadLimits()
	if err != nil {
		return c.hardwareError(sender, err)
	}
	lv, err := c.hw.Levels()
	if err != nil {
		return c.hardwareError(sender, err)
	}

	c.state = logic.Apply(c.state, d, logic.LimitState{Top: top, Bottom: bottom})

	for _, line := range DiagnosticLines(c.pins, lv) {
		c.out.Broadcast(LogMessage(line))
	}
	c.out.Broadcast(StatusMessage(c.state))
	c.out.Broadcast(LogMessage(ConfirmationLine))

	ev := logic.CommandEvent{
		Timestamp: c.now(),
		Command:   d,
		State:     c.state,
		Counts:    c.counts,
	}
	for _, o := range c.observers {
		o.CommandApplied(ev)
	}
	return nil
}

// HandleRaw applies a command whose action is not a JSON string. It is always
// unrecognized; the raw JSON text is echoed in the warning.
func (c *Controller) HandleRaw(sender Session, action json.RawMessage) error {
	text := string(action)
	if len(action) == 0 {
		text = "None"
	}
	return c.HandleCommand(sender, text)
}

func (c *Controller) hardwareError(sender Session, err error) error {
	log.Printf("command: hardware error: %v", err)
	sender.Send(LogMessage("Hardware error: " + err.Error()))
	return fmt.Errorf("hardware: %w", err)
}

// DiagnosticLines renders one line per physical pin with its logic level.
func DiagnosticLines(p gpio.Pins, lv gpio.Levels) []string {
	return []string{
		fmt.Sprintf("GPIO %d relay up -> %d", p.RelayUp, lv.RelayUp),
		fmt.Sprintf("GPIO %d relay stop -> %d", p.RelayStop, lv.RelayStop),
		fmt.Sprintf("GPIO %d relay down -> %d", p.RelayDown, lv.RelayDown),
		fmt.Sprintf("GPIO %d top limit -> %d", p.LimitTop, lv.LimitTop),
		fmt.Sprintf("GPIO %d bottom limit -> %d", p.LimitBottom, lv.LimitBottom),
	}
}
