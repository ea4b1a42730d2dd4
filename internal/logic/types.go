// Package logic contains the pure command-to-relay state machine.
// This package has NO external dependencies (no GPIO, network, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Direction is a relay command understood by the controller.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionStop Direction = "stop"
	DirectionDown Direction = "down"
)

// Directions lists every recognized direction in relay wiring order.
var Directions = []Direction{DirectionUp, DirectionStop, DirectionDown}

// RelayState holds the three relay flags. At most one is true.
type RelayState struct {
	Up   bool
	Stop bool
	Down bool
}

// LimitState mirrors the two limit switch inputs. No constraint between them.
type LimitState struct {
	Top    bool
	Bottom bool
}

// State is the single shared record broadcast to clients.
type State struct {
	Relay RelayState
	Limit LimitState
}

// CommandCounts tracks the number of commands of each kind since startup.
type CommandCounts struct {
	Up      int
	Stop    int
	Down    int
	Unknown int
}

// CommandEvent describes a recognized command after it has been applied.
type CommandEvent struct {
	Timestamp time.Time
	Command   Direction
	State     State
	Counts    CommandCounts
}
