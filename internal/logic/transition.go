package logic

// InitialState returns the boot state: stopped, limits not yet polled.
func InitialState() State {
	return State{Relay: RelayState{Stop: true}}
}

// ParseDirection maps a client action to a Direction.
// Matching is exact; "UP" or " up" are not recognized.
func ParseDirection(action string) (Direction, bool) {
	switch Direction(action) {
	case DirectionUp, DirectionStop, DirectionDown:
		return Direction(action), true
	}
	return "", false
}

// RelayFor returns the relay state with only the relay for d active.
func RelayFor(d Direction) RelayState {
	switch d {
	case DirectionUp:
		return RelayState{Up: true}
	case DirectionDown:
		return RelayState{Down: true}
	default:
		return RelayState{Stop: true}
	}
}

// Active returns the direction of the single active relay.
// Returns false if no relay or more than one relay is active.
func (r RelayState) Active() (Direction, bool) {
	n := 0
	var d Direction
	if r.Up {
		n++
		d = DirectionUp
	}
	if r.Stop {
		n++
		d = DirectionStop
	}
	if r.Down {
		n++
		d = DirectionDown
	}
	if n != 1 {
		return "", false
	}
	return d, true
}

// Apply returns the state after a recognized command has driven the relays
// and the limit switches have been read back.
func Apply(prev State, d Direction, limit LimitState) State {
	next := prev
	next.Relay = RelayFor(d)
	next.Limit = limit
	return next
}

// Count returns counts incremented for the given action.
func (c CommandCounts) Count(action string) CommandCounts {
	d, ok := ParseDirection(action)
	if !ok {
		c.Unknown++
		return c
	}
	switch d {
	case DirectionUp:
		c.Up++
	case DirectionStop:
		c.Stop++
	case DirectionDown:
		c.Down++
	}
	return c
}

// Total returns the number of commands received, recognized or not.
func (c CommandCounts) Total() int {
	return c.Up + c.Stop + c.Down + c.Unknown
}
