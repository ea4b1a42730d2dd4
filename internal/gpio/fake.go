package gpio

import (
	"fmt"
	"sync"

	"github.com/sweeney/lift-controller/internal/logic"
)

// FakeController is an in-memory test double for the relay board.
// It is safe for concurrent use.
type FakeController struct {
	mu sync.Mutex

	relays map[logic.Direction]bool

	// Top and Bottom are the limit switch levels returned by ReadLimits.
	Top    bool
	Bottom bool

	// Calls records operations in order, e.g. "clear", "activate up", "limits".
	Calls []string

	// Overlap is set if two relays were ever high at the same time.
	Overlap bool

	// ClearError, ActivateError and ReadError, if set, are returned by the
	// matching operation.
	ClearError    error
	ActivateError error
	ReadError     error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeController creates a FakeController with all relays low.
func NewFakeController() *FakeController {
	return &FakeController{relays: make(map[logic.Direction]bool, 3)}
}

// ClearRelays drives every relay low.
func (f *FakeController) ClearRelays() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "clear")
	if f.ClearError != nil {
		return f.ClearError
	}
	for d := range f.relays {
		f.relays[d] = false
	}
	return nil
}

// Activate drives the relay for d high.
func (f *FakeController) Activate(d logic.Direction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "activate "+string(d))
	if f.ActivateError != nil {
		return f.ActivateError
	}
	if _, ok := logic.ParseDirection(string(d)); !ok {
		return fmt.Errorf("activate: unknown direction %q", d)
	}
	for other, on := range f.relays {
		if on && other != d {
			f.Overlap = true
		}
	}
	f.relays[d] = true
	return nil
}

// ReadLimits returns Top and Bottom.
func (f *FakeController) ReadLimits() (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "limits")
	if f.ReadError != nil {
		return false, false, f.ReadError
	}
	return f.Top, f.Bottom, nil
}

// Levels returns the current level of every line.
func (f *FakeController) Levels() (Levels, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "levels")
	if f.ReadError != nil {
		return Levels{}, f.ReadError
	}
	return Levels{
		RelayUp:     boolToLevel(f.relays[logic.DirectionUp]),
		RelayStop:   boolToLevel(f.relays[logic.DirectionStop]),
		RelayDown:   boolToLevel(f.relays[logic.DirectionDown]),
		LimitTop:    boolToLevel(f.Top),
		LimitBottom: boolToLevel(f.Bottom),
	}, nil
}

// Relay reports whether the relay for d is currently high.
func (f *FakeController) Relay(d logic.Direction) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.relays[d]
}

// Energized returns how many relays are currently high.
func (f *FakeController) Energized() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, on := range f.relays {
		if on {
			n++
		}
	}
	return n
}

// SetLimits sets the limit switch levels returned by subsequent reads.
func (f *FakeController) SetLimits(top, bottom bool) {
	f.mu.Lock()
	f.Top = top
	f.Bottom = bottom
	f.mu.Unlock()
}

// CallLog returns a copy of Calls.
func (f *FakeController) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// Close drives the relays low and marks the controller as closed.
func (f *FakeController) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for d := range f.relays {
		f.relays[d] = false
	}
	f.Closed = true
	return nil
}

// Reset clears recorded calls, errors and relay levels.
func (f *FakeController) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relays = make(map[logic.Direction]bool, 3)
	f.Calls = nil
	f.Overlap = false
	f.ClearError = nil
	f.ActivateError = nil
	f.ReadError = nil
	f.Closed = false
}
