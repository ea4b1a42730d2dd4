// Package gpio drives the relay outputs and reads the limit switch inputs.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/lift-controller/internal/logic"
)

// Controller is the sole owner of the five physical lines.
type Controller interface {
	// ClearRelays drives all three relay outputs low.
	ClearRelays() error

	// Activate drives the relay for d high. Callers must ClearRelays first
	// in the same operation so that at most one relay is ever energized.
	Activate(d logic.Direction) error

	// ReadLimits returns the instantaneous limit switch levels (no debounce).
	ReadLimits() (top, bottom bool, err error)

	// Levels returns the logic level of every line, for diagnostics.
	Levels() (Levels, error)

	// Close de-energizes the relays and releases GPIO resources.
	Close() error
}

// Pins holds BCM line offsets for the relays and limit switches.
type Pins struct {
	RelayUp     int
	RelayStop   int
	RelayDown   int
	LimitTop    int
	LimitBottom int
}

// Default pin assignments (BCM numbering)
const (
	DefaultPinRelayUp     = 23
	DefaultPinRelayStop   = 24
	DefaultPinRelayDown   = 25
	DefaultPinLimitTop    = 27
	DefaultPinLimitBottom = 22
)

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		RelayUp:     DefaultPinRelayUp,
		RelayStop:   DefaultPinRelayStop,
		RelayDown:   DefaultPinRelayDown,
		LimitTop:    DefaultPinLimitTop,
		LimitBottom: DefaultPinLimitBottom,
	}
}

// All returns every pin in diagnostic order.
func (p Pins) All() []int {
	return []int{p.RelayUp, p.RelayStop, p.RelayDown, p.LimitTop, p.LimitBottom}
}

// Validate rejects negative or duplicate pins.
func (p Pins) Validate() error {
	seen := make(map[int]bool, 5)
	for _, pin := range p.All() {
		if pin < 0 {
			return fmt.Errorf("invalid pin %d", pin)
		}
		if seen[pin] {
			return fmt.Errorf("pin %d assigned twice", pin)
		}
		seen[pin] = true
	}
	return nil
}

// Levels is a snapshot of raw line levels (0 or 1).
type Levels struct {
	RelayUp     int
	RelayStop   int
	RelayDown   int
	LimitTop    int
	LimitBottom int
}

func boolToLevel(b bool) int {
	if b {
		return 1
	}
	return 0
}
