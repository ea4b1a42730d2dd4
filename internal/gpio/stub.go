//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/lift-controller/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported")

// RealController is not available on non-Linux platforms.
type RealController struct{}

// NewRealController returns an error on non-Linux platforms.
func NewRealController(chipName string, pins Pins) (*RealController, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ClearRelays is not implemented on non-Linux platforms.
func (c *RealController) ClearRelays() error { return errUnsupported }

// Activate is not implemented on non-Linux platforms.
func (c *RealController) Activate(d logic.Direction) error { return errUnsupported }

// ReadLimits is not implemented on non-Linux platforms.
func (c *RealController) ReadLimits() (bool, bool, error) { return false, false, errUnsupported }

// Levels is not implemented on non-Linux platforms.
func (c *RealController) Levels() (Levels, error) { return Levels{}, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (c *RealController) Close() error {
	return nil
}
