//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/lift-controller/internal/logic"
)

// consumer labels the requested lines in gpioinfo output.
const consumer = "lift-controller"

// RealController drives actual hardware using the Linux GPIO character device.
type RealController struct {
	chip        *gpiocdev.Chip
	pins        Pins
	relayUp     *gpiocdev.Line
	relayStop   *gpiocdev.Line
	relayDown   *gpiocdev.Line
	limitTop    *gpiocdev.Line
	limitBottom *gpiocdev.Line
}

// NewRealController opens the chip and requests all five lines. Relays start
// low; limit inputs are pulled down. Any failure releases what was acquired.
func NewRealController(chipName string, pins Pins) (*RealController, error) {
	if err := pins.Validate(); err != nil {
		return nil, fmt.Errorf("pins: %w", err)
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	c := &RealController{chip: chip, pins: pins}

	outputs := []struct {
		name string
		pin  int
		dst  **gpiocdev.Line
	}{
		{"relay up", pins.RelayUp, &c.relayUp},
		{"relay stop", pins.RelayStop, &c.relayStop},
		{"relay down", pins.RelayDown, &c.relayDown},
	}
	for _, o := range outputs {
		line, err := chip.RequestLine(o.pin, gpiocdev.AsOutput(0))
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", o.name, o.pin, err)
		}
		*o.dst = line
	}

	// Pull-down matches Pi boot defaults; an open switch reads 0.
	inputs := []struct {
		name string
		pin  int
		dst  **gpiocdev.Line
	}{
		{"top limit", pins.LimitTop, &c.limitTop},
		{"bottom limit", pins.LimitBottom, &c.limitBottom},
	}
	for _, in := range inputs {
		line, err := chip.RequestLine(in.pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", in.name, in.pin, err)
		}
		*in.dst = line
	}

	return c, nil
}

// ClearRelays drives all three relay outputs low.
func (c *RealController) ClearRelays() error {
	for _, l := range []*gpiocdev.Line{c.relayUp, c.relayStop, c.relayDown} {
		if err := l.SetValue(0); err != nil {
			return fmt.Errorf("clear relay pin %d: %w", l.Offset(), err)
		}
	}
	return nil
}

// Activate drives the relay for d high.
func (c *RealController) Activate(d logic.Direction) error {
	var line *gpiocdev.Line
	switch d {
	case logic.DirectionUp:
		line = c.relayUp
	case logic.DirectionStop:
		line = c.relayStop
	case logic.DirectionDown:
		line = c.relayDown
	default:
		return fmt.Errorf("activate: unknown direction %q", d)
	}
	if err := line.SetValue(1); err != nil {
		return fmt.Errorf("activate %s pin %d: %w", d, line.Offset(), err)
	}
	return nil
}

// ReadLimits returns the raw limit switch levels. Active high.
func (c *RealController) ReadLimits() (bool, bool, error) {
	top, err := c.limitTop.Value()
	if err != nil {
		return false, false, fmt.Errorf("read top limit pin %d: %w", c.pins.LimitTop, err)
	}
	bottom, err := c.limitBottom.Value()
	if err != nil {
		return false, false, fmt.Errorf("read bottom limit pin %d: %w", c.pins.LimitBottom, err)
	}
	return top == 1, bottom == 1, nil
}

// Levels reads back every line. Output lines report their driven value.
func (c *RealController) Levels() (Levels, error) {
	var lv Levels
	reads := []struct {
		line *gpiocdev.Line
		dst  *int
	}{
		{c.relayUp, &lv.RelayUp},
		{c.relayStop, &lv.RelayStop},
		{c.relayDown, &lv.RelayDown},
		{c.limitTop, &lv.LimitTop},
		{c.limitBottom, &lv.LimitBottom},
	}
	for _, r := range reads {
		v, err := r.line.Value()
		if err != nil {
			return Levels{}, fmt.Errorf("read pin %d: %w", r.line.Offset(), err)
		}
		*r.dst = v
	}
	return lv, nil
}

// Close de-energizes the relays, then reconfigures every line to input with
// pull-down (Pi boot default) before releasing it.
func (c *RealController) Close() error {
	var errs []error

	for _, l := range []*gpiocdev.Line{c.relayUp, c.relayStop, c.relayDown} {
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear relay pin %d: %w", l.Offset(), err))
		}
	}

	for _, l := range []*gpiocdev.Line{c.relayUp, c.relayStop, c.relayDown, c.limitTop, c.limitBottom} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", l.Offset(), err))
		}
	}

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
