// Package hw abstracts the device's GPIO and I2C access behind narrow
// interfaces so tools can run against real drivers or a simulation.
package hw

import (
	"fmt"
	"slices"
)

// GPIO is the pin access surface the tools need.
type GPIO interface {
	// Write drives a pin high (1) or low (0).
	Write(pin, level int) error
	// Read returns the current level of a pin.
	Read(pin int) (int, error)
	// Pins returns the pins this device exposes, ascending.
	Pins() []int
}

// I2C scans the bus for responding device addresses.
type I2C interface {
	Scan() ([]int, error)
}

// PinPolicy restricts which pins the model may touch. When Allowed is
// non-empty it replaces the Min/Max range.
type PinPolicy struct {
	Min     int
	Max     int
	Allowed []int
}

// Check returns an error naming the violation when pin is outside the
// policy.
func (p PinPolicy) Check(pin int) error {
	if len(p.Allowed) > 0 {
		if slices.Contains(p.Allowed, pin) {
			return nil
		}
		return fmt.Errorf("pin %d not in allowed set %v", pin, p.Allowed)
	}
	if pin < p.Min || pin > p.Max {
		return fmt.Errorf("pin %d outside safe range %d-%d", pin, p.Min, p.Max)
	}
	return nil
}

// PolicyPins returns the pins the policy permits, ascending.
func (p PinPolicy) PolicyPins() []int {
	if len(p.Allowed) > 0 {
		pins := slices.Clone(p.Allowed)
		slices.Sort(pins)
		return pins
	}
	pins := make([]int, 0, p.Max-p.Min+1)
	for pin := p.Min; pin <= p.Max; pin++ {
		pins = append(pins, pin)
	}
	return pins
}
