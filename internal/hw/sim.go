package hw

import (
	"fmt"
	"sync"
)

// SimGPIO is an in-memory pin bank. Unwritten pins read low.
type SimGPIO struct {
	mu     sync.Mutex
	pins   []int
	levels map[int]int
}

// NewSimGPIO creates a simulated bank exposing the given pins.
func NewSimGPIO(pins []int) *SimGPIO {
	return &SimGPIO{pins: pins, levels: make(map[int]int)}
}

// Write implements GPIO.
func (g *SimGPIO) Write(pin, level int) error {
	if level != 0 && level != 1 {
		return fmt.Errorf("level must be 0 or 1, got %d", level)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = level
	return nil
}

// Read implements GPIO.
func (g *SimGPIO) Read(pin int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin], nil
}

// Pins implements GPIO.
func (g *SimGPIO) Pins() []int {
	return g.pins
}

// SimI2C reports a fixed set of device addresses.
type SimI2C struct {
	Addresses []int
}

// Scan implements I2C.
func (i *SimI2C) Scan() ([]int, error) {
	return i.Addresses, nil
}
