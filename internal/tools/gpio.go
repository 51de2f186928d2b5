package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// maxWaitSeconds bounds the wait tool so a bad call cannot stall a
// round past the loop's patience.
const maxWaitSeconds = 30

func (r *Registry) registerGPIOTools() {
	r.Register(&Tool{
		Name:        "gpio_write",
		Description: "Set a GPIO pin high or low. Use this to control LEDs, relays, and other outputs.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pin": map[string]any{
					"type":        "integer",
					"description": "GPIO pin number",
				},
				"level": map[string]any{
					"type":        "integer",
					"description": "1 for high, 0 for low",
				},
			},
			"required": []string{"pin", "level"},
		},
		Handler: r.handleGPIOWrite,
	})

	r.Register(&Tool{
		Name:        "gpio_read",
		Description: "Read the current level of one GPIO pin.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pin": map[string]any{
					"type":        "integer",
					"description": "GPIO pin number",
				},
			},
			"required": []string{"pin"},
		},
		Handler: r.handleGPIORead,
	})

	r.Register(&Tool{
		Name:        "gpio_read_all",
		Description: "Read every available GPIO pin in one call. Prefer this over repeated gpio_read calls.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleGPIOReadAll,
	})

	r.Register(&Tool{
		Name:        "wait",
		Description: "Pause for a number of seconds before the next action, e.g. between GPIO writes when blinking.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"seconds": map[string]any{
					"type":        "integer",
					"description": fmt.Sprintf("Seconds to wait (1-%d)", maxWaitSeconds),
				},
			},
			"required": []string{"seconds"},
		},
		Handler: r.handleWait,
	})

	r.Register(&Tool{
		Name:        "i2c_scan",
		Description: "Scan the I2C bus and list responding device addresses.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleI2CScan,
	})
}

func (r *Registry) handleGPIOWrite(ctx context.Context, args map[string]any) (string, error) {
	pin, err := intArg(args, "pin")
	if err != nil {
		return "", err
	}
	level, err := intArg(args, "level")
	if err != nil {
		return "", err
	}
	if err := r.pinPolicy.Check(pin); err != nil {
		return "", err
	}
	if err := r.gpio.Write(pin, level); err != nil {
		return "", err
	}
	state := "low"
	if level == 1 {
		state = "high"
	}
	return fmt.Sprintf("OK: pin %d set %s", pin, state), nil
}

func (r *Registry) handleGPIORead(ctx context.Context, args map[string]any) (string, error) {
	pin, err := intArg(args, "pin")
	if err != nil {
		return "", err
	}
	if err := r.pinPolicy.Check(pin); err != nil {
		return "", err
	}
	level, err := r.gpio.Read(pin)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pin %d = %d", pin, level), nil
}

func (r *Registry) handleGPIOReadAll(ctx context.Context, args map[string]any) (string, error) {
	var parts []string
	for _, pin := range r.pinPolicy.PolicyPins() {
		level, err := r.gpio.Read(pin)
		if err != nil {
			return "", fmt.Errorf("read pin %d: %w", pin, err)
		}
		parts = append(parts, fmt.Sprintf("pin %d = %d", pin, level))
	}
	if len(parts) == 0 {
		return "no pins available", nil
	}
	return strings.Join(parts, ", "), nil
}

func (r *Registry) handleWait(ctx context.Context, args map[string]any) (string, error) {
	seconds, err := intArg(args, "seconds")
	if err != nil {
		return "", err
	}
	if seconds < 1 || seconds > maxWaitSeconds {
		return "", fmt.Errorf("seconds must be 1-%d", maxWaitSeconds)
	}

	timer := time.NewTimer(time.Duration(seconds) * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("waited %d seconds", seconds), nil
}

func (r *Registry) handleI2CScan(ctx context.Context, args map[string]any) (string, error) {
	addrs, err := r.i2c.Scan()
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "no I2C devices found", nil
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = fmt.Sprintf("0x%02X", a)
	}
	return fmt.Sprintf("I2C devices: %s", strings.Join(parts, ", ")), nil
}
