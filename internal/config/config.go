// Package config loads and validates experiment case descriptions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Experiment kinds.
const (
	KindST  = "ST"
	KindRCM = "RCM"
)

// Built-in ignition targets; anything else names a mechanism species.
const (
	TargetPressure    = "pressure"
	TargetTemperature = "temperature"
)

// Ignition detection types.
const (
	TypeMax           = "max"
	TypeDerivativeMax = "d/dt max"
)

// EndTimeFactor sizes the integration horizon relative to the declared
// experimental ignition delay.
const EndTimeFactor = 100.0

// VolumeHistory is an experimentally measured volume-time trace, already
// converted to seconds and relative volume units.
type VolumeHistory struct {
	Time   []float64 `yaml:"time"`
	Volume []float64 `yaml:"volume"`
}

// Case holds the physical properties of one ignition-delay experiment.
// All values are SI: seconds, Kelvin, Pascals.
type Case struct {
	ID              string             `yaml:"id"`
	Kind            string             `yaml:"kind"`
	Temperature     float64            `yaml:"temperature"`
	Pressure        float64            `yaml:"pressure"`
	Composition     map[string]float64 `yaml:"composition"`
	IgnitionTarget  string             `yaml:"ignition-target"`
	IgnitionType    string             `yaml:"ignition-type"`
	IgnitionDelay   float64            `yaml:"ignition-delay"`
	PressureRise    float64            `yaml:"pressure-rise,omitempty"`
	CompressionTime float64            `yaml:"compression-time,omitempty"`
	VolumeHistory   *VolumeHistory     `yaml:"volume-history,omitempty"`
}

// DefaultCase returns a case with the fields every experiment shares
// pre-filled; physical conditions still have to come from the case file.
func DefaultCase() *Case {
	return &Case{
		Kind:           KindST,
		IgnitionTarget: TargetPressure,
		IgnitionType:   TypeDerivativeMax,
	}
}

// Load reads a case file, applying defaults for absent fields.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultCase()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes a case file.
func Save(path string, c *Case) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EndTime returns the simulation end time in seconds.
func (c *Case) EndTime() float64 {
	return EndTimeFactor * c.IgnitionDelay
}

// HasPressureRise reports whether a facility pressure-rise rate is declared.
func (c *Case) HasPressureRise() bool { return c.PressureRise > 0 }

// HasVolumeHistory reports whether an explicit volume-time trace is present.
func (c *Case) HasVolumeHistory() bool {
	return c.VolumeHistory != nil && len(c.VolumeHistory.Time) > 0
}

// Validate surfaces every fatal misconfiguration before any integration
// work begins.
func (c *Case) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("config: case id is required")
	}
	if c.Kind != KindST && c.Kind != KindRCM {
		return fmt.Errorf("config: unknown kind %q (want %s or %s)", c.Kind, KindST, KindRCM)
	}
	if c.Temperature <= 0 {
		return fmt.Errorf("config: initial temperature must be positive, got %f", c.Temperature)
	}
	if c.Pressure <= 0 {
		return fmt.Errorf("config: initial pressure must be positive, got %f", c.Pressure)
	}
	if len(c.Composition) == 0 {
		return fmt.Errorf("config: composition is required")
	}
	total := 0.0
	for name, amount := range c.Composition {
		if amount < 0 {
			return fmt.Errorf("config: negative amount for species %q", name)
		}
		total += amount
	}
	if total <= 0 {
		return fmt.Errorf("config: composition amounts sum to zero")
	}
	if c.IgnitionTarget == "" {
		return fmt.Errorf("config: ignition target is required")
	}
	if c.IgnitionType != TypeMax && c.IgnitionType != TypeDerivativeMax {
		return fmt.Errorf("config: unknown ignition type %q", c.IgnitionType)
	}
	if c.IgnitionDelay <= 0 {
		return fmt.Errorf("config: ignition delay must be positive, got %g", c.IgnitionDelay)
	}
	if c.PressureRise < 0 {
		return fmt.Errorf("config: pressure-rise rate must be non-negative, got %g", c.PressureRise)
	}
	if c.HasPressureRise() && c.Kind != KindST {
		return fmt.Errorf("config: pressure-rise applies only to ST cases")
	}
	if c.CompressionTime != 0 && c.Kind != KindRCM {
		return fmt.Errorf("config: compression-time applies only to RCM cases")
	}
	if c.VolumeHistory != nil {
		if c.Kind != KindRCM {
			return fmt.Errorf("config: volume-history applies only to RCM cases")
		}
		if err := c.VolumeHistory.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (h *VolumeHistory) validate() error {
	if len(h.Time) != len(h.Volume) {
		return fmt.Errorf("config: volume-history lengths differ: %d times, %d volumes",
			len(h.Time), len(h.Volume))
	}
	if len(h.Time) < 3 {
		return fmt.Errorf("config: volume-history needs at least 3 samples, got %d", len(h.Time))
	}
	if h.Time[0] != 0 {
		return fmt.Errorf("config: volume-history must start at time 0, got %g", h.Time[0])
	}
	for i := 1; i < len(h.Time); i++ {
		if h.Time[i] <= h.Time[i-1] {
			return fmt.Errorf("config: volume-history times not strictly increasing at index %d", i)
		}
	}
	for i, v := range h.Volume {
		if v <= 0 {
			return fmt.Errorf("config: non-positive volume at index %d", i)
		}
	}
	return nil
}
