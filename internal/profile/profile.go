// Package profile builds the wall-velocity function of time that makes the
// reactor's moving wall reproduce an experimentally observed volume or
// pressure evolution.
package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ignition/internal/numerics"
	"github.com/san-kum/ignition/internal/reactor"
)

// SampleFrequency is the pressure sampling rate used when deriving a
// volume history from a pressure-rise rate.
const SampleFrequency = 2.0e4 // Hz

// VolumeProfile holds a sampled wall-velocity history. It is immutable
// after construction; queries interpolate linearly and return zero outside
// the sampled range.
type VolumeProfile struct {
	times    []float64
	velocity []float64
}

// FromHistory builds a profile from an explicit volume-time history in
// seconds. Volumes are normalized by the first sample so a unit wall area
// converts the volume derivative directly into velocity.
func FromHistory(times, volumes []float64) (*VolumeProfile, error) {
	if len(times) != len(volumes) {
		return nil, fmt.Errorf("profile: history lengths differ: %d times, %d volumes",
			len(times), len(volumes))
	}
	if len(times) < 3 {
		return nil, fmt.Errorf("profile: need at least 3 history samples, got %d", len(times))
	}
	if times[0] != 0 {
		return nil, fmt.Errorf("profile: history must start at time 0, got %g", times[0])
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("profile: history times not strictly increasing at index %d", i)
		}
	}
	if volumes[0] == 0 {
		return nil, fmt.Errorf("profile: first volume sample is zero")
	}

	norm := make([]float64, len(volumes))
	copy(norm, volumes)
	floats.Scale(1/volumes[0], norm)

	vel, err := numerics.FirstDerivative(times, norm)
	if err != nil {
		return nil, err
	}

	t := make([]float64, len(times))
	copy(t, times)
	return &VolumeProfile{times: t, velocity: vel}, nil
}

// FromPressureRise derives a profile from a constant fractional
// pressure-rise rate (1/s). Pressure follows P(t) = P0 (rate t + 1),
// sampled at SampleFrequency over [0, timeEnd]; each sample is mapped to a
// volume ratio by holding entropy at its initial value and querying the
// gas density at the sampled pressure. This emulates the isentropic
// facility-effect model of Chaos and Dryer (Int J Chem Kinet 2010).
// The gas is left at the final sampled state; pass a dedicated instance.
func FromPressureRise(gas reactor.Gas, initPres, rate, timeEnd float64) (*VolumeProfile, error) {
	if initPres <= 0 {
		return nil, fmt.Errorf("profile: initial pressure must be positive, got %g", initPres)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("profile: pressure-rise rate must be positive, got %g", rate)
	}
	if timeEnd <= 0 {
		return nil, fmt.Errorf("profile: end time must be positive, got %g", timeEnd)
	}

	times, pressures := sampleRisingPressure(timeEnd, initPres, SampleFrequency, rate)

	entropy := gas.EntropyMass()
	rho0 := gas.Density()

	volumes := make([]float64, len(pressures))
	for i, p := range pressures {
		if err := gas.SetSP(entropy, p); err != nil {
			return nil, fmt.Errorf("profile: SP query at t=%g: %w", times[i], err)
		}
		volumes[i] = rho0 / gas.Density()
	}

	return FromHistory(times, volumes)
}

// sampleRisingPressure samples the linear pressure law on a uniform grid
// covering [0, timeEnd].
func sampleRisingPressure(timeEnd, initPres, freq, rate float64) ([]float64, []float64) {
	n := int(math.Ceil(timeEnd*freq)) + 1
	times := floats.Span(make([]float64, n), 0, float64(n-1)/freq)

	pressures := make([]float64, n)
	for i, t := range times {
		pressures[i] = initPres * (rate*t + 1)
	}
	return times, pressures
}

// Velocity returns the interpolated wall velocity at time t, zero outside
// the sampled range. O(log n), no side effects; safe to call from
// integrator substeps.
func (p *VolumeProfile) Velocity(t float64) float64 {
	return numerics.Interp(t, p.times, p.velocity, 0, 0)
}

// MinSpacing returns the smallest gap between consecutive sample times,
// used to bound the integrator step so no profile detail is skipped.
func (p *VolumeProfile) MinSpacing() float64 {
	diffs := make([]float64, len(p.times)-1)
	for i := range diffs {
		diffs[i] = p.times[i+1] - p.times[i]
	}
	return floats.Min(diffs)
}
