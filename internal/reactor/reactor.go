// Package reactor defines the capability contracts the simulation driver
// needs from a chemical reactor model, together with a synthetic
// calorically-perfect ideal-gas implementation used for standalone runs
// and testing.
//
// The driver treats a model as an opaque stepper: it holds physical state
// and can be advanced one internal step at a time, possibly past a
// requested stop time. Everything else about the chemistry is hidden
// behind these interfaces.
package reactor

// Gas exposes the thermodynamic queries needed to derive a volume history
// from a pressure trace at constant entropy.
type Gas interface {
	// EntropyMass returns the mixture specific entropy in J/(kg K).
	EntropyMass() float64
	// Density returns the mixture density in kg/m^3.
	Density() float64
	// SetSP moves the gas to the given specific entropy and pressure at
	// frozen composition.
	SetSP(entropy, pressure float64) error
}

// Stepper advances reactor state one internal step at a time. Step may
// stop past the requested limit; callers interpolate back to the time
// they wanted.
type Stepper interface {
	Time() float64
	Temperature() float64
	Pressure() float64
	Volume() float64
	// MassFractions returns a copy of the per-species mass fractions.
	MassFractions() []float64
	// Step takes one internal integration step toward limit and returns
	// the new current time, which may exceed limit.
	Step(limit float64) (float64, error)
}

// WallVelocity dictates the motion of the reactor's moving wall. It is
// called at every internal substep and must be pure and cheap.
type WallVelocity func(t float64) float64

// Model is the full capability the driver configures before integrating.
type Model interface {
	Gas
	Stepper

	NSpecies() int
	SpeciesIndex(name string) (int, bool)
	SetWallVelocity(v WallVelocity)
	SetMaxStep(dt float64)
}
