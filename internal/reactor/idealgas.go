package reactor

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for reactor stepping.
var (
	// ErrInvalidState indicates the integrator produced NaN/Inf or a
	// non-physical temperature or volume.
	ErrInvalidState = errors.New("reactor: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates error control drove the step below the
	// resolvable minimum.
	ErrStepTooSmall = errors.New("reactor: adaptive step below minimum")
)

const (
	initialStep = 1.0e-9
	minStep     = 1.0e-15
	stepTol     = 1.0e-6
	maxRetries  = 30
)

// IdealGas is a constant-mass ideal-gas reactor with a single global
// reaction and a moving wall of unit area. Temperature, volume and the
// mass-fraction vector form the ODE state; pressure follows from the
// ideal-gas law. The gas is calorically perfect: cp is frozen at the
// initial composition, which makes the entropy-pressure queries used by
// the pressure-rise profile exact.
type IdealGas struct {
	mech             *Mechanism
	fuel, oxid, prod int

	mass  float64 // kg, fixed
	rspec float64 // specific gas constant, J/(kg K)
	cp    float64
	cv    float64

	t    float64
	temp float64
	vol  float64
	y    []float64

	wall    WallVelocity
	maxStep float64
	h       float64
	integ   *rk45
}

// New builds a reactor at the given initial temperature (K), pressure (Pa)
// and molar composition. Composition keys must name mechanism species;
// amounts are relative mole numbers.
func New(mech *Mechanism, temp, pres float64, composition map[string]float64) (*IdealGas, error) {
	if temp <= 0 || pres <= 0 {
		return nil, fmt.Errorf("reactor: non-physical initial state T=%g P=%g", temp, pres)
	}

	y := make([]float64, len(mech.Species))
	totalMass := 0.0
	for name, moles := range composition {
		i, ok := mech.SpeciesIndex(name)
		if !ok {
			return nil, fmt.Errorf("reactor: unknown species %q in composition", name)
		}
		y[i] = moles * mech.Species[i].W
		totalMass += y[i]
	}
	if totalMass <= 0 {
		return nil, fmt.Errorf("reactor: empty composition")
	}
	for i := range y {
		y[i] /= totalMass
	}

	invW := 0.0
	for i, sp := range mech.Species {
		invW += y[i] / sp.W
	}
	rspec := GasConstant * invW
	cp := mech.Gamma * rspec / (mech.Gamma - 1)

	fuel, ok := mech.SpeciesIndex(mech.Fuel)
	if !ok {
		return nil, fmt.Errorf("reactor: mechanism fuel %q not in species list", mech.Fuel)
	}
	oxid, ok := mech.SpeciesIndex(mech.Oxidizer)
	if !ok {
		return nil, fmt.Errorf("reactor: mechanism oxidizer %q not in species list", mech.Oxidizer)
	}
	prod, ok := mech.SpeciesIndex(mech.Product)
	if !ok {
		return nil, fmt.Errorf("reactor: mechanism product %q not in species list", mech.Product)
	}

	const vol0 = 1.0 // m^3
	rho0 := pres / (rspec * temp)

	return &IdealGas{
		mech:  mech,
		fuel:  fuel,
		oxid:  oxid,
		prod:  prod,
		mass:  rho0 * vol0,
		rspec: rspec,
		cp:    cp,
		cv:    cp - rspec,
		temp:  temp,
		vol:   vol0,
		y:     y,
		wall:  func(float64) float64 { return 0 },
		h:     initialStep,
		integ: newRK45(),
	}, nil
}

func (g *IdealGas) Time() float64        { return g.t }
func (g *IdealGas) Temperature() float64 { return g.temp }
func (g *IdealGas) Volume() float64      { return g.vol }
func (g *IdealGas) NSpecies() int        { return len(g.y) }

func (g *IdealGas) Pressure() float64 {
	return g.mass * g.rspec * g.temp / g.vol
}

func (g *IdealGas) Density() float64 {
	return g.mass / g.vol
}

func (g *IdealGas) MassFractions() []float64 {
	y := make([]float64, len(g.y))
	copy(y, g.y)
	return y
}

// SpeciesIndex resolves a species name against the mechanism.
func (g *IdealGas) SpeciesIndex(name string) (int, bool) {
	return g.mech.SpeciesIndex(name)
}

// SetWallVelocity installs the wall-velocity callback. A nil v restores
// the constant-volume wall.
func (g *IdealGas) SetWallVelocity(v WallVelocity) {
	if v == nil {
		v = func(float64) float64 { return 0 }
	}
	g.wall = v
}

// SetMaxStep bounds the internal integrator step. Zero removes the bound.
func (g *IdealGas) SetMaxStep(dt float64) { g.maxStep = dt }

// EntropyMass returns the specific entropy up to a composition-dependent
// constant, which cancels in the SetSP inversion.
func (g *IdealGas) EntropyMass() float64 {
	return g.cp*math.Log(g.temp) - g.rspec*math.Log(g.Pressure())
}

// SetSP moves the gas to the given entropy and pressure at frozen
// composition, adjusting volume so the ideal-gas law holds.
func (g *IdealGas) SetSP(entropy, pressure float64) error {
	if pressure <= 0 {
		return fmt.Errorf("reactor: non-positive pressure %g in SP query", pressure)
	}
	g.temp = math.Exp((entropy + g.rspec*math.Log(pressure)) / g.cp)
	g.vol = g.mass * g.rspec * g.temp / pressure
	return nil
}

// state vector layout: [T, V, Y0..Yn-1]
func (g *IdealGas) pack() []float64 {
	x := make([]float64, 2+len(g.y))
	x[0] = g.temp
	x[1] = g.vol
	copy(x[2:], g.y)
	return x
}

func (g *IdealGas) unpack(x []float64) {
	g.temp = x[0]
	g.vol = x[1]
	for i := range g.y {
		yi := x[2+i]
		if yi < 0 {
			yi = 0
		}
		g.y[i] = yi
	}
}

func (g *IdealGas) derive(t float64, x []float64) []float64 {
	temp, vol := x[0], x[1]
	yf := math.Max(x[2+g.fuel], 0)
	yo := math.Max(x[2+g.oxid], 0)

	k := g.mech.A * math.Exp(-g.mech.Ea/(GasConstant*temp))
	rate := k * yf * yo // kg fuel / (kg mixture s)

	dV := g.wall(t)
	pres := g.mass * g.rspec * temp / vol
	dT := g.mech.Q*rate/g.cv - pres*dV/(g.mass*g.cv)

	dx := make([]float64, len(x))
	dx[0] = dT
	dx[1] = dV
	dx[2+g.fuel] = -rate
	dx[2+g.oxid] = -g.mech.NuMass * rate
	dx[2+g.prod] = (1 + g.mech.NuMass) * rate
	return dx
}

// Step takes one error-controlled internal step. The limit argument is the
// caller's target time; the step size is chosen by error control alone, so
// the returned time may exceed it.
func (g *IdealGas) Step(limit float64) (float64, error) {
	h := g.h
	if g.maxStep > 0 && h > g.maxStep {
		h = g.maxStep
	}

	x := g.pack()
	for attempt := 0; attempt < maxRetries; attempt++ {
		xNew, hNext, errRatio := g.integ.attempt(g.derive, x, g.t, h, stepTol)
		if errRatio <= 1 {
			if !validState(xNew) {
				return g.t, ErrInvalidState
			}
			g.t += h
			g.unpack(xNew)
			g.h = hNext
			if g.maxStep > 0 && g.h > g.maxStep {
				g.h = g.maxStep
			}
			return g.t, nil
		}
		if hNext < minStep {
			return g.t, ErrStepTooSmall
		}
		h = hNext
	}
	return g.t, ErrStepTooSmall
}

func validState(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return x[0] > 0 && x[1] > 0
}
