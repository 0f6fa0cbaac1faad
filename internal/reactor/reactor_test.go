package reactor

import (
	"math"
	"testing"
)

func newTestGas(t *testing.T) *IdealGas {
	t.Helper()
	g, err := New(Default(), 1100.0, 2.0e5, map[string]float64{
		"H2": 2.0,
		"O2": 1.0,
		"AR": 7.0,
	})
	if err != nil {
		t.Fatalf("reactor construction failed: %v", err)
	}
	return g
}

func TestNewInitialState(t *testing.T) {
	g := newTestGas(t)

	if math.Abs(g.Temperature()-1100.0) > 1e-9 {
		t.Errorf("expected T=1100, got %f", g.Temperature())
	}
	if math.Abs(g.Pressure()-2.0e5) > 1e-6 {
		t.Errorf("expected P=2e5, got %f", g.Pressure())
	}
	if g.Time() != 0 {
		t.Errorf("expected t=0, got %g", g.Time())
	}

	sum := 0.0
	for _, y := range g.MassFractions() {
		if y < 0 {
			t.Errorf("negative mass fraction: %g", y)
		}
		sum += y
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Errorf("mass fractions sum to %f", sum)
	}
}

func TestNewUnknownSpecies(t *testing.T) {
	_, err := New(Default(), 1000, 1e5, map[string]float64{"CH4": 1})
	if err == nil {
		t.Fatal("expected error for unknown species")
	}
}

func TestSpeciesIndex(t *testing.T) {
	g := newTestGas(t)

	i, ok := g.SpeciesIndex("OH")
	if !ok || i != 3 {
		t.Errorf("expected OH at index 3, got %d found=%v", i, ok)
	}
	if _, ok := g.SpeciesIndex("CH4"); ok {
		t.Error("expected CH4 lookup to fail")
	}
	// Index 0 is a legitimate result, not a missing species.
	i, ok = g.SpeciesIndex("H2")
	if !ok || i != 0 {
		t.Errorf("expected H2 at index 0, got %d found=%v", i, ok)
	}
}

func TestSetSPIsentrope(t *testing.T) {
	g := newTestGas(t)
	t0 := g.Temperature()
	p0 := g.Pressure()
	rho0 := g.Density()
	s0 := g.EntropyMass()
	gamma := Default().Gamma

	// Same entropy and pressure: state unchanged.
	if err := g.SetSP(s0, p0); err != nil {
		t.Fatalf("SetSP failed: %v", err)
	}
	if math.Abs(g.Temperature()-t0) > 1e-6 {
		t.Errorf("identity SP query moved T: %f -> %f", t0, g.Temperature())
	}

	// Isentropic compression to double pressure.
	if err := g.SetSP(s0, 2*p0); err != nil {
		t.Fatalf("SetSP failed: %v", err)
	}
	wantT := t0 * math.Pow(2, (gamma-1)/gamma)
	if math.Abs(g.Temperature()-wantT) > 1e-6*wantT {
		t.Errorf("expected T=%f on isentrope, got %f", wantT, g.Temperature())
	}
	wantRho := rho0 * math.Pow(2, 1/gamma)
	if math.Abs(g.Density()-wantRho) > 1e-6*wantRho {
		t.Errorf("expected rho=%f on isentrope, got %f", wantRho, g.Density())
	}

	if err := g.SetSP(s0, -1); err == nil {
		t.Error("expected error for negative pressure")
	}
}

func TestStepAdvancesTime(t *testing.T) {
	g := newTestGas(t)

	prev := 0.0
	for i := 0; i < 50; i++ {
		now, err := g.Step(1.0)
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if now <= prev {
			t.Fatalf("time did not advance: %g -> %g", prev, now)
		}
		prev = now

		sum := 0.0
		for _, y := range g.MassFractions() {
			sum += y
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Fatalf("mass fractions drifted to sum %f", sum)
		}
	}
}

func TestStepRespectsMaxStep(t *testing.T) {
	g := newTestGas(t)
	g.SetMaxStep(1e-7)

	prev := 0.0
	for i := 0; i < 20; i++ {
		now, err := g.Step(1.0)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
		if now-prev > 1e-7+1e-15 {
			t.Fatalf("step %g exceeds max step", now-prev)
		}
		prev = now
	}
}

func TestColdGasStaysCold(t *testing.T) {
	// At room temperature the Arrhenius rate is effectively zero; a
	// constant-volume reactor must hold its state.
	g, err := New(Default(), 300.0, 1.0e5, map[string]float64{"H2": 2, "O2": 1})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	for i := 0; i < 200; i++ {
		if _, err := g.Step(1.0); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}
	if math.Abs(g.Temperature()-300.0) > 1e-3 {
		t.Errorf("cold gas heated to %f K", g.Temperature())
	}
	if math.Abs(g.Volume()-1.0) > 1e-12 {
		t.Errorf("constant-volume reactor changed volume: %f", g.Volume())
	}
}

func TestMovingWallChangesVolume(t *testing.T) {
	g, err := New(Default(), 400.0, 1.0e5, map[string]float64{"AR": 1})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	g.SetWallVelocity(func(float64) float64 { return 2.0 })

	var now float64
	for now < 1e-4 {
		var err error
		now, err = g.Step(1e-4)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	wantVol := 1.0 + 2.0*now
	if math.Abs(g.Volume()-wantVol) > 1e-6*wantVol {
		t.Errorf("expected volume %f, got %f", wantVol, g.Volume())
	}
	// Expansion of an inert gas cools it.
	if g.Temperature() >= 400.0 {
		t.Errorf("expected cooling on expansion, T=%f", g.Temperature())
	}
}

func TestHotMixtureIgnites(t *testing.T) {
	g := newTestGas(t)
	fuel, _ := g.SpeciesIndex("H2")

	limit := 0.5
	for g.Time() < limit {
		if _, err := g.Step(limit); err != nil {
			t.Fatalf("step failed at t=%g: %v", g.Time(), err)
		}
		if g.Temperature() > 2000 {
			break
		}
	}

	if g.Temperature() < 2000 {
		t.Fatalf("mixture never ignited: T=%f at t=%g", g.Temperature(), g.Time())
	}
	if g.MassFractions()[fuel] > 0.9*newTestGas(t).MassFractions()[fuel] {
		t.Error("ignition without significant fuel consumption")
	}
}
