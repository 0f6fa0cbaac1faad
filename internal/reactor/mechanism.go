package reactor

// GasConstant is the universal gas constant in J/(mol K).
const GasConstant = 8.314462618

// Species describes one mixture component.
type Species struct {
	Name string
	W    float64 // molar mass, kg/mol
}

// Mechanism describes a single-step global reaction
//
//	Fuel + nu Oxidizer -> (1 + nu) Product
//
// with Arrhenius kinetics. nu is a mass-based stoichiometric ratio so the
// mass-fraction balance closes exactly. Inert species carry heat capacity
// but do not react.
type Mechanism struct {
	Species  []Species
	Fuel     string
	Oxidizer string
	Product  string
	NuMass   float64 // kg oxidizer per kg fuel
	A        float64 // pre-exponential factor, 1/s
	Ea       float64 // activation energy, J/mol
	Q        float64 // heat release per kg fuel, J/kg
	Gamma    float64 // ratio of specific heats
}

// Default returns the built-in hydrogen-like mock mechanism. The rate
// parameters are tuned for a sharp thermal runaway in the millisecond
// range at shock-tube conditions; they model no real fuel.
func Default() *Mechanism {
	return &Mechanism{
		Species: []Species{
			{Name: "H2", W: 2.016e-3},
			{Name: "O2", W: 31.999e-3},
			{Name: "H2O", W: 18.015e-3},
			{Name: "OH", W: 17.007e-3},
			{Name: "AR", W: 39.948e-3},
		},
		Fuel:     "H2",
		Oxidizer: "O2",
		Product:  "H2O",
		NuMass:   7.94, // 0.5 mol O2 per mol H2 by mass
		A:        2.5e9,
		Ea:       1.3e5,
		Q:        1.2e8,
		Gamma:    1.4,
	}
}

// SpeciesIndex returns the index of the named species.
func (m *Mechanism) SpeciesIndex(name string) (int, bool) {
	for i, sp := range m.Species {
		if sp.Name == name {
			return i, true
		}
	}
	return 0, false
}

// NSpecies returns the number of species in the mechanism.
func (m *Mechanism) NSpecies() int { return len(m.Species) }
