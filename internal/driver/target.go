package driver

import (
	"strings"

	"github.com/san-kum/ignition/internal/analysis"
	"github.com/san-kum/ignition/internal/config"
	"github.com/san-kum/ignition/internal/log"
)

// SpeciesLookup resolves a species name to its index in the mechanism.
// Both reactor models and mechanisms satisfy it.
type SpeciesLookup interface {
	SpeciesIndex(name string) (int, bool)
}

// ResolveTarget maps the case's ignition target onto a recorded channel.
// Species names are tried exactly, then lower-cased; excited-state names
// (trailing "*") additionally fall back to the ground-state species. When
// nothing matches, the target falls back to pressure with a forced
// "d/dt max" type, with a warning.
func ResolveTarget(cs *config.Case, mech SpeciesLookup) analysis.Target {
	switch cs.IgnitionTarget {
	case config.TargetPressure:
		return analysis.Target{Channel: analysis.ChannelPressure, Type: cs.IgnitionType}
	case config.TargetTemperature:
		return analysis.Target{Channel: analysis.ChannelTemperature, Type: cs.IgnitionType}
	}

	for _, name := range speciesCandidates(cs.IgnitionTarget) {
		if i, ok := mech.SpeciesIndex(name); ok {
			return analysis.Target{Channel: analysis.ChannelSpecies, Species: i, Type: cs.IgnitionType}
		}
	}

	log.Warnf("species %q not found in model; falling back on pressure", cs.IgnitionTarget)
	return analysis.Target{Channel: analysis.ChannelPressure, Type: config.TypeDerivativeMax}
}

// speciesCandidates returns the lookup names to try, in priority order.
func speciesCandidates(name string) []string {
	candidates := []string{name, strings.ToLower(name)}
	if strings.HasSuffix(name, "*") {
		base := strings.TrimSuffix(name, "*")
		candidates = append(candidates, base, strings.ToLower(base))
	}
	return candidates
}
