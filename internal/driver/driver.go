// Package driver advances one ignition-delay case from configuration to a
// committed time series.
package driver

import (
	"context"
	"fmt"

	"github.com/san-kum/ignition/internal/analysis"
	"github.com/san-kum/ignition/internal/config"
	"github.com/san-kum/ignition/internal/log"
	"github.com/san-kum/ignition/internal/numerics"
	"github.com/san-kum/ignition/internal/profile"
	"github.com/san-kum/ignition/internal/reactor"
	"github.com/san-kum/ignition/internal/storage"
)

type phase int

const (
	phaseConfiguring phase = iota
	phaseIntegrating
	phaseFinalized
)

// Observer is notified after every recorded row.
type Observer interface {
	OnRecord(r storage.Record)
}

// ModelFactory builds a reactor model for the given initial state. It is
// called once for the integrated reactor and, for pressure-rise cases,
// once more for the dedicated entropy-query instance.
type ModelFactory func(temp, pres float64, composition map[string]float64) (reactor.Model, error)

// SimError wraps an integration failure with simulation context.
type SimError struct {
	CaseID  string
	Time    float64
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("case %s: integration failed at t=%g: %v", e.CaseID, e.Time, e.Wrapped)
}

func (e *SimError) Unwrap() error { return e.Wrapped }

// Simulation drives one case: Configuring -> Integrating -> Finalized.
type Simulation struct {
	cs        *config.Case
	factory   ModelFactory
	store     *storage.Store
	model     reactor.Model
	target    analysis.Target
	timeEnd   float64
	phase     phase
	observers []Observer
}

// New creates an unconfigured simulation for the case.
func New(cs *config.Case, factory ModelFactory, store *storage.Store) *Simulation {
	return &Simulation{cs: cs, factory: factory, store: store}
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Target returns the resolved ignition target. Valid after Setup.
func (s *Simulation) Target() analysis.Target { return s.target }

// EndTime returns the integration horizon. Valid after Setup.
func (s *Simulation) EndTime() float64 { return s.timeEnd }

// Setup validates the case, builds the reactor model, and selects the
// wall behavior. Any error here is fatal for the case and occurs before
// integration work begins.
func (s *Simulation) Setup() error {
	if s.phase != phaseConfiguring {
		return fmt.Errorf("driver: case %s already set up", s.cs.ID)
	}
	if err := s.cs.Validate(); err != nil {
		return err
	}
	s.timeEnd = s.cs.EndTime()

	model, err := s.factory(s.cs.Temperature, s.cs.Pressure, s.cs.Composition)
	if err != nil {
		return fmt.Errorf("driver: case %s: build reactor: %w", s.cs.ID, err)
	}

	switch {
	case s.cs.Kind == config.KindST && s.cs.HasPressureRise():
		// Isentropic facility-effect compression; the profile needs its
		// own gas instance because the SP queries disturb the state.
		gas, err := s.factory(s.cs.Temperature, s.cs.Pressure, s.cs.Composition)
		if err != nil {
			return fmt.Errorf("driver: case %s: build profile gas: %w", s.cs.ID, err)
		}
		prof, err := profile.FromPressureRise(gas, s.cs.Pressure, s.cs.PressureRise, s.timeEnd)
		if err != nil {
			return fmt.Errorf("driver: case %s: %w", s.cs.ID, err)
		}
		model.SetWallVelocity(prof.Velocity)

	case s.cs.Kind == config.KindRCM && s.cs.HasVolumeHistory():
		prof, err := profile.FromHistory(s.cs.VolumeHistory.Time, s.cs.VolumeHistory.Volume)
		if err != nil {
			return fmt.Errorf("driver: case %s: %w", s.cs.ID, err)
		}
		model.SetWallVelocity(prof.Velocity)
		// Keep the integrator from stepping past profile detail.
		model.SetMaxStep(prof.MinSpacing())

	default:
		// Plain ST/RCM: constant-volume wall.
	}

	s.target = ResolveTarget(s.cs, model)
	s.model = model
	s.phase = phaseIntegrating
	return nil
}

// Run integrates to the end time, recording every internal step and
// committing the series under the case identifier. The final record's time
// equals the end time exactly: when the last step overshoots, every channel
// is interpolated back. Integration errors are fatal and leave no series.
func (s *Simulation) Run(ctx context.Context) error {
	if s.phase != phaseIntegrating {
		return fmt.Errorf("driver: case %s not set up", s.cs.ID)
	}

	w, err := s.store.Create(s.cs.ID)
	if err != nil {
		return err
	}

	prev := s.capture()
	if err := s.record(w, prev); err != nil {
		w.Abort()
		return err
	}

	for s.model.Time() < s.timeEnd {
		select {
		case <-ctx.Done():
			w.Abort()
			return &SimError{CaseID: s.cs.ID, Time: s.model.Time(), Wrapped: ctx.Err()}
		default:
		}

		if _, err := s.model.Step(s.timeEnd); err != nil {
			w.Abort()
			return &SimError{CaseID: s.cs.ID, Time: s.model.Time(), Wrapped: err}
		}

		cur := s.capture()
		if cur.Time > s.timeEnd {
			cur = interpolate(prev, cur, s.timeEnd)
			if err := s.record(w, cur); err != nil {
				w.Abort()
				return err
			}
			break
		}

		if err := s.record(w, cur); err != nil {
			w.Abort()
			return err
		}
		prev = cur
	}

	if err := w.Close(); err != nil {
		return err
	}
	s.phase = phaseFinalized
	log.Infof("case %s: integrated to t=%g", s.cs.ID, s.timeEnd)
	return nil
}

func (s *Simulation) record(w *storage.Writer, r storage.Record) error {
	if err := w.Append(r); err != nil {
		return err
	}
	for _, o := range s.observers {
		o.OnRecord(r)
	}
	return nil
}

func (s *Simulation) capture() storage.Record {
	return storage.Record{
		Time:          s.model.Time(),
		Temperature:   s.model.Temperature(),
		Pressure:      s.model.Pressure(),
		Volume:        s.model.Volume(),
		MassFractions: s.model.MassFractions(),
	}
}

// interpolate evaluates every channel linearly between prev and cur at t,
// pinning the time field to t exactly.
func interpolate(prev, cur storage.Record, t float64) storage.Record {
	fracs := make([]float64, len(cur.MassFractions))
	for i := range fracs {
		fracs[i] = numerics.Lerp(t, prev.Time, cur.Time, prev.MassFractions[i], cur.MassFractions[i])
	}
	return storage.Record{
		Time:          t,
		Temperature:   numerics.Lerp(t, prev.Time, cur.Time, prev.Temperature, cur.Temperature),
		Pressure:      numerics.Lerp(t, prev.Time, cur.Time, prev.Pressure, cur.Pressure),
		Volume:        numerics.Lerp(t, prev.Time, cur.Time, prev.Volume, cur.Volume),
		MassFractions: fracs,
	}
}
