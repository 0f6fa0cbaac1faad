// Package analysis extracts ignition-delay metrics from recorded
// simulation series.
package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/ignition/internal/config"
	"github.com/san-kum/ignition/internal/numerics"
	"github.com/san-kum/ignition/internal/peaks"
	"github.com/san-kum/ignition/internal/storage"
)

// Channel selects which recorded quantity is watched for ignition.
type Channel int

const (
	ChannelPressure Channel = iota
	ChannelTemperature
	ChannelSpecies
)

func (c Channel) String() string {
	switch c {
	case ChannelPressure:
		return "pressure"
	case ChannelTemperature:
		return "temperature"
	case ChannelSpecies:
		return "species"
	}
	return "unknown"
}

// Target is the resolved ignition diagnostic: a channel, the species index
// when the channel is a mass fraction, and the detection type.
type Target struct {
	Channel Channel
	Species int
	Type    string
}

// Result holds the extracted delays. Delay is zero when no ignition was
// detected; FirstStage is NaN unless at least two ignition events were
// found.
type Result struct {
	Delay      float64
	FirstStage float64
	Found      bool
}

// Analyze post-processes one recorded series into ignition delays.
//
// Candidate events are peaks of the diagnostic channel (or its time
// derivative for "d/dt max" targets) occurring at or before the dominant
// peak and strictly after the compression-time offset. The overall delay
// is the latest candidate and the first-stage delay the earliest when two
// or more exist. Discarding peaks after the dominant one is a
// compatibility policy: it suppresses late-time oscillations but can also
// drop unusual late first-stage-like features.
func Analyze(records []storage.Record, target Target, compressionTime float64) (Result, error) {
	none := Result{Delay: 0, FirstStage: math.NaN()}

	times := make([]float64, len(records))
	for i, r := range records {
		times[i] = r.Time
	}

	channel, err := extractChannel(records, target)
	if err != nil {
		return none, err
	}

	if target.Type == config.TypeDerivativeMax {
		channel, err = numerics.FirstDerivative(times, channel)
		if err != nil {
			return none, fmt.Errorf("analysis: differentiate target: %w", err)
		}
	}

	ind := peaks.Detect(channel)

	// Fall back on the derivative if the raw maximum found nothing.
	if len(ind) == 0 && target.Type == config.TypeMax {
		channel, err = numerics.FirstDerivative(times, channel)
		if err != nil {
			return none, fmt.Errorf("analysis: differentiate target: %w", err)
		}
		ind = peaks.Detect(channel)
	}

	if len(ind) == 0 {
		return none, nil
	}

	maxPeak := ind[0]
	for _, p := range ind {
		if channel[p] > channel[maxPeak] {
			maxPeak = p
		}
	}

	delays := make([]float64, 0, len(ind))
	for _, p := range ind {
		if p > maxPeak {
			continue
		}
		if d := times[p] - compressionTime; d > 0 {
			delays = append(delays, d)
		}
	}

	if len(delays) == 0 {
		return none, nil
	}

	res := Result{
		Delay:      delays[len(delays)-1],
		FirstStage: math.NaN(),
		Found:      true,
	}
	if len(delays) > 1 {
		res.FirstStage = delays[0]
	}
	return res, nil
}

func extractChannel(records []storage.Record, target Target) ([]float64, error) {
	channel := make([]float64, len(records))
	for i, r := range records {
		switch target.Channel {
		case ChannelPressure:
			channel[i] = r.Pressure
		case ChannelTemperature:
			channel[i] = r.Temperature
		case ChannelSpecies:
			if target.Species < 0 || target.Species >= len(r.MassFractions) {
				return nil, fmt.Errorf("analysis: species index %d out of range (%d species)",
					target.Species, len(r.MassFractions))
			}
			channel[i] = r.MassFractions[target.Species]
		default:
			return nil, fmt.Errorf("analysis: unknown channel %d", target.Channel)
		}
	}
	return channel, nil
}
