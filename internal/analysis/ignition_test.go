package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/ignition/internal/config"
	"github.com/san-kum/ignition/internal/storage"
)

// seriesFromPressure builds a record series with the given pressure channel
// on a uniform time grid of spacing dt.
func seriesFromPressure(dt float64, pressure []float64) []storage.Record {
	records := make([]storage.Record, len(pressure))
	for i, p := range pressure {
		records[i] = storage.Record{
			Time:          float64(i) * dt,
			Temperature:   1000,
			Pressure:      p,
			Volume:        1,
			MassFractions: []float64{0.2, 0.8},
		}
	}
	return records
}

func TestAnalyzeTwoStage(t *testing.T) {
	// Weak first-stage peak at index 3, dominant peak at index 8.
	pressure := []float64{1, 1, 1.5, 2, 1.5, 1, 2, 5, 9, 4, 1, 1}
	dt := 1e-3
	tc := 1e-3 // compression ends before the first peak

	res, err := Analyze(seriesFromPressure(dt, pressure),
		Target{Channel: ChannelPressure, Type: config.TypeMax}, tc)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if !res.Found {
		t.Fatal("expected ignition to be found")
	}
	if math.Abs(res.Delay-(8*dt-tc)) > 1e-12 {
		t.Errorf("overall delay = %g, want %g", res.Delay, 8*dt-tc)
	}
	if math.Abs(res.FirstStage-(3*dt-tc)) > 1e-12 {
		t.Errorf("first-stage delay = %g, want %g", res.FirstStage, 3*dt-tc)
	}
}

func TestAnalyzeSingleStage(t *testing.T) {
	pressure := []float64{1, 1, 2, 6, 3, 1, 1}
	res, err := Analyze(seriesFromPressure(1e-3, pressure),
		Target{Channel: ChannelPressure, Type: config.TypeMax}, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if !res.Found {
		t.Fatal("expected ignition to be found")
	}
	if math.Abs(res.Delay-3e-3) > 1e-12 {
		t.Errorf("delay = %g, want 3e-3", res.Delay)
	}
	if !math.IsNaN(res.FirstStage) {
		t.Errorf("expected NaN first stage with one candidate, got %g", res.FirstStage)
	}
}

func TestAnalyzeMonotoneSignal(t *testing.T) {
	// Strictly increasing pressure: no peaks, and the derivative of a
	// linear ramp has none either. Legitimate non-igniting outcome.
	pressure := []float64{1, 2, 3, 4, 5, 6}
	res, err := Analyze(seriesFromPressure(1e-3, pressure),
		Target{Channel: ChannelPressure, Type: config.TypeMax}, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if res.Found {
		t.Error("expected no ignition detected")
	}
	if res.Delay != 0 {
		t.Errorf("expected sentinel delay 0, got %g", res.Delay)
	}
	if !math.IsNaN(res.FirstStage) {
		t.Errorf("expected NaN first stage, got %g", res.FirstStage)
	}
}

func TestAnalyzeDerivativeFallback(t *testing.T) {
	// A monotone sigmoid has no raw maximum but a clear derivative peak;
	// a "max" target must fall back to the derivative.
	n := 101
	dt := 1e-4
	center := 50
	pressure := make([]float64, n)
	for i := range pressure {
		pressure[i] = 1e5 * (2 + math.Tanh(float64(i-center)/5))
	}

	res, err := Analyze(seriesFromPressure(dt, pressure),
		Target{Channel: ChannelPressure, Type: config.TypeMax}, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if !res.Found {
		t.Fatal("expected fallback to find the derivative peak")
	}
	if math.Abs(res.Delay-float64(center)*dt) > 2*dt {
		t.Errorf("delay = %g, want near %g", res.Delay, float64(center)*dt)
	}
}

func TestAnalyzeDerivativeTarget(t *testing.T) {
	// With a d/dt max target the channel is differentiated up front.
	n := 101
	dt := 1e-4
	center := 60
	pressure := make([]float64, n)
	for i := range pressure {
		pressure[i] = 1e5 * (2 + math.Tanh(float64(i-center)/5))
	}

	res, err := Analyze(seriesFromPressure(dt, pressure),
		Target{Channel: ChannelPressure, Type: config.TypeDerivativeMax}, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !res.Found {
		t.Fatal("expected ignition to be found")
	}
	if math.Abs(res.Delay-float64(center)*dt) > 2*dt {
		t.Errorf("delay = %g, want near %g", res.Delay, float64(center)*dt)
	}
}

func TestAnalyzeDiscardsPreCompressionPeaks(t *testing.T) {
	// The bump at index 2 sits at the compression offset; only the
	// dominant peak remains a candidate, so no first stage is reported.
	pressure := []float64{1, 2, 3, 2, 1, 2, 8, 3, 1}
	dt := 1e-3
	tc := 2e-3

	res, err := Analyze(seriesFromPressure(dt, pressure),
		Target{Channel: ChannelPressure, Type: config.TypeMax}, tc)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if !res.Found {
		t.Fatal("expected ignition to be found")
	}
	if math.Abs(res.Delay-(6*dt-tc)) > 1e-12 {
		t.Errorf("delay = %g, want %g", res.Delay, 6*dt-tc)
	}
	if !math.IsNaN(res.FirstStage) {
		t.Errorf("expected NaN first stage, got %g", res.FirstStage)
	}
}

func TestAnalyzeDiscardsPostDominantPeaks(t *testing.T) {
	// Late oscillation after the dominant peak is not a candidate.
	pressure := []float64{1, 3, 1, 9, 1, 2, 1}
	res, err := Analyze(seriesFromPressure(1e-3, pressure),
		Target{Channel: ChannelPressure, Type: config.TypeMax}, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if math.Abs(res.Delay-3e-3) > 1e-12 {
		t.Errorf("delay = %g, want 3e-3", res.Delay)
	}
	if math.Abs(res.FirstStage-1e-3) > 1e-12 {
		t.Errorf("first stage = %g, want 1e-3", res.FirstStage)
	}
}

func TestAnalyzeSpeciesChannel(t *testing.T) {
	dt := 1e-3
	oh := []float64{0, 0.01, 0.05, 0.02, 0.01, 0}
	records := make([]storage.Record, len(oh))
	for i := range records {
		records[i] = storage.Record{
			Time:          float64(i) * dt,
			MassFractions: []float64{0.5, oh[i], 0.5 - oh[i]},
		}
	}

	res, err := Analyze(records, Target{Channel: ChannelSpecies, Species: 1, Type: config.TypeMax}, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !res.Found || math.Abs(res.Delay-2e-3) > 1e-12 {
		t.Errorf("delay = %g found=%v, want 2e-3", res.Delay, res.Found)
	}

	if _, err := Analyze(records, Target{Channel: ChannelSpecies, Species: 9, Type: config.TypeMax}, 0); err == nil {
		t.Error("expected error for out-of-range species index")
	}
}
