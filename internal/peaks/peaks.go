// Package peaks detects local maxima in sampled 1-D signals.
package peaks

import "sort"

type options struct {
	minHeight    float64
	hasMinHeight bool
	minDistance  int
}

// Option configures Detect.
type Option func(*options)

// MinHeight keeps only peaks with value >= h.
func MinHeight(h float64) Option {
	return func(o *options) {
		o.minHeight = h
		o.hasMinHeight = true
	}
}

// MinDistance suppresses peaks closer than d samples to a taller peak.
func MinDistance(d int) Option {
	return func(o *options) { o.minDistance = d }
}

// Detect returns the indices of local maxima of y in increasing order.
// A maximum is a rising-to-falling sign change of the sample-to-sample
// difference; plateau tops report the first plateau sample. Endpoints are
// never peaks, so monotone and constant signals yield an empty result.
func Detect(y []float64, opts ...Option) []int {
	o := options{minDistance: 1}
	for _, opt := range opts {
		opt(&o)
	}

	n := len(y)
	if n < 3 {
		return []int{}
	}

	ind := make([]int, 0)
	for i := 1; i < n-1; i++ {
		if y[i] <= y[i-1] {
			continue
		}
		// Rising into i; walk any plateau to find where the signal leaves it.
		j := i
		for j < n-1 && y[j+1] == y[i] {
			j++
		}
		if j == n-1 {
			break
		}
		if y[j+1] < y[i] {
			ind = append(ind, i)
		}
		i = j
	}

	if o.hasMinHeight {
		kept := ind[:0]
		for _, i := range ind {
			if y[i] >= o.minHeight {
				kept = append(kept, i)
			}
		}
		ind = kept
	}

	if o.minDistance > 1 && len(ind) > 1 {
		ind = enforceDistance(y, ind, o.minDistance)
	}

	return ind
}

// enforceDistance keeps the tallest peaks, discarding any peak within dist
// samples of a taller one already kept.
func enforceDistance(y []float64, ind []int, dist int) []int {
	byHeight := make([]int, len(ind))
	copy(byHeight, ind)
	sort.Slice(byHeight, func(a, b int) bool {
		return y[byHeight[a]] > y[byHeight[b]]
	})

	suppressed := make(map[int]bool, len(ind))
	for _, i := range byHeight {
		if suppressed[i] {
			continue
		}
		for _, j := range ind {
			if j != i && !suppressed[j] && abs(j-i) < dist {
				suppressed[j] = true
			}
		}
	}

	kept := make([]int, 0, len(ind))
	for _, i := range ind {
		if !suppressed[i] {
			kept = append(kept, i)
		}
	}
	return kept
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
