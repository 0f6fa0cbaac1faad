package numerics

import "sort"

// Interp returns the piecewise-linear interpolant of (xs, ys) evaluated at x.
// xs must be strictly increasing. Queries left of xs[0] return left; queries
// right of xs[len-1] return right. Lookup is O(log n), so the function is
// safe to call from tight integrator substep loops.
func Interp(x float64, xs, ys []float64, left, right float64) float64 {
	n := len(xs)
	if n == 0 {
		return left
	}
	if x < xs[0] {
		return left
	}
	if x > xs[n-1] {
		return right
	}

	// Smallest i with xs[i] >= x.
	i := sort.SearchFloat64s(xs, x)
	if i < n && xs[i] == x {
		return ys[i]
	}

	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// Lerp linearly interpolates between (t0, v0) and (t1, v1) at t.
func Lerp(t, t0, t1, v0, v1 float64) float64 {
	if t1 == t0 {
		return v0
	}
	return v0 + (v1-v0)*(t-t0)/(t1-t0)
}
