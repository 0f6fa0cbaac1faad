// Package numerics provides the finite-difference and interpolation
// primitives shared by the profile construction and ignition analysis layers.
package numerics

import (
	"errors"
	"fmt"
)

// ErrTooShort indicates a sequence too short for second-order differences.
var ErrTooShort = errors.New("numerics: need at least 3 samples")

// FirstDerivative evaluates dy/dx using second-order finite differences:
// central differences in the interior and one-sided differences at the
// boundaries. The x grid must be strictly increasing but does not need to
// be uniform.
func FirstDerivative(x, y []float64) ([]float64, error) {
	n := len(x)
	if len(y) != n {
		return nil, fmt.Errorf("numerics: length mismatch: len(x)=%d len(y)=%d", n, len(y))
	}
	if n < 3 {
		return nil, ErrTooShort
	}

	d := make([]float64, n)

	for i := 1; i < n-1; i++ {
		hb := x[i] - x[i-1]
		hf := x[i+1] - x[i]
		d[i] = (hb*hb*y[i+1] + (hf*hf-hb*hb)*y[i] - hf*hf*y[i-1]) /
			(hb * hf * (hb + hf))
	}

	// Forward difference at the left edge.
	h1 := x[1] - x[0]
	h2 := x[2] - x[1]
	d[0] = -(2*h1+h2)/(h1*(h1+h2))*y[0] +
		(h1+h2)/(h1*h2)*y[1] -
		h1/(h2*(h1+h2))*y[2]

	// Backward difference at the right edge.
	g1 := x[n-1] - x[n-2]
	g2 := x[n-2] - x[n-3]
	d[n-1] = g1/(g2*(g1+g2))*y[n-3] -
		(g1+g2)/(g1*g2)*y[n-2] +
		(2*g1+g2)/(g1*(g1+g2))*y[n-1]

	return d, nil
}
