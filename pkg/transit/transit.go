// Package transit computes transit light-curve flux decrements by
// interpolating a precomputed one-dimensional model grid.
//
// The grid tabulates a normalized occultation profile P over x in [0, 1],
// uniformly sampled so that grid[k] = P(k/(len(grid)-1)). x is the projected
// separation z scaled by the contact distance 1+r, where r is the ratio of
// the occulting radius to the source radius. The flux decrement for one
// sample follows the small-occulter scaling delta = r*r*P(x).
package transit

// Float is the type constraint for the two precisions the kernel is
// instantiated for. All arithmetic stays in the instantiated type; the
// package never mixes precisions.
type Float interface {
	~float32 | ~float64
}

// ComputeDelta returns the flux decrement for a single (z, r) sample.
//
// The function is total over the real line. Separations beyond the contact
// point clamp to the outermost grid sample, negative z and r are folded by
// symmetry, and a NaN coordinate yields NaN. A one-sample grid acts as a
// constant profile. Callers guarantee len(grid) >= 1; see ValidateBatch.
func ComputeDelta[T Float](grid []T, z, r T) T {
	if z < 0 {
		z = -z
	}
	if r < 0 {
		r = -r
	}
	x := z / (1 + r)
	if x != x {
		// NaN must exit before the int conversion below.
		return x
	}
	if x > 1 {
		x = 1
	}
	n := len(grid)
	if n == 1 {
		return r * r * grid[0]
	}
	t := x * T(n-1)
	i := int(t)
	if i > n-2 {
		i = n - 2
	}
	w := t - T(i)
	p := (1-w)*grid[i] + w*grid[i+1]
	return r * r * p
}

func evaluateRange[T Float](grid, z, r, delta []T, lo, hi int) {
	for i := lo; i < hi; i++ {
		delta[i] = ComputeDelta(grid, z[i], r[i])
	}
}
