// Package limbdark synthesizes transit model grids from limb-darkening
// laws.
//
// A grid tabulates the normalized occultation profile P over x in [0, 1],
// where x maps the projected separation z onto the contact distance 1+r0
// for a reference radius ratio r0. The evaluator recovers the flux
// decrement as r*r*P(x), which is exact at r0 and a small-occulter
// approximation elsewhere.
package limbdark

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/umbra-photometry/umbra/pkg/gridfile"
)

// DefaultRefRatio is the reference radius ratio used when callers pass
// zero.
const DefaultRefRatio = 0.1

// quadNodes is the Legendre node count for the partially covered band.
// The band is integrated under a sine substitution that absorbs the
// square-root behavior at the contact radii, so the fixed rule converges
// spectrally.
const quadNodes = 64

var (
	ErrBadPoints   = errors.New("limbdark: profile needs at least two points")
	ErrBadRefRatio = errors.New("limbdark: reference radius ratio must be positive")
)

// Kipping converts the Kipping (2013) sampling parameters (q1, q2) on the
// unit square into quadratic limb-darkening coefficients (u1, u2).
func Kipping(q1, q2 float64) (u1, u2 float64) {
	sqrtq1 := math.Sqrt(q1)
	return 2 * sqrtq1 * q2, sqrtq1 * (1 - 2*q2)
}

// UniformOverlap returns the occulted flux fraction for a uniform source
// of unit radius covered by an opaque disk of radius r at projected
// separation z. This is the exact lens-overlap closed form; for a uniform
// source the flux decrement is the overlap area over pi.
func UniformOverlap(z, r float64) float64 {
	z, r = math.Abs(z), math.Abs(r)
	switch {
	case z >= 1+r || r == 0:
		return 0
	case z <= r-1:
		// Source entirely behind the occulter.
		return 1
	case z <= 1-r:
		// Occulter entirely on the source.
		return r * r
	}
	k0 := math.Acos(clamp1((z*z + r*r - 1) / (2 * z * r)))
	k1 := math.Acos(clamp1((z*z + 1 - r*r) / (2 * z)))
	s := (4*z*z - sq(1+z*z-r*r)) / 4
	if s < 0 {
		s = 0
	}
	return (r*r*k0 + k1 - math.Sqrt(s)) / math.Pi
}

// QuadraticDelta returns the occulted flux fraction for a source with the
// quadratic limb-darkening law I(mu) = 1 - u1*(1-mu) - u2*(1-mu)^2,
// integrating the intensity over the overlap region by Gauss-Legendre
// quadrature on the partially covered annulus band.
func QuadraticDelta(u1, u2, z, r float64) float64 {
	z, r = math.Abs(z), math.Abs(r)
	if r == 0 || z >= 1+r {
		return 0
	}

	total := math.Pi * (1 - u1/3 - u2/6)

	// Annuli with radius below r-z sit entirely under the occulter and
	// integrate in closed form; the band between |z-r| and min(1, z+r)
	// is partially covered.
	var occulted float64
	if full := r - z; full > 0 {
		occulted += cumulativeFlux(u1, u2, math.Min(full, 1))
	}

	lo := math.Abs(z - r)
	hi := math.Min(1, z+r)
	if lo < hi {
		// rho = m + h*sin(u) maps the band onto [-pi/2, pi/2] and turns
		// the sqrt terms at both contact radii into analytic factors.
		m, h := (lo+hi)/2, (hi-lo)/2
		f := func(u float64) float64 {
			rho := m + h*math.Sin(u)
			arg := (z*z + rho*rho - r*r) / (2 * z * rho)
			return intensity(u1, u2, rho) * 2 * rho * math.Acos(clamp1(arg)) * h * math.Cos(u)
		}
		occulted += quad.Fixed(f, -math.Pi/2, math.Pi/2, quadNodes, nil, 0)
	}

	return clampUnit(occulted / total)
}

// UniformProfile tabulates n samples of the normalized uniform-source
// profile at reference ratio r0: P(x) = UniformOverlap(x*(1+r0), r0)/r0^2.
func UniformProfile(r0 float64, n int) ([]float64, error) {
	r0, err := checkProfileArgs(r0, n)
	if err != nil {
		return nil, err
	}
	p := make([]float64, n)
	for k := range p {
		x := float64(k) / float64(n-1)
		p[k] = UniformOverlap(x*(1+r0), r0) / (r0 * r0)
	}
	return p, nil
}

// QuadraticProfile tabulates n samples of the normalized quadratic
// limb-darkening profile at reference ratio r0.
func QuadraticProfile(u1, u2, r0 float64, n int) ([]float64, error) {
	r0, err := checkProfileArgs(r0, n)
	if err != nil {
		return nil, err
	}
	p := make([]float64, n)
	for k := range p {
		x := float64(k) / float64(n-1)
		p[k] = QuadraticDelta(u1, u2, x*(1+r0), r0) / (r0 * r0)
	}
	return p, nil
}

// Synthesize builds the profile table for the named law.
func Synthesize(profile gridfile.Profile, u1, u2, r0 float64, n int) ([]float64, error) {
	switch profile {
	case gridfile.ProfileUniform:
		return UniformProfile(r0, n)
	case gridfile.ProfileQuadratic:
		return QuadraticProfile(u1, u2, r0, n)
	default:
		return nil, fmt.Errorf("limbdark: cannot synthesize %q profile", profile)
	}
}

func checkProfileArgs(r0 float64, n int) (float64, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w (got %d)", ErrBadPoints, n)
	}
	if r0 == 0 {
		return DefaultRefRatio, nil
	}
	if r0 < 0 || math.IsNaN(r0) || math.IsInf(r0, 0) {
		return 0, fmt.Errorf("%w (got %g)", ErrBadRefRatio, r0)
	}
	return r0, nil
}

// intensity evaluates the quadratic law at disk radius rho in [0, 1].
func intensity(u1, u2, rho float64) float64 {
	mu2 := 1 - rho*rho
	if mu2 < 0 {
		mu2 = 0
	}
	oneMinusMu := 1 - math.Sqrt(mu2)
	return 1 - u1*oneMinusMu - u2*oneMinusMu*oneMinusMu
}

// cumulativeFlux integrates the quadratic law over the disk of radius t,
// 2*pi*int_0^t I(rho) rho d rho, in closed form via the mu substitution.
func cumulativeFlux(u1, u2, t float64) float64 {
	mu2 := 1 - t*t
	if mu2 < 0 {
		mu2 = 0
	}
	mu := math.Sqrt(mu2)
	g := func(m float64) float64 {
		return (1-u1-u2)*m*m/2 + (u1+2*u2)*m*m*m/3 - u2*m*m*m*m/4
	}
	return 2 * math.Pi * (g(1) - g(mu))
}

func clamp1(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sq(v float64) float64 { return v * v }
