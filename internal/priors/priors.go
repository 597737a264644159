// Package priors implements the sampling distributions used to draw
// physically plausible transit parameters: the Espinoza (2018) joint
// radius/impact-parameter law, the Kipping (2013) limb-darkening
// triangle, and the angle and unit-vector helpers.
package priors

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/umbra-photometry/umbra/internal/limbdark"
)

// Default radius-ratio bounds for RadiusImpact when the caller leaves
// them zero. The Espinoza (2018) law is defined on [0, 1], which admits
// degenerate grazing configurations, so the tooling narrows to a
// planetary range.
const (
	DefaultMinRadius = 0.01
	DefaultMaxRadius = 0.5
)

// NewRNG returns a deterministic generator for the given seed.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// RadiusImpact is the Espinoza (2018) joint distribution over radius
// ratio r and impact parameter b, uniform over the physically allowed
// region [MinRadius, MaxRadius] x [0, 1+r].
type RadiusImpact struct {
	MinRadius float64
	MaxRadius float64
}

func (d RadiusImpact) bounds() (pl, pu float64) {
	pl, pu = d.MinRadius, d.MaxRadius
	if pl == 0 && pu == 0 {
		return DefaultMinRadius, DefaultMaxRadius
	}
	return pl, pu
}

// Sample draws one (r, b) pair.
func (d RadiusImpact) Sample(rng *rand.Rand) (r, b float64) {
	pl, pu := d.bounds()
	dr := pu - pl
	ar := dr / (2 + pl + pu)

	u1 := rng.Float64()
	u2 := rng.Float64()
	if u1 > ar || ar == 0 {
		b = (1 + pl) * (1 + (u1-1)/(1-ar))
		r = pl + u2*dr
		return r, b
	}
	q1 := u1 / ar
	b = (1 + pl) + math.Sqrt(q1)*u2*dr
	r = pu - dr*math.Sqrt(q1)*(1-u2)
	return r, b
}

// SampleN draws n pairs into freshly allocated slices.
func (d RadiusImpact) SampleN(rng *rand.Rand, n int) (r, b []float64) {
	r = make([]float64, n)
	b = make([]float64, n)
	for i := range r {
		r[i], b[i] = d.Sample(rng)
	}
	return r, b
}

// Kipping13 is the Kipping (2013) triangular prior over quadratic
// limb-darkening coefficients: (q1, q2) uniform on the unit square,
// mapped so that (u1, u2) cover exactly the physical triangle.
type Kipping13 struct{}

// Sample draws one (u1, u2) pair.
func (Kipping13) Sample(rng *rand.Rand) (u1, u2 float64) {
	return limbdark.Kipping(rng.Float64(), rng.Float64())
}

// SampleN draws n pairs into freshly allocated slices.
func (k Kipping13) SampleN(rng *rand.Rand, n int) (u1, u2 []float64) {
	u1 = make([]float64, n)
	u2 = make([]float64, n)
	for i := range u1 {
		u1[i], u2[i] = k.Sample(rng)
	}
	return u1, u2
}

// Angle is the uniform distribution over (-pi, pi].
type Angle struct{}

// Sample draws one angle.
func (Angle) Sample(rng *rand.Rand) float64 {
	return math.Pi - rng.Float64()*2*math.Pi
}

// SampleN draws n angles into a freshly allocated slice.
func (a Angle) SampleN(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a.Sample(rng)
	}
	return out
}

// UnitVector draws vectors uniformly over the unit sphere in Dim
// dimensions (3 when zero) by normalizing i.i.d. standard normals.
type UnitVector struct {
	Dim int
}

func (d UnitVector) dim() int {
	if d.Dim <= 0 {
		return 3
	}
	return d.Dim
}

// Sample draws one unit vector.
func (d UnitVector) Sample(rng *rand.Rand) []float64 {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	v := make([]float64, d.dim())
	for {
		var sum float64
		for i := range v {
			v[i] = normal.Rand()
			sum += v[i] * v[i]
		}
		if sum > 0 {
			norm := math.Sqrt(sum)
			for i := range v {
				v[i] /= norm
			}
			return v
		}
	}
}

// SampleN draws n unit vectors.
func (d UnitVector) SampleN(rng *rand.Rand, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = d.Sample(rng)
	}
	return out
}
