package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Rotation orients a grid. Angles are in degrees and rotate clockwise: dip
// azimuth about Z, then dip about X, then pitch about Z.
type Rotation struct {
	DipAzimuth float64
	Dip        float64
	Pitch      float64
}

// Matrix returns Rz(dip azimuth) * Rx(dip) * Rz(pitch), to be applied to
// column vectors.
func (r Rotation) Matrix() *mat.Dense {
	var azDip, m mat.Dense
	azDip.Mul(rotZ(r.DipAzimuth), rotX(r.Dip))
	m.Mul(&azDip, rotZ(r.Pitch))
	return &m
}

// Apply rotates v.
func (r Rotation) Apply(v [3]float64) [3]float64 {
	var out mat.VecDense
	out.MulVec(r.Matrix(), mat.NewVecDense(3, v[:]))
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

func rotZ(deg float64) *mat.Dense {
	s, c := math.Sincos(deg * math.Pi / 180)
	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}

func rotX(deg float64) *mat.Dense {
	s, c := math.Sincos(deg * math.Pi / 180)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, s,
		0, -s, c,
	})
}
