package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSingularBasis is returned when a basis has no inverse.
var ErrSingularBasis = errors.New("basis vectors are linearly dependent")

// DegenerateVolume is the volume (in cubic length units) below which a basis
// is treated as degenerate.
const DegenerateVolume = 1e-9

// Basis is an ordered set of three basis vectors. The zero value is not
// usable; construct with NewBasis, StandardBasis or LatticeBasis.
type Basis struct {
	m   *mat.Dense // rows are the basis vectors
	inv *mat.Dense // nil when the basis is singular
}

// NewBasis builds a basis from three vectors. The basis may be singular;
// check Volume or call ToFractional to find out.
func NewBasis(a, b, c Vector) Basis {
	m := mat.NewDense(3, 3, []float64{
		a.X, a.Y, a.Z,
		b.X, b.Y, b.Z,
		c.X, c.Y, c.Z,
	})
	bs := Basis{m: m}
	if math.Abs(mat.Det(m)) > DegenerateVolume {
		var inv mat.Dense
		if err := inv.Inverse(m); err == nil {
			bs.inv = &inv
		}
	}
	return bs
}

// StandardBasis returns the Cartesian basis.
func StandardBasis() Basis {
	return NewBasis(Vec(1, 0, 0), Vec(0, 1, 0), Vec(0, 0, 1))
}

// LatticeBasis builds the basis for cell lengths a, b, c and angles alpha,
// beta, gamma (degrees). a1 lies along x and a2 in the xy plane. For angle
// sets that cannot close a cell the out-of-plane component of a3 is clamped
// to zero, producing a zero-volume basis rather than NaNs.
func LatticeBasis(a, b, c, alpha, beta, gamma float64) Basis {
	ca := math.Cos(alpha * math.Pi / 180)
	cb := math.Cos(beta * math.Pi / 180)
	cg := math.Cos(gamma * math.Pi / 180)
	sg := math.Sin(gamma * math.Pi / 180)

	a1 := Vec(a, 0, 0)
	a2 := Vec(b*cg, b*sg, 0)

	var cy, cz float64
	if math.Abs(sg) > 1e-12 {
		cy = (ca - cb*cg) / sg
		if r := 1 - cb*cb - cy*cy; r > 0 {
			cz = math.Sqrt(r)
		}
	}
	a3 := Vec(c*cb, c*cy, c*cz)
	return NewBasis(a1, a2, a3)
}

// Vectors returns the three basis vectors.
func (b Basis) Vectors() [3]Vector {
	var out [3]Vector
	for i := 0; i < 3; i++ {
		out[i] = Vec(b.m.At(i, 0), b.m.At(i, 1), b.m.At(i, 2))
	}
	return out
}

// Vector returns basis vector i (0, 1 or 2).
func (b Basis) Vector(i int) Vector {
	return Vec(b.m.At(i, 0), b.m.At(i, 1), b.m.At(i, 2))
}

// Matrix returns a copy of the basis matrix; rows are basis vectors.
func (b Basis) Matrix() *mat.Dense {
	return mat.DenseCopyOf(b.m)
}

// Determinant returns the signed volume of the parallelepiped spanned by the
// basis vectors.
func (b Basis) Determinant() float64 {
	return mat.Det(b.m)
}

// Volume returns the absolute cell volume.
func (b Basis) Volume() float64 {
	return math.Abs(b.Determinant())
}

// Singular reports whether the basis cannot be inverted.
func (b Basis) Singular() bool {
	return b.inv == nil
}

// Lengths returns the norms of the three basis vectors.
func (b Basis) Lengths() [3]float64 {
	v := b.Vectors()
	return [3]float64{r3.Norm(v[0]), r3.Norm(v[1]), r3.Norm(v[2])}
}

// ToCartesian maps coordinates expressed in this basis to Cartesian space.
func (b Basis) ToCartesian(f Vector) Vector {
	return mulRow(f, b.m)
}

// ToFractional maps a Cartesian position to coordinates in this basis.
func (b Basis) ToFractional(r Vector) (Vector, error) {
	if b.inv == nil {
		return Vector{}, ErrSingularBasis
	}
	return mulRow(r, b.inv), nil
}

// Scaled returns the basis with vector i multiplied by n[i].
func (b Basis) Scaled(n [3]float64) Basis {
	v := b.Vectors()
	return NewBasis(r3.Scale(n[0], v[0]), r3.Scale(n[1], v[1]), r3.Scale(n[2], v[2]))
}

// Corners returns the eight corners of the unit parallelepiped, translated by
// origin. Corner i has fractional coordinates (i&1, i>>1&1, i>>2&1).
func (b Basis) Corners(origin Vector) [8]Vector {
	var out [8]Vector
	for i := 0; i < 8; i++ {
		f := Vec(float64(i&1), float64(i>>1&1), float64(i>>2&1))
		out[i] = r3.Add(origin, b.ToCartesian(f))
	}
	return out
}

// Edges returns the twelve corner index pairs that form the edges of the
// parallelepiped returned by Corners.
func Edges() [12][2]int {
	return [12][2]int{
		{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along a1
		{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along a2
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along a3
	}
}

// String formats the basis as three rows.
func (b Basis) String() string {
	v := b.Vectors()
	return fmt.Sprintf("[%.4f %.4f %.4f; %.4f %.4f %.4f; %.4f %.4f %.4f]",
		v[0].X, v[0].Y, v[0].Z, v[1].X, v[1].Y, v[1].Z, v[2].X, v[2].Y, v[2].Z)
}

// mulRow computes the row vector product v·m.
func mulRow(v Vector, m *mat.Dense) Vector {
	var out mat.VecDense
	out.MulVec(m.T(), mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vec(out.AtVec(0), out.AtVec(1), out.AtVec(2))
}
