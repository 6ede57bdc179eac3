package linalg

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector is a 3-component real vector.
type Vector = r3.Vec

// Vec builds a Vector from its components.
func Vec(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// Components returns v as an array indexed 0..2.
func Components(v Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// FromComponents is the inverse of Components.
func FromComponents(c [3]float64) Vector {
	return Vector{X: c[0], Y: c[1], Z: c[2]}
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v Vector) bool {
	for _, c := range Components(v) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Wrap maps each component of a fractional coordinate into [0, 1).
func Wrap(f Vector) Vector {
	w := func(x float64) float64 {
		x -= math.Floor(x)
		// Floor of values just below an integer can round back up to 1.
		if x >= 1 {
			x = 0
		}
		return x
	}
	return Vector{X: w(f.X), Y: w(f.Y), Z: w(f.Z)}
}

// PeriodicDistance returns the largest per-component distance between two
// fractional coordinates, taking lattice periodicity into account.
func PeriodicDistance(a, b Vector) float64 {
	d := r3.Sub(a, b)
	max := 0.0
	for _, c := range Components(d) {
		c -= math.Round(c)
		if c = math.Abs(c); c > max {
			max = c
		}
	}
	return max
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vector) float64 {
	return r3.Norm(r3.Sub(a, b))
}
