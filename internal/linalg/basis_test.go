package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func vecNear(t *testing.T, want, got Vector, tol float64) {
	t.Helper()
	w, g := Components(want), Components(got)
	for i := range w {
		if !scalar.EqualWithinAbs(w[i], g[i], tol) {
			t.Fatalf("component %d: want %v, got %v (want %v, got %v)", i, w[i], g[i], want, got)
		}
	}
}

func TestStandardBasis(t *testing.T) {
	b := StandardBasis()
	assert.InDelta(t, 1.0, b.Determinant(), 1e-12)
	assert.False(t, b.Singular())

	p := Vec(1.5, -2, 3)
	vecNear(t, p, b.ToCartesian(p), 1e-12)
	f, err := b.ToFractional(p)
	require.NoError(t, err)
	vecNear(t, p, f, 1e-12)
}

func TestLatticeBasis(t *testing.T) {
	tests := []struct {
		name               string
		a, b, c            float64
		alpha, beta, gamma float64
		volume             float64
	}{
		{"cubic", 5.64, 5.64, 5.64, 90, 90, 90, 5.64 * 5.64 * 5.64},
		{"tetragonal", 4, 4, 6, 90, 90, 90, 96},
		{"hexagonal", 3, 3, 5, 90, 90, 120, 3 * 3 * 5 * math.Sqrt(3) / 2},
		{"monoclinic", 5, 6, 7, 90, 100, 90, 5 * 6 * 7 * math.Sin(100*math.Pi/180)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := LatticeBasis(tt.a, tt.b, tt.c, tt.alpha, tt.beta, tt.gamma)
			assert.Greater(t, b.Determinant(), 0.0)
			assert.InDelta(t, tt.volume, b.Volume(), 1e-9)

			l := b.Lengths()
			assert.InDelta(t, tt.a, l[0], 1e-9)
			assert.InDelta(t, tt.b, l[1], 1e-9)
			assert.InDelta(t, tt.c, l[2], 1e-9)

			// a1 along x, a2 in the xy plane.
			v := b.Vectors()
			assert.InDelta(t, 0, v[0].Y, 1e-12)
			assert.InDelta(t, 0, v[0].Z, 1e-12)
			assert.InDelta(t, 0, v[1].Z, 1e-12)
		})
	}
}

func TestLatticeBasisImpossibleAngles(t *testing.T) {
	// alpha + beta < gamma cannot close a cell.
	b := LatticeBasis(5, 5, 5, 30, 30, 120)
	assert.True(t, b.Singular())
	assert.InDelta(t, 0, b.Volume(), 1e-9)

	_, err := b.ToFractional(Vec(1, 1, 1))
	assert.ErrorIs(t, err, ErrSingularBasis)
}

func TestFractionalRoundTrip(t *testing.T) {
	b := LatticeBasis(7.1, 8.3, 9.2, 85, 97, 112)
	for _, f := range []Vector{Vec(0, 0, 0), Vec(0.25, 0.5, 0.75), Vec(0.9, 0.1, 0.33), Vec(1.5, -0.5, 2)} {
		r := b.ToCartesian(f)
		back, err := b.ToFractional(r)
		require.NoError(t, err)
		vecNear(t, f, back, 1e-10)
	}
}

func TestScaledAndCorners(t *testing.T) {
	b := LatticeBasis(2, 3, 4, 90, 90, 90)
	s := b.Scaled([3]float64{3, 3, 1})
	assert.InDelta(t, 9*b.Volume(), s.Volume(), 1e-9)

	corners := b.Corners(Vec(1, 1, 1))
	vecNear(t, Vec(1, 1, 1), corners[0], 1e-12)
	vecNear(t, Vec(3, 4, 5), corners[7], 1e-12)

	for _, e := range Edges() {
		d := Distance(corners[e[0]], corners[e[1]])
		assert.Contains(t, []float64{2, 3, 4}, math.Round(d*1e9)/1e9)
	}
}

func TestWrapAndPeriodicDistance(t *testing.T) {
	vecNear(t, Vec(0.25, 0.5, 0), Wrap(Vec(1.25, -0.5, 3)), 1e-12)

	w := Wrap(Vec(-1e-18, 0, 0))
	assert.GreaterOrEqual(t, w.X, 0.0)
	assert.Less(t, w.X, 1.0)

	assert.InDelta(t, 0.02, PeriodicDistance(Vec(0.99, 0, 0), Vec(0.01, 0, 0)), 1e-12)
	assert.InDelta(t, 0.5, PeriodicDistance(Vec(0, 0.5, 0), Vec(0, 0, 0)), 1e-12)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(Vec(1, 2, 3)))
	assert.False(t, IsFinite(Vec(math.NaN(), 0, 0)))
	assert.False(t, IsFinite(Vec(0, math.Inf(1), 0)))
}
