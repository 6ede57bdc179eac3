package cell

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/crystalview/internal/linalg"
)

// ErrInvalidRepeat is returned for supercell counts below one or whose
// product does not fit in an int.
var ErrInvalidRepeat = errors.New("supercell repeats must be positive")

// SuperCell is a cell replicated along its lattice vectors. It is derived
// from its base cell and never modifies it.
type SuperCell struct {
	Base    *Cell
	Repeats [3]int
	Images  []*Cell // translated copies, a index slowest
}

// NewSuperCell replicates c n[0] x n[1] x n[2] times. Image (i, j, k) is c
// translated by i*a1 + j*a2 + k*a3.
func NewSuperCell(c *Cell, n [3]int) (*SuperCell, error) {
	if c == nil {
		return nil, fmt.Errorf("supercell: %w", ErrNilCell)
	}
	for _, v := range n {
		if v < 1 {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidRepeat, n)
		}
	}
	if n[1] > math.MaxInt/n[0] || n[2] > math.MaxInt/(n[0]*n[1]) {
		return nil, fmt.Errorf("%w: %v overflows the image count", ErrInvalidRepeat, n)
	}

	sc := &SuperCell{Base: c, Repeats: n, Images: make([]*Cell, 0, n[0]*n[1]*n[2])}
	for i := 0; i < n[0]; i++ {
		for j := 0; j < n[1]; j++ {
			for k := 0; k < n[2]; k++ {
				t := c.Basis.ToCartesian(linalg.Vec(float64(i), float64(j), float64(k)))
				sc.Images = append(sc.Images, c.Translate(t))
			}
		}
	}
	return sc, nil
}

// Basis returns the lattice basis spanning the whole supercell.
func (sc *SuperCell) Basis() linalg.Basis {
	return sc.Base.Basis.Scaled([3]float64{float64(sc.Repeats[0]), float64(sc.Repeats[1]), float64(sc.Repeats[2])})
}

// Len returns the total number of atoms.
func (sc *SuperCell) Len() int {
	return len(sc.Images) * sc.Base.Len()
}

// Atoms returns the atoms of every image, image by image.
func (sc *SuperCell) Atoms() []Atom {
	out := make([]Atom, 0, sc.Len())
	for _, img := range sc.Images {
		out = append(out, img.Atoms...)
	}
	return out
}

// Molecules returns the molecules of every image.
func (sc *SuperCell) Molecules() []Molecule {
	var out []Molecule
	for _, img := range sc.Images {
		out = append(out, img.Molecules...)
	}
	return out
}

// Bounds returns the axis-aligned box containing every image.
func (sc *SuperCell) Bounds() (min, max linalg.Vector) {
	var pts []linalg.Vector
	for _, img := range sc.Images {
		lo, hi := img.Bounds()
		pts = append(pts, lo, hi)
	}
	return bounds(pts)
}

func (sc *SuperCell) String() string {
	return fmt.Sprintf("%s x %d,%d,%d: %d atoms", sc.Base.Name, sc.Repeats[0], sc.Repeats[1], sc.Repeats[2], sc.Len())
}
