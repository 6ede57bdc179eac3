package draw

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/crystalview/internal/cell"
	"github.com/banshee-data/crystalview/internal/linalg"
)

// Surface is a drawing context.
type Surface interface {
	Sphere(center linalg.Vector, radius float64, c color.RGBA, label string)
	Segment(a, b linalg.Vector, c color.RGBA, width float64)
}

// Style controls how cells are drawn. Primitives outside Bounds are skipped.
type Style struct {
	Bounds    Box
	AtomScale float64
	BondWidth float64
	EdgeWidth float64
	EdgeColor color.RGBA
}

// DefaultStyle returns an unbounded style.
func DefaultStyle() Style {
	return Style{
		AtomScale: 0.5,
		BondWidth: 2,
		EdgeWidth: 1,
		EdgeColor: color.RGBA{A: 0xff},
	}
}

// DrawAtom draws a as a sphere coloured by its element.
func DrawAtom(s Surface, st Style, a cell.Atom) {
	if !st.Bounds.Contains(a.Position) {
		return
	}
	e := a.Element()
	s.Sphere(a.Position, e.CovalentRadius*st.AtomScale, e.Color, a.Label)
}

// DrawMolecule draws the molecule's atoms and its bonds. Each bond is split
// at its midpoint and the halves take the colour of the atom they touch.
func DrawMolecule(s Surface, st Style, m cell.Molecule) {
	for _, a := range m.Atoms {
		DrawAtom(s, st, a)
	}
	for _, b := range m.Bonds {
		drawBond(s, st, m.Atoms[b.I], m.Atoms[b.J])
	}
}

func drawBond(s Surface, st Style, a, b cell.Atom) {
	if !st.Bounds.Contains(a.Position) || !st.Bounds.Contains(b.Position) {
		return
	}
	mid := r3.Scale(0.5, r3.Add(a.Position, b.Position))
	s.Segment(a.Position, mid, a.Element().Color, st.BondWidth)
	s.Segment(mid, b.Position, b.Element().Color, st.BondWidth)
}

// DrawBasis draws the twelve edges of the parallelepiped spanned by basis
// at origin.
func DrawBasis(s Surface, st Style, origin linalg.Vector, basis linalg.Basis) {
	corners := basis.Corners(origin)
	for _, e := range linalg.Edges() {
		a, b := corners[e[0]], corners[e[1]]
		if !st.Bounds.Contains(a) || !st.Bounds.Contains(b) {
			continue
		}
		s.Segment(a, b, st.EdgeColor, st.EdgeWidth)
	}
}

// DrawCell draws the cell edges, every molecule and the atoms that belong
// to no molecule.
func DrawCell(s Surface, st Style, c *cell.Cell) {
	DrawBasis(s, st, c.Origin, c.Basis)

	bonded := make([]bool, len(c.Atoms))
	for _, m := range c.Molecules {
		DrawMolecule(s, st, m)
		for _, idx := range m.Indices {
			bonded[idx] = true
		}
	}
	for i, a := range c.Atoms {
		if !bonded[i] {
			DrawAtom(s, st, a)
		}
	}
}

// DrawSupercell draws every image of sc.
func DrawSupercell(s Surface, st Style, sc *cell.SuperCell) {
	for _, img := range sc.Images {
		DrawCell(s, st, img)
	}
}
