package cell

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/crystalview/internal/linalg"
)

// Atom is a species at a Cartesian position.
type Atom struct {
	Species  string
	Label    string
	Position linalg.Vector
}

// Element returns the element table entry for the atom's species.
func (a Atom) Element() Element {
	e, _ := LookupElement(a.Species)
	return e
}

// Bond joins two atoms by index into the owning slice.
type Bond struct {
	I, J int
}

// Molecule is a bonded group of atoms. Bonds index into Atoms; Indices maps
// each molecule atom back to its position in the owning Cell.
type Molecule struct {
	Atoms   []Atom
	Bonds   []Bond
	Indices []int
}

// Formula returns a Hill-ordered formula such as "H2O".
func (m Molecule) Formula() string {
	return formula(m.Atoms)
}

// Centroid returns the mean atom position.
func (m Molecule) Centroid() linalg.Vector {
	return centroid(m.Atoms)
}

// Cell is one repeat unit: a basis and the atoms placed in it.
type Cell struct {
	Name      string
	Basis     linalg.Basis
	Origin    linalg.Vector // Cartesian position of fractional (0,0,0)
	Atoms     []Atom
	Bonds     []Bond // indices into Atoms
	Molecules []Molecule
}

// Len returns the number of atoms in the cell.
func (c *Cell) Len() int {
	return len(c.Atoms)
}

// Volume returns the cell volume.
func (c *Cell) Volume() float64 {
	return c.Basis.Volume()
}

// Fractional returns the coordinates of atom i in the cell's basis.
func (c *Cell) Fractional(i int) (linalg.Vector, error) {
	return c.Basis.ToFractional(r3.Sub(c.Atoms[i].Position, c.Origin))
}

// FractionalCoordinates returns the coordinates of every atom in the cell's
// basis, in atom order.
func (c *Cell) FractionalCoordinates() ([]linalg.Vector, error) {
	out := make([]linalg.Vector, len(c.Atoms))
	for i := range c.Atoms {
		f, err := c.Fractional(i)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Translate returns a copy of the cell moved by t.
func (c *Cell) Translate(t linalg.Vector) *Cell {
	out := &Cell{
		Name:      c.Name,
		Basis:     c.Basis,
		Origin:    r3.Add(c.Origin, t),
		Atoms:     translateAtoms(c.Atoms, t),
		Bonds:     append([]Bond(nil), c.Bonds...),
		Molecules: make([]Molecule, len(c.Molecules)),
	}
	for i, m := range c.Molecules {
		out.Molecules[i] = Molecule{
			Atoms:   translateAtoms(m.Atoms, t),
			Bonds:   append([]Bond(nil), m.Bonds...),
			Indices: append([]int(nil), m.Indices...),
		}
	}
	return out
}

// Corners returns the eight Cartesian corners of the cell.
func (c *Cell) Corners() [8]linalg.Vector {
	return c.Basis.Corners(c.Origin)
}

// Bounds returns the axis-aligned box containing the cell corners and atoms.
func (c *Cell) Bounds() (min, max linalg.Vector) {
	corners := c.Corners()
	pts := append(corners[:], positions(c.Atoms)...)
	return bounds(pts)
}

// SpeciesCounts returns the number of atoms per species.
func (c *Cell) SpeciesCounts() map[string]int {
	counts := make(map[string]int)
	for _, a := range c.Atoms {
		counts[a.Species]++
	}
	return counts
}

// Formula returns the Hill-ordered formula of the cell contents.
func (c *Cell) Formula() string {
	return formula(c.Atoms)
}

func (c *Cell) String() string {
	return fmt.Sprintf("%s: %d atoms, %d bonds, %d molecules, volume %.3f",
		c.Name, len(c.Atoms), len(c.Bonds), len(c.Molecules), c.Volume())
}

func translateAtoms(atoms []Atom, t linalg.Vector) []Atom {
	out := make([]Atom, len(atoms))
	for i, a := range atoms {
		a.Position = r3.Add(a.Position, t)
		out[i] = a
	}
	return out
}

func positions(atoms []Atom) []linalg.Vector {
	out := make([]linalg.Vector, len(atoms))
	for i, a := range atoms {
		out[i] = a.Position
	}
	return out
}

func centroid(atoms []Atom) linalg.Vector {
	var sum linalg.Vector
	if len(atoms) == 0 {
		return sum
	}
	for _, a := range atoms {
		sum = r3.Add(sum, a.Position)
	}
	return r3.Scale(1/float64(len(atoms)), sum)
}

func bounds(pts []linalg.Vector) (min, max linalg.Vector) {
	min = linalg.Vec(math.Inf(1), math.Inf(1), math.Inf(1))
	max = linalg.Vec(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	for _, p := range pts {
		min = linalg.Vec(math.Min(min.X, p.X), math.Min(min.Y, p.Y), math.Min(min.Z, p.Z))
		max = linalg.Vec(math.Max(max.X, p.X), math.Max(max.Y, p.Y), math.Max(max.Z, p.Z))
	}
	return min, max
}
