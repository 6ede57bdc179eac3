package cell

import (
	"math"
	"sort"

	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/linalg"
)

// BondMode selects where bonds come from.
type BondMode string

const (
	// BondsAuto uses the file's bond table when it has one, otherwise
	// covalent-radius inference.
	BondsAuto BondMode = "auto"
	// BondsCIF uses only the file's bond table.
	BondsCIF BondMode = "cif"
	// BondsCovalent always infers bonds from covalent radii.
	BondsCovalent BondMode = "covalent"
	// BondsNone disables bonding; the cell has no molecules.
	BondsNone BondMode = "none"
)

// Valid reports whether m is one of the known modes.
func (m BondMode) Valid() bool {
	switch m {
	case BondsAuto, BondsCIF, BondsCovalent, BondsNone:
		return true
	}
	return false
}

const (
	// DefaultBondTolerance is added to the sum of covalent radii.
	DefaultBondTolerance = 0.45
	// MinBondLength rejects pairs that are too close to be a bond (overlapping
	// partial occupancies, duplicate sites).
	MinBondLength = 0.4
	// tableDistanceTolerance is how far a measured distance may stray from the
	// distance listed in a geom_bond row.
	tableDistanceTolerance = 0.1
)

// gridKey identifies one cube of the neighbour grid.
type gridKey struct{ x, y, z int64 }

// neighbourGrid buckets atoms into cubes of side cellSize so that pairs
// closer than cellSize are found by looking at the 27 surrounding cubes.
type neighbourGrid struct {
	cellSize float64
	cells    map[gridKey][]int
}

func newNeighbourGrid(atoms []Atom, cellSize float64) *neighbourGrid {
	g := &neighbourGrid{cellSize: cellSize, cells: make(map[gridKey][]int, len(atoms))}
	for i, a := range atoms {
		k := g.key(a.Position)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *neighbourGrid) key(p linalg.Vector) gridKey {
	return gridKey{
		x: int64(math.Floor(p.X / g.cellSize)),
		y: int64(math.Floor(p.Y / g.cellSize)),
		z: int64(math.Floor(p.Z / g.cellSize)),
	}
}

// candidates returns indices greater than i in the cubes around atom i.
func (g *neighbourGrid) candidates(atoms []Atom, i int) []int {
	k := g.key(atoms[i].Position)
	var out []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, j := range g.cells[gridKey{k.x + dx, k.y + dy, k.z + dz}] {
					if j > i {
						out = append(out, j)
					}
				}
			}
		}
	}
	sort.Ints(out)
	return out
}

// covalentBonds finds pairs closer than the sum of their covalent radii plus
// tolerance. Only atoms inside the cell are considered; bonds that cross a
// cell face are not reported.
func covalentBonds(atoms []Atom, tolerance float64) []Bond {
	if len(atoms) < 2 {
		return nil
	}
	radii := make([]float64, len(atoms))
	maxR := 0.0
	for i, a := range atoms {
		radii[i] = a.Element().CovalentRadius
		maxR = math.Max(maxR, radii[i])
	}
	grid := newNeighbourGrid(atoms, 2*maxR+tolerance)

	var bonds []Bond
	for i := range atoms {
		for _, j := range grid.candidates(atoms, i) {
			d := linalg.Distance(atoms[i].Position, atoms[j].Position)
			if d >= MinBondLength && d <= radii[i]+radii[j]+tolerance {
				bonds = append(bonds, Bond{I: i, J: j})
			}
		}
	}
	return bonds
}

// tableBonds resolves geom_bond rows against the expanded atoms. Each row
// bonds every pair of atoms with matching labels whose separation agrees with
// the listed distance; rows without a distance fall back to the covalent
// criterion.
func tableBonds(atoms []Atom, records []cif.BondRecord, tolerance float64) []Bond {
	byLabel := make(map[string][]int)
	for i, a := range atoms {
		byLabel[a.Label] = append(byLabel[a.Label], i)
	}

	seen := make(map[Bond]bool)
	var bonds []Bond
	for _, r := range records {
		for _, i := range byLabel[r.Label1] {
			for _, j := range byLabel[r.Label2] {
				if i == j {
					continue
				}
				d := linalg.Distance(atoms[i].Position, atoms[j].Position)
				ok := false
				if r.Distance > 0 {
					ok = math.Abs(d-r.Distance) <= tableDistanceTolerance
				} else {
					ok = d >= MinBondLength && d <= atoms[i].Element().CovalentRadius+atoms[j].Element().CovalentRadius+tolerance
				}
				if !ok {
					continue
				}
				b := Bond{I: min(i, j), J: max(i, j)}
				if !seen[b] {
					seen[b] = true
					bonds = append(bonds, b)
				}
			}
		}
	}
	sort.Slice(bonds, func(a, b int) bool {
		if bonds[a].I != bonds[b].I {
			return bonds[a].I < bonds[b].I
		}
		return bonds[a].J < bonds[b].J
	})
	return bonds
}

// molecules groups bonded atoms into connected components of two or more
// atoms, expanding each from its lowest-index atom with a work queue.
func molecules(atoms []Atom, bonds []Bond) []Molecule {
	adj := make([][]int, len(atoms))
	for _, b := range bonds {
		adj[b.I] = append(adj[b.I], b.J)
		adj[b.J] = append(adj[b.J], b.I)
	}

	label := make([]int, len(atoms)) // 0 = unvisited, >0 = component
	var out []Molecule
	component := 0
	for seed := range atoms {
		if label[seed] != 0 || len(adj[seed]) == 0 {
			continue
		}
		component++
		label[seed] = component
		queue := []int{seed}
		for q := 0; q < len(queue); q++ {
			for _, n := range adj[queue[q]] {
				if label[n] == 0 {
					label[n] = component
					queue = append(queue, n)
				}
			}
		}
		sort.Ints(queue)

		local := make(map[int]int, len(queue))
		m := Molecule{Atoms: make([]Atom, len(queue)), Indices: queue}
		for k, idx := range queue {
			local[idx] = k
			m.Atoms[k] = atoms[idx]
		}
		for _, b := range bonds {
			if label[b.I] == component {
				m.Bonds = append(m.Bonds, Bond{I: local[b.I], J: local[b.J]})
			}
		}
		out = append(out, m)
	}
	return out
}
