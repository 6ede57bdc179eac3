package viewer

import (
	"github.com/banshee-data/crystalview/internal/cell"
	"github.com/banshee-data/crystalview/internal/cif"
)

// CellSummary is the JSON form of a built cell.
type CellSummary struct {
	Name       string         `json:"name"`
	Source     string         `json:"source,omitempty"`
	SpaceGroup string         `json:"space_group,omitempty"`
	Formula    string         `json:"formula"`
	Cell       CellParameters `json:"cell"`
	Volume     float64        `json:"volume"`
	Atoms      int            `json:"atoms"`
	Bonds      int            `json:"bonds"`
	Molecules  map[string]int `json:"molecules"` // formula -> count
	Species    map[string]int `json:"species"`
}

// CellParameters are the lattice lengths and angles.
type CellParameters struct {
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	C     float64 `json:"c"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Summarize describes c, built from s.
func Summarize(s *cif.Structure, c *cell.Cell) CellSummary {
	mols := make(map[string]int)
	for _, m := range c.Molecules {
		mols[m.Formula()]++
	}
	p := s.Params
	return CellSummary{
		Name:       c.Name,
		Source:     s.Source,
		SpaceGroup: s.SpaceGroup,
		Formula:    c.Formula(),
		Cell:       CellParameters{A: p.A, B: p.B, C: p.C, Alpha: p.Alpha, Beta: p.Beta, Gamma: p.Gamma},
		Volume:     c.Volume(),
		Atoms:      c.Len(),
		Bonds:      len(c.Bonds),
		Molecules:  mols,
		Species:    c.SpeciesCounts(),
	}
}
