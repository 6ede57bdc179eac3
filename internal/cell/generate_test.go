package cell

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/linalg"
	"github.com/banshee-data/crystalview/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func loadStructure(t *testing.T, name string) *cif.Structure {
	t.Helper()
	s, err := cif.Load(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return s
}

func buildCell(t *testing.T, name string, opts ...Option) *Cell {
	t.Helper()
	c, err := Build(loadStructure(t, name), opts...)
	require.NoError(t, err)
	return c
}

func TestBuildAtomCountMatchesStructure(t *testing.T) {
	for _, name := range []string{"nacl.cif", "water_p21c.cif"} {
		t.Run(name, func(t *testing.T) {
			s := loadStructure(t, name)
			c, err := Build(s)
			require.NoError(t, err)

			require.Equal(t, len(s.Atoms), c.Len())
			for i, a := range c.Atoms {
				assert.Equal(t, s.Atoms[i].Species, a.Species)
				assert.Equal(t, s.Atoms[i].Label, a.Label)
			}
			assert.InDelta(t, s.Lattice.Volume(), c.Volume(), 1e-9)
		})
	}
}

func TestFractionalRoundTrip(t *testing.T) {
	for _, name := range []string{"nacl.cif", "water_p21c.cif"} {
		t.Run(name, func(t *testing.T) {
			s := loadStructure(t, name)
			c, err := Build(s)
			require.NoError(t, err)

			fr, err := c.FractionalCoordinates()
			require.NoError(t, err)
			require.Len(t, fr, len(s.Atoms))
			for i, f := range fr {
				want := linalg.Components(s.Atoms[i].Fract)
				got := linalg.Components(f)
				for k := range want {
					assert.InDelta(t, want[k], got[k], 1e-9, "atom %d component %d", i, k)
				}
			}
		})
	}
}

func TestBuildDegenerateLattice(t *testing.T) {
	_, err := Build(loadStructure(t, "degenerate.cif"))
	require.Error(t, err)

	var ce *ConversionError
	require.True(t, errors.As(err, &ce), "expected *ConversionError, got %T", err)
	assert.Equal(t, "flat", ce.Structure)
	assert.Contains(t, ce.Reason, "degenerate")
	assert.InDelta(t, 0, ce.Volume, 1e-9)
}

func TestBuildZeroLength(t *testing.T) {
	s := cif.New("zero", cif.CellParameters{A: 0, B: 4, C: 4, Alpha: 90, Beta: 90, Gamma: 90},
		[]cif.Site{{Label: "C1", Species: "C"}}, nil, 0)
	_, err := Build(s)
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
}

func TestBuildLeftHanded(t *testing.T) {
	s := &cif.Structure{
		Name:    "mirror",
		Lattice: linalg.NewBasis(linalg.Vec(1, 0, 0), linalg.Vec(0, 1, 0), linalg.Vec(0, 0, -1)),
		Atoms:   []cif.Site{{Label: "X", Species: "C"}},
	}
	_, err := Build(s)
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "left-handed lattice", ce.Reason)
	assert.Less(t, ce.Volume, 0.0)
}

func TestBuildNil(t *testing.T) {
	_, err := Build(nil)
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "nil structure")
	assert.ErrorIs(t, err, ErrNilStructure)
}

func TestBuildWaterMolecules(t *testing.T) {
	c := buildCell(t, "water_p21c.cif")

	assert.Len(t, c.Bonds, 8)
	require.Len(t, c.Molecules, 4)
	for _, m := range c.Molecules {
		assert.Equal(t, "H2O", m.Formula())
		assert.Len(t, m.Atoms, 3)
		assert.Len(t, m.Bonds, 2)
		for _, b := range m.Bonds {
			d := linalg.Distance(m.Atoms[b.I].Position, m.Atoms[b.J].Position)
			assert.InDelta(t, 0.96, d, 1e-3)
		}
		// Molecule atoms are the cell's atoms.
		for k, idx := range m.Indices {
			assert.Equal(t, c.Atoms[idx], m.Atoms[k])
		}
	}
	assert.Equal(t, "H8O4", c.Formula())
}

func TestBondModesAgreeOnWater(t *testing.T) {
	fromTable := buildCell(t, "water_p21c.cif", WithBondMode(BondsCIF))
	inferred := buildCell(t, "water_p21c.cif", WithBondMode(BondsCovalent))

	if diff := cmp.Diff(fromTable.Bonds, inferred.Bonds); diff != "" {
		t.Errorf("table and covalent bonds differ (-table +covalent):\n%s", diff)
	}

	none := buildCell(t, "water_p21c.cif", WithBondMode(BondsNone))
	assert.Empty(t, none.Bonds)
	assert.Empty(t, none.Molecules)
}

func TestBondToleranceOption(t *testing.T) {
	// The H...H distance inside a water molecule is about 1.52 A: bonded
	// only once the tolerance exceeds 1.52 - 2*0.31.
	tight := buildCell(t, "water_p21c.cif", WithBondMode(BondsCovalent), WithBondTolerance(0.5))
	loose := buildCell(t, "water_p21c.cif", WithBondMode(BondsCovalent), WithBondTolerance(1.0))
	assert.Len(t, tight.Bonds, 8)
	assert.Len(t, loose.Bonds, 12)
	assert.Len(t, loose.Molecules, 4)
}

func TestNaClCovalentNetwork(t *testing.T) {
	c := buildCell(t, "nacl.cif")

	// Each Na has three Cl neighbours at a/2 inside the cell.
	assert.Len(t, c.Bonds, 12)
	require.Len(t, c.Molecules, 1)
	assert.Equal(t, "Cl4Na4", c.Molecules[0].Formula())
	assert.Equal(t, map[string]int{"Na": 4, "Cl": 4}, c.SpeciesCounts())
}

func TestTranslateDoesNotAlias(t *testing.T) {
	c := buildCell(t, "water_p21c.cif")
	before := c.Atoms[0].Position

	moved := c.Translate(linalg.Vec(1, 2, 3))
	assert.Equal(t, before, c.Atoms[0].Position)
	assert.InDelta(t, before.X+1, moved.Atoms[0].Position.X, 1e-12)
	assert.InDelta(t, before.Z+3, moved.Molecules[0].Atoms[0].Position.Z, 1e-12)

	// Fractional coordinates are relative to the moved origin.
	f0, err := c.Fractional(0)
	require.NoError(t, err)
	f1, err := moved.Fractional(0)
	require.NoError(t, err)
	assert.InDelta(t, f0.X, f1.X, 1e-9)
}

func TestBounds(t *testing.T) {
	c := buildCell(t, "nacl.cif")
	lo, hi := c.Bounds()
	assert.InDelta(t, 0, lo.X, 1e-9)
	assert.InDelta(t, 5.6402, hi.Z, 1e-9)
}

func TestLookupElement(t *testing.T) {
	e, ok := LookupElement("Na1+")
	assert.True(t, ok)
	assert.Equal(t, "Na", e.Symbol)
	assert.InDelta(t, 1.66, e.CovalentRadius, 1e-12)

	e, ok = LookupElement("Xx")
	assert.False(t, ok)
	assert.Equal(t, DefaultRadius, e.CovalentRadius)
	assert.Equal(t, DefaultColor, e.Color)
}

func TestElementTableCoversHydrogenToBismuth(t *testing.T) {
	symbols := strings.Fields(`H He Li Be B C N O F Ne Na Mg Al Si P S Cl Ar K Ca
		Sc Ti V Cr Mn Fe Co Ni Cu Zn Ga Ge As Se Br Kr Rb Sr Y Zr Nb Mo Tc Ru Rh Pd
		Ag Cd In Sn Sb Te I Xe Cs Ba La Ce Pr Nd Pm Sm Eu Gd Tb Dy Ho Er Tm Yb Lu Hf
		Ta W Re Os Ir Pt Au Hg Tl Pb Bi`)
	require.Len(t, symbols, 83)
	for _, sym := range symbols {
		e, ok := LookupElement(sym)
		if assert.True(t, ok, "missing element %s", sym) {
			assert.Equal(t, sym, e.Symbol)
			assert.Greater(t, e.CovalentRadius, 0.0, sym)
			assert.NotEqual(t, DefaultColor, e.Color, sym)
		}
	}

	e, ok := LookupElement("Eu3+")
	assert.True(t, ok)
	assert.InDelta(t, 1.98, e.CovalentRadius, 1e-12)
}

func TestFormula(t *testing.T) {
	atoms := func(species ...string) []Atom {
		out := make([]Atom, len(species))
		for i, s := range species {
			out[i] = Atom{Species: s}
		}
		return out
	}
	assert.Equal(t, "CH4", formula(atoms("H", "C", "H", "H", "H")))
	assert.Equal(t, "C2H6O", formula(atoms("O", "C", "H", "H", "H", "C", "H", "H", "H")))
	assert.Equal(t, "ClNa", formula(atoms("Na", "Cl")))
	assert.Equal(t, "", formula(nil))
}

func TestBondModeValid(t *testing.T) {
	assert.True(t, BondsAuto.Valid())
	assert.True(t, BondsNone.Valid())
	assert.False(t, BondMode("magic").Valid())
}
