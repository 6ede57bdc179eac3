package cell

import (
	"errors"
	"fmt"

	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/linalg"
	"github.com/banshee-data/crystalview/internal/monitoring"
)

// ConversionError reports a structure that cannot be turned into a cell.
type ConversionError struct {
	Structure string
	Reason    string
	Volume    float64
	Err       error // underlying cause, if any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cell: cannot build %q: %s (volume %.4g)", e.Structure, e.Reason, e.Volume)
}

func (e *ConversionError) Unwrap() error { return e.Err }

var (
	// ErrNilStructure is wrapped by the ConversionError returned for a nil input.
	ErrNilStructure = errors.New("nil structure")
	// ErrNilCell is returned by NewSuperCell for a nil cell.
	ErrNilCell = errors.New("nil cell")
)

type buildOptions struct {
	bondMode      BondMode
	bondTolerance float64
}

// Option configures Build.
type Option func(*buildOptions)

// WithBondMode selects the bond source. Unknown modes fall back to BondsAuto.
func WithBondMode(m BondMode) Option {
	return func(o *buildOptions) {
		if m.Valid() {
			o.bondMode = m
		}
	}
}

// WithBondTolerance sets the slack added to summed covalent radii.
// Non-positive values keep the default.
func WithBondTolerance(tol float64) Option {
	return func(o *buildOptions) {
		if tol > 0 {
			o.bondTolerance = tol
		}
	}
}

// Build places the structure's atoms in Cartesian space using its lattice
// basis. It returns one Atom per structure atom, in order, and groups bonded
// atoms into Molecules when bonding information is available.
func Build(s *cif.Structure, opts ...Option) (*Cell, error) {
	o := buildOptions{bondMode: BondsAuto, bondTolerance: DefaultBondTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	if s == nil {
		return nil, &ConversionError{Reason: ErrNilStructure.Error(), Err: ErrNilStructure}
	}

	det := s.Lattice.Determinant()
	switch {
	case det < -linalg.DegenerateVolume:
		return nil, &ConversionError{Structure: s.Name, Reason: "left-handed lattice", Volume: det}
	case det <= linalg.DegenerateVolume || s.Lattice.Singular():
		return nil, &ConversionError{Structure: s.Name, Reason: "degenerate lattice (zero volume)", Volume: det}
	}

	c := &Cell{
		Name:  s.Name,
		Basis: s.Lattice,
		Atoms: make([]Atom, len(s.Atoms)),
	}
	for i, site := range s.Atoms {
		pos := s.Lattice.ToCartesian(site.Fract)
		if !linalg.IsFinite(pos) {
			return nil, &ConversionError{Structure: s.Name, Reason: fmt.Sprintf("non-finite position for atom %s", site.Label), Volume: det}
		}
		c.Atoms[i] = Atom{Species: site.Species, Label: site.Label, Position: pos}
	}

	switch o.bondMode {
	case BondsNone:
	case BondsCIF:
		c.Bonds = tableBonds(c.Atoms, s.Bonds, o.bondTolerance)
	case BondsCovalent:
		c.Bonds = covalentBonds(c.Atoms, o.bondTolerance)
	default:
		if len(s.Bonds) > 0 {
			c.Bonds = tableBonds(c.Atoms, s.Bonds, o.bondTolerance)
		} else {
			c.Bonds = covalentBonds(c.Atoms, o.bondTolerance)
		}
	}
	c.Molecules = molecules(c.Atoms, c.Bonds)

	monitoring.Debugf("built cell %s: %d atoms, %d bonds (%s), %d molecules",
		c.Name, len(c.Atoms), len(c.Bonds), o.bondMode, len(c.Molecules))
	return c, nil
}
