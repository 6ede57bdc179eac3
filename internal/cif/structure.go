package cif

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/banshee-data/crystalview/internal/fsutil"
	"github.com/banshee-data/crystalview/internal/linalg"
	"github.com/banshee-data/crystalview/internal/monitoring"
)

const (
	// DefaultSymmetryTolerance is the fractional distance under which two
	// symmetry images are the same atom.
	DefaultSymmetryTolerance = 1e-3

	// DefaultMaxFileSize bounds the size of files read by Load.
	DefaultMaxFileSize = 16 * 1024 * 1024
)

// CellParameters are the lattice lengths (Angstrom) and angles (degrees).
type CellParameters struct {
	A, B, C            float64
	Alpha, Beta, Gamma float64
}

// Basis returns the lattice basis for the parameters.
func (p CellParameters) Basis() linalg.Basis {
	return linalg.LatticeBasis(p.A, p.B, p.C, p.Alpha, p.Beta, p.Gamma)
}

// Site is one atom position in fractional coordinates.
type Site struct {
	Label     string
	Species   string
	Fract     linalg.Vector
	Occupancy float64
}

// BondRecord is one row of the geom_bond table.
type BondRecord struct {
	Label1, Label2 string
	Distance       float64 // zero when the file does not give one
}

// Structure is a parsed crystal structure.
type Structure struct {
	Name       string
	Source     string
	Formula    string
	SpaceGroup string
	Params     CellParameters
	Lattice    linalg.Basis
	Sites      []Site  // asymmetric unit as listed in the file
	Atoms      []Site  // symmetry-expanded unit cell contents
	Symmetry   []SymOp // empty means identity only
	Bonds      []BondRecord
}

// Determinant returns the signed volume of the lattice.
func (s *Structure) Determinant() float64 {
	return s.Lattice.Determinant()
}

// Species returns the distinct species in order of first appearance.
func (s *Structure) Species() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.Atoms {
		if !seen[a.Species] {
			seen[a.Species] = true
			out = append(out, a.Species)
		}
	}
	return out
}

func (s *Structure) String() string {
	return fmt.Sprintf("%s: %s a=%.4f b=%.4f c=%.4f alpha=%.2f beta=%.2f gamma=%.2f, %d sites, %d atoms",
		s.Name, s.SpaceGroup, s.Params.A, s.Params.B, s.Params.C,
		s.Params.Alpha, s.Params.Beta, s.Params.Gamma, len(s.Sites), len(s.Atoms))
}

// New assembles a Structure from its parts, expanding sites by ops.
func New(name string, params CellParameters, sites []Site, ops []SymOp, tol float64) *Structure {
	if tol <= 0 {
		tol = DefaultSymmetryTolerance
	}
	return &Structure{
		Name:     name,
		Params:   params,
		Lattice:  params.Basis(),
		Sites:    sites,
		Atoms:    expand(sites, ops, tol),
		Symmetry: ops,
	}
}

// Options tune loading. The zero value uses the defaults.
type Options struct {
	FS                fsutil.FileSystem
	SymmetryTolerance float64
	MaxFileSize       int64
}

func (o Options) fs() fsutil.FileSystem {
	if o.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return o.FS
}

func (o Options) tolerance() float64 {
	if o.SymmetryTolerance <= 0 {
		return DefaultSymmetryTolerance
	}
	return o.SymmetryTolerance
}

func (o Options) maxFileSize() int64 {
	if o.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return o.MaxFileSize
}

// Load reads the CIF file at path from disk with default options.
func Load(path string) (*Structure, error) {
	return LoadWithOptions(path, Options{})
}

// LoadWithOptions reads the CIF file at path. Every failure, including a
// missing file, is returned as a *ParseError.
func LoadWithOptions(path string, opts Options) (*Structure, error) {
	fsys := opts.fs()

	info, err := fsys.Stat(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("%w: is a directory", ErrSyntax)}
	}
	if info.Size() > opts.maxFileSize() {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), opts.maxFileSize())}
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := Parse(f, path, opts)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("loaded %s from %s: %d sites, %d atoms, %d symmetry ops",
		s.Name, path, len(s.Sites), len(s.Atoms), len(s.Symmetry))
	return s, nil
}

// Parse reads a CIF document from r. source names the input in errors.
func Parse(r io.Reader, source string, opts Options) (*Structure, error) {
	toks, err := tokenize(r)
	if err != nil {
		return nil, wrapParseError(source, err)
	}
	blocks, err := parseBlocks(toks)
	if err != nil {
		return nil, wrapParseError(source, err)
	}
	if len(blocks) == 0 {
		return nil, &ParseError{Path: source, Err: ErrNoDataBlock}
	}
	if len(blocks) > 1 {
		monitoring.Debugf("%s: %d data blocks, using data_%s", source, len(blocks), blocks[0].Name)
	}

	s, err := fromBlock(blocks[0], opts.tolerance())
	if err != nil {
		return nil, wrapParseError(source, err)
	}
	s.Source = source
	return s, nil
}

func fromBlock(b *Block, tol float64) (*Structure, error) {
	params, err := cellParameters(b)
	if err != nil {
		return nil, err
	}
	sites, err := atomSites(b)
	if err != nil {
		return nil, err
	}
	ops, err := symmetryOps(b)
	if err != nil {
		return nil, err
	}
	bonds, err := bondRecords(b)
	if err != nil {
		return nil, err
	}

	s := New(b.Name, params, sites, ops, tol)
	s.Bonds = bonds
	if v, ok := b.FirstItem("_chemical_formula_sum", "_chemical_formula_moiety"); ok {
		s.Formula = v.Text
	}
	if v, ok := b.FirstItem("_chemical_name_common", "_chemical_name_mineral", "_chemical_name_systematic"); ok {
		s.Name = v.Text
	}
	if v, ok := b.FirstItem("_symmetry_space_group_name_h-m", "_space_group_name_h-m_alt", "_space_group.name_h-m_alt"); ok {
		s.SpaceGroup = v.Text
	}
	if s.Name == "" {
		s.Name = s.Formula
	}
	return s, nil
}

func cellParameters(b *Block) (CellParameters, error) {
	var p CellParameters
	fields := []struct {
		tag string
		dst *float64
		def float64 // zero means required
	}{
		{"_cell_length_a", &p.A, 0},
		{"_cell_length_b", &p.B, 0},
		{"_cell_length_c", &p.C, 0},
		{"_cell_angle_alpha", &p.Alpha, 90},
		{"_cell_angle_beta", &p.Beta, 90},
		{"_cell_angle_gamma", &p.Gamma, 90},
	}
	for _, f := range fields {
		v, ok := b.Item(f.tag)
		if !ok || v.Unknown() {
			if f.def == 0 {
				return p, fmt.Errorf("%w: %s", ErrMissingTag, f.tag)
			}
			*f.dst = f.def
			continue
		}
		x, err := v.Float()
		if err != nil {
			return p, fmt.Errorf("%s: %w", f.tag, err)
		}
		*f.dst = x
	}
	return p, nil
}

func atomSites(b *Block) ([]Site, error) {
	l := b.Loop("_atom_site_fract_x")
	if l == nil {
		return nil, fmt.Errorf("%w: _atom_site_fract_x loop", ErrMissingTag)
	}
	cx, cy, cz := l.Column("_atom_site_fract_x"), l.Column("_atom_site_fract_y"), l.Column("_atom_site_fract_z")
	if cy < 0 || cz < 0 {
		return nil, fmt.Errorf("%w: _atom_site_fract_y/_atom_site_fract_z", ErrMissingTag)
	}
	cLabel, cType, cOcc := l.Column("_atom_site_label"), l.Column("_atom_site_type_symbol"), l.Column("_atom_site_occupancy")
	if cLabel < 0 && cType < 0 {
		return nil, fmt.Errorf("%w: _atom_site_label or _atom_site_type_symbol", ErrMissingTag)
	}

	sites := make([]Site, 0, len(l.Rows))
	for _, row := range l.Rows {
		var s Site
		var c [3]float64
		for i, col := range []int{cx, cy, cz} {
			x, err := row[col].Float()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", l.Tags[col], err)
			}
			c[i] = x
		}
		s.Fract = linalg.FromComponents(c)

		if cLabel >= 0 && !row[cLabel].Unknown() {
			s.Label = row[cLabel].Text
		}
		if cType >= 0 && !row[cType].Unknown() {
			s.Species = SpeciesSymbol(row[cType].Text)
		}
		if s.Species == "" {
			s.Species = SpeciesSymbol(s.Label)
		}
		if s.Label == "" {
			s.Label = s.Species
		}

		s.Occupancy = 1
		if cOcc >= 0 && !row[cOcc].Unknown() {
			occ, err := row[cOcc].Float()
			if err != nil {
				return nil, fmt.Errorf("_atom_site_occupancy: %w", err)
			}
			s.Occupancy = occ
		}
		sites = append(sites, s)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("%w: atom_site loop is empty", ErrMissingTag)
	}
	return sites, nil
}

var symopTags = []string{
	"_symmetry_equiv_pos_as_xyz",
	"_space_group_symop_operation_xyz",
	"_space_group_symop.operation_xyz",
}

func symmetryOps(b *Block) ([]SymOp, error) {
	var vals []Value
	for _, tag := range symopTags {
		if l := b.Loop(tag); l != nil {
			col := l.Column(tag)
			for _, row := range l.Rows {
				vals = append(vals, row[col])
			}
			break
		}
		if v, ok := b.Items[tag]; ok {
			vals = append(vals, v)
			break
		}
	}

	ops := make([]SymOp, 0, len(vals))
	for _, v := range vals {
		op, err := ParseSymOp(v.Text)
		if err != nil {
			return nil, &lineError{line: v.Line, err: err}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func bondRecords(b *Block) ([]BondRecord, error) {
	l := b.Loop("_geom_bond_atom_site_label_1")
	if l == nil {
		return nil, nil
	}
	c1, c2, cd := l.Column("_geom_bond_atom_site_label_1"), l.Column("_geom_bond_atom_site_label_2"), l.Column("_geom_bond_distance")
	if c2 < 0 {
		return nil, fmt.Errorf("%w: _geom_bond_atom_site_label_2", ErrMissingTag)
	}
	bonds := make([]BondRecord, 0, len(l.Rows))
	for _, row := range l.Rows {
		br := BondRecord{Label1: row[c1].Text, Label2: row[c2].Text}
		if cd >= 0 && !row[cd].Unknown() {
			d, err := row[cd].Float()
			if err != nil {
				return nil, fmt.Errorf("_geom_bond_distance: %w", err)
			}
			br.Distance = d
		}
		bonds = append(bonds, br)
	}
	return bonds, nil
}

// SpeciesSymbol extracts the element symbol from a type symbol or label:
// "Na1+" and "Na1" give "Na", "O2-" gives "O", "CA" gives "Ca".
func SpeciesSymbol(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !unicode.IsLetter(rune(s[0])) {
		return ""
	}
	out := strings.ToUpper(s[:1])
	if len(s) > 1 && unicode.IsLetter(rune(s[1])) {
		second := strings.ToLower(s[1:2])
		// Keep the second letter only when it forms a plausible two-letter
		// symbol; labels like "OW1" or "HB" are single-letter elements.
		if twoLetterElements[out+second] {
			out += second
		}
	}
	return out
}

var twoLetterElements = map[string]bool{
	"He": true, "Li": true, "Be": true, "Ne": true, "Na": true, "Mg": true, "Al": true, "Si": true,
	"Cl": true, "Ar": true, "Ca": true, "Sc": true, "Ti": true, "Cr": true, "Mn": true, "Fe": true,
	"Co": true, "Ni": true, "Cu": true, "Zn": true, "Ga": true, "Ge": true, "As": true, "Se": true,
	"Br": true, "Kr": true, "Rb": true, "Sr": true, "Zr": true, "Nb": true, "Mo": true, "Tc": true,
	"Ru": true, "Rh": true, "Pd": true, "Ag": true, "Cd": true, "In": true, "Sn": true, "Sb": true,
	"Te": true, "Xe": true, "Cs": true, "Ba": true, "La": true, "Ce": true, "Pr": true, "Nd": true,
	"Pm": true, "Sm": true, "Eu": true, "Gd": true, "Tb": true, "Dy": true, "Ho": true, "Er": true,
	"Tm": true, "Yb": true, "Lu": true, "Hf": true, "Ta": true, "Re": true, "Os": true, "Ir": true,
	"Pt": true, "Au": true, "Hg": true, "Tl": true, "Pb": true, "Bi": true, "Po": true, "At": true,
	"Rn": true, "Fr": true, "Ra": true, "Ac": true, "Th": true, "Pa": true, "Np": true, "Pu": true,
	"Am": true, "Cm": true,
}
