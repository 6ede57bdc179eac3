// Package catalog stores parsed structures in SQLite so they can be listed
// and reloaded without the original CIF file.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/linalg"
	"github.com/banshee-data/crystalview/internal/monitoring"
	"github.com/banshee-data/crystalview/internal/timeutil"
)

// ErrNotFound is returned when no structure has the requested ID.
var ErrNotFound = errors.New("catalog: structure not found")

// Catalog is a SQLite-backed structure store.
type Catalog struct {
	db    *sql.DB
	path  string
	clock timeutil.Clock
}

// Summary is one row of List.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Formula    string    `json:"formula"`
	SpaceGroup string    `json:"space_group"`
	SourcePath string    `json:"source_path"`
	AtomCount  int       `json:"atom_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Open opens or creates the catalogue at path and brings its schema up to
// date. Use ":memory:" for a throwaway catalogue.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db, path: path, clock: timeutil.RealClock{}}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Debugf("catalog %s ready", path)
	return c, nil
}

// DB exposes the underlying handle for read-only debugging tools.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

// Path returns the path the catalogue was opened with.
func (c *Catalog) Path() string {
	return c.path
}

// SetClock replaces the clock used for creation timestamps.
func (c *Catalog) SetClock(clock timeutil.Clock) {
	c.clock = clock
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Save stores s and returns its new ID. sourcePath overrides s.Source when
// not empty.
func (c *Catalog) Save(ctx context.Context, s *cif.Structure, sourcePath string) (string, error) {
	if s == nil {
		return "", errors.New("catalog: nil structure")
	}
	if sourcePath == "" {
		sourcePath = s.Source
	}
	id := uuid.NewString()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	p := s.Params
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO structures (
			structure_id, name, source_path, formula, space_group,
			cell_a, cell_b, cell_c, cell_alpha, cell_beta, cell_gamma,
			atom_count, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.Name, sourcePath, s.Formula, s.SpaceGroup,
		p.A, p.B, p.C, p.Alpha, p.Beta, p.Gamma,
		len(s.Atoms), c.clock.Now().UnixNano(),
	); err != nil {
		return "", fmt.Errorf("insert structure: %w", err)
	}

	if err := insertSites(ctx, tx, id, "site", s.Sites); err != nil {
		return "", err
	}
	if err := insertSites(ctx, tx, id, "atom", s.Atoms); err != nil {
		return "", err
	}
	for i, op := range s.Symmetry {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO structure_symops (structure_id, op_index, operation) VALUES (?, ?, ?)`,
			id, i, op.Text,
		); err != nil {
			return "", fmt.Errorf("insert symop %d: %w", i, err)
		}
	}
	for i, b := range s.Bonds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO structure_bonds (structure_id, bond_index, label_1, label_2, distance) VALUES (?, ?, ?, ?, ?)`,
			id, i, b.Label1, b.Label2, b.Distance,
		); err != nil {
			return "", fmt.Errorf("insert bond %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save: %w", err)
	}
	monitoring.Logf("catalog: saved %s as %s", s.Name, id)
	return id, nil
}

func insertSites(ctx context.Context, tx *sql.Tx, id, kind string, sites []cif.Site) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO structure_sites (
			structure_id, kind, site_index, label, species,
			fract_x, fract_y, fract_z, occupancy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", kind, err)
	}
	defer stmt.Close()

	for i, s := range sites {
		if _, err := stmt.ExecContext(ctx, id, kind, i, s.Label, s.Species, s.Fract.X, s.Fract.Y, s.Fract.Z, s.Occupancy); err != nil {
			return fmt.Errorf("insert %s %d: %w", kind, i, err)
		}
	}
	return nil
}

// Get loads the structure stored under id. The lattice basis is rebuilt
// from the stored cell parameters.
func (c *Catalog) Get(ctx context.Context, id string) (*cif.Structure, error) {
	s := &cif.Structure{}
	var p cif.CellParameters
	err := c.db.QueryRowContext(ctx, `
		SELECT name, source_path, formula, space_group,
			cell_a, cell_b, cell_c, cell_alpha, cell_beta, cell_gamma
		FROM structures WHERE structure_id = ?`, id,
	).Scan(&s.Name, &s.Source, &s.Formula, &s.SpaceGroup, &p.A, &p.B, &p.C, &p.Alpha, &p.Beta, &p.Gamma)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query structure %s: %w", id, err)
	}
	s.Params = p
	s.Lattice = p.Basis()

	if s.Sites, err = c.sites(ctx, id, "site"); err != nil {
		return nil, err
	}
	if s.Atoms, err = c.sites(ctx, id, "atom"); err != nil {
		return nil, err
	}
	if s.Symmetry, err = c.symops(ctx, id); err != nil {
		return nil, err
	}
	if s.Bonds, err = c.bonds(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Catalog) sites(ctx context.Context, id, kind string) ([]cif.Site, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT label, species, fract_x, fract_y, fract_z, occupancy
		FROM structure_sites WHERE structure_id = ? AND kind = ?
		ORDER BY site_index`, id, kind)
	if err != nil {
		return nil, fmt.Errorf("query %ss: %w", kind, err)
	}
	defer rows.Close()

	var out []cif.Site
	for rows.Next() {
		var s cif.Site
		var x, y, z float64
		if err := rows.Scan(&s.Label, &s.Species, &x, &y, &z, &s.Occupancy); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		s.Fract = linalg.Vec(x, y, z)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Catalog) symops(ctx context.Context, id string) ([]cif.SymOp, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT operation FROM structure_symops WHERE structure_id = ? ORDER BY op_index`, id)
	if err != nil {
		return nil, fmt.Errorf("query symops: %w", err)
	}
	defer rows.Close()

	var out []cif.SymOp
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan symop: %w", err)
		}
		op, err := cif.ParseSymOp(text)
		if err != nil {
			return nil, fmt.Errorf("stored symop: %w", err)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

func (c *Catalog) bonds(ctx context.Context, id string) ([]cif.BondRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT label_1, label_2, distance FROM structure_bonds WHERE structure_id = ? ORDER BY bond_index`, id)
	if err != nil {
		return nil, fmt.Errorf("query bonds: %w", err)
	}
	defer rows.Close()

	var out []cif.BondRecord
	for rows.Next() {
		var b cif.BondRecord
		if err := rows.Scan(&b.Label1, &b.Label2, &b.Distance); err != nil {
			return nil, fmt.Errorf("scan bond: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// List returns up to limit summaries, newest first. A non-positive limit
// returns everything.
func (c *Catalog) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT structure_id, name, formula, space_group, source_path, atom_count, created_unix_nanos
		FROM structures
		ORDER BY created_unix_nanos DESC, name
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list structures: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var created int64
		if err := rows.Scan(&s.ID, &s.Name, &s.Formula, &s.SpaceGroup, &s.SourcePath, &s.AtomCount, &created); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the structure stored under id.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM structures WHERE structure_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete structure: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, table := range []string{"structure_sites", "structure_symops", "structure_bonds"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE structure_id = ?", id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}
