package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/crystalview/internal/cell"
	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/draw"
)

// DefaultConfigPath is the path to the canonical view defaults file.
// Every Get* fallback below matches a value in this file.
const DefaultConfigPath = "config/view.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ViewConfig controls how a structure is turned into a cell and how the
// cell is drawn. Nil fields take their defaults, so partial files are safe.
type ViewConfig struct {
	// Cell building
	BondMode          *string  `json:"bond_mode,omitempty"` // auto, cif, covalent, none
	BondTolerance     *float64 `json:"bond_tolerance,omitempty"`
	SymmetryTolerance *float64 `json:"symmetry_tolerance,omitempty"`

	// Rendering
	Supercell      *[3]int     `json:"supercell,omitempty"`
	AxisVisible    *bool       `json:"axis_visible,omitempty"`
	XLim           *[2]float64 `json:"xlim,omitempty"`
	YLim           *[2]float64 `json:"ylim,omitempty"`
	ZLim           *[2]float64 `json:"zlim,omitempty"`
	ViewElevation  *float64    `json:"view_elevation,omitempty"`
	ViewAzimuth    *float64    `json:"view_azimuth,omitempty"`
	AtomScale      *float64    `json:"atom_scale,omitempty"`
	FigureWidthCM  *float64    `json:"figure_width_cm,omitempty"`
	FigureHeightCM *float64    `json:"figure_height_cm,omitempty"`
	OutputFormat   *string     `json:"output_format,omitempty"` // png, svg, pdf, html
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyViewConfig returns a ViewConfig with every field unset.
func EmptyViewConfig() *ViewConfig {
	return &ViewConfig{}
}

// DefaultViewConfig returns a ViewConfig with every field set to its default.
func DefaultViewConfig() *ViewConfig {
	supercell := [3]int{3, 3, 1}
	lim := [2]float64{-2, 45}
	xlim, ylim, zlim := lim, lim, lim
	return &ViewConfig{
		BondMode:          ptrString(string(cell.BondsAuto)),
		BondTolerance:     ptrFloat64(cell.DefaultBondTolerance),
		SymmetryTolerance: ptrFloat64(cif.DefaultSymmetryTolerance),
		Supercell:         &supercell,
		AxisVisible:       ptrBool(false),
		XLim:              &xlim,
		YLim:              &ylim,
		ZLim:              &zlim,
		ViewElevation:     ptrFloat64(30),
		ViewAzimuth:       ptrFloat64(-60),
		AtomScale:         ptrFloat64(0.5),
		FigureWidthCM:     ptrFloat64(16),
		FigureHeightCM:    ptrFloat64(16),
		OutputFormat:      ptrString(draw.FormatPNG),
	}
}

// LoadViewConfig loads a ViewConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadViewConfig(path string) (*ViewConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded; intended for
// test setup.
func MustLoadDefaultConfig() *ViewConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadViewConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the set fields hold usable values.
func (c *ViewConfig) Validate() error {
	if c.BondMode != nil && !cell.BondMode(*c.BondMode).Valid() {
		return fmt.Errorf("bond_mode must be one of auto, cif, covalent, none; got %q", *c.BondMode)
	}
	if c.BondTolerance != nil && *c.BondTolerance <= 0 {
		return fmt.Errorf("bond_tolerance must be positive, got %f", *c.BondTolerance)
	}
	if c.SymmetryTolerance != nil && (*c.SymmetryTolerance <= 0 || *c.SymmetryTolerance >= 0.5) {
		return fmt.Errorf("symmetry_tolerance must be in (0, 0.5), got %f", *c.SymmetryTolerance)
	}
	if c.Supercell != nil {
		for _, n := range c.Supercell {
			if n < 1 {
				return fmt.Errorf("supercell counts must be positive, got %v", *c.Supercell)
			}
		}
	}
	for name, lim := range map[string]*[2]float64{"xlim": c.XLim, "ylim": c.YLim, "zlim": c.ZLim} {
		if lim != nil && lim[0] > lim[1] {
			return fmt.Errorf("%s minimum exceeds maximum: %v", name, *lim)
		}
	}
	if c.AtomScale != nil && *c.AtomScale <= 0 {
		return fmt.Errorf("atom_scale must be positive, got %f", *c.AtomScale)
	}
	if c.FigureWidthCM != nil && *c.FigureWidthCM <= 0 {
		return fmt.Errorf("figure_width_cm must be positive, got %f", *c.FigureWidthCM)
	}
	if c.FigureHeightCM != nil && *c.FigureHeightCM <= 0 {
		return fmt.Errorf("figure_height_cm must be positive, got %f", *c.FigureHeightCM)
	}
	if c.OutputFormat != nil {
		if _, err := draw.FormatFromPath("figure." + *c.OutputFormat); err != nil {
			return fmt.Errorf("output_format: %w", err)
		}
	}
	return nil
}

// GetBondMode returns the bond_mode value or the default.
func (c *ViewConfig) GetBondMode() cell.BondMode {
	if c.BondMode == nil {
		return cell.BondsAuto
	}
	return cell.BondMode(*c.BondMode)
}

// GetBondTolerance returns the bond_tolerance value or the default.
func (c *ViewConfig) GetBondTolerance() float64 {
	if c.BondTolerance == nil {
		return cell.DefaultBondTolerance
	}
	return *c.BondTolerance
}

// GetSymmetryTolerance returns the symmetry_tolerance value or the default.
func (c *ViewConfig) GetSymmetryTolerance() float64 {
	if c.SymmetryTolerance == nil {
		return cif.DefaultSymmetryTolerance
	}
	return *c.SymmetryTolerance
}

// GetSupercell returns the supercell repeats or the default (3, 3, 1).
func (c *ViewConfig) GetSupercell() [3]int {
	if c.Supercell == nil {
		return [3]int{3, 3, 1}
	}
	return *c.Supercell
}

// GetAxisVisible returns the axis_visible value or the default.
func (c *ViewConfig) GetAxisVisible() bool {
	if c.AxisVisible == nil {
		return false
	}
	return *c.AxisVisible
}

// GetOutputFormat returns the output_format value or the default.
func (c *ViewConfig) GetOutputFormat() string {
	if c.OutputFormat == nil {
		return draw.FormatPNG
	}
	return *c.OutputFormat
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getLimits(p *[2]float64, def draw.Limits) draw.Limits {
	if p == nil {
		return def
	}
	return draw.Limits{Min: p[0], Max: p[1]}
}

// BuildOptions returns the cell.Build options this config selects.
func (c *ViewConfig) BuildOptions() []cell.Option {
	return []cell.Option{
		cell.WithBondMode(c.GetBondMode()),
		cell.WithBondTolerance(c.GetBondTolerance()),
	}
}

// LoadOptions returns the cif loader options this config selects.
func (c *ViewConfig) LoadOptions() cif.Options {
	return cif.Options{SymmetryTolerance: c.GetSymmetryTolerance()}
}

// FigureOptions returns the figure settings, falling back to
// draw.DefaultFigureOptions for unset fields.
func (c *ViewConfig) FigureOptions(title string) draw.FigureOptions {
	def := draw.DefaultFigureOptions()
	return draw.FigureOptions{
		Title:       title,
		AxisVisible: c.GetAxisVisible(),
		XLim:        getLimits(c.XLim, def.XLim),
		YLim:        getLimits(c.YLim, def.YLim),
		ZLim:        getLimits(c.ZLim, def.ZLim),
		Elevation:   getFloat(c.ViewElevation, def.Elevation),
		Azimuth:     getFloat(c.ViewAzimuth, def.Azimuth),
		AtomScale:   getFloat(c.AtomScale, def.AtomScale),
		WidthCM:     getFloat(c.FigureWidthCM, def.WidthCM),
		HeightCM:    getFloat(c.FigureHeightCM, def.HeightCM),
	}
}
