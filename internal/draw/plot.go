package draw

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/crystalview/internal/fsutil"
	"github.com/banshee-data/crystalview/internal/linalg"
	"github.com/banshee-data/crystalview/internal/monitoring"
)

// Output formats understood by Save.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// FormatFromPath picks the output format from the file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case FormatPNG, FormatSVG, FormatPDF, FormatHTML:
		return ext, nil
	case "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported figure format %q (want png, svg, pdf or html)", ext)
}

// Save writes the figure to path, choosing the backend from the extension.
func (f *Figure) Save(fsys fsutil.FileSystem, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if format == FormatHTML {
		return f.SaveHTML(fsys, path)
	}
	return f.SavePlot(fsys, path)
}

// SavePlot renders the figure with gonum/plot and writes it to path.
func (f *Figure) SavePlot(fsys fsutil.FileSystem, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if format == FormatHTML {
		return fmt.Errorf("SavePlot: %s is not a static image format", format)
	}

	w, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("create figure file: %w", err)
	}
	if err := f.WritePlot(w, format); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close figure file: %w", err)
	}
	monitoring.Logf("wrote %s to %s", f, path)
	return nil
}

// WritePlot renders the figure in the given static format (png, svg, pdf).
func (f *Figure) WritePlot(w io.Writer, format string) error {
	p, err := f.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(f.width(), f.height(), format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

func (f *Figure) width() vg.Length  { return vg.Length(f.opts.WidthCM) * vg.Centimeter }
func (f *Figure) height() vg.Length { return vg.Length(f.opts.HeightCM) * vg.Centimeter }

// Plot projects the recorded scene orthographically and returns it as a
// gonum plot. Primitives are added far to near.
func (f *Figure) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.opts.Title
	if !f.opts.AxisVisible {
		p.HideAxes()
	}

	prims := f.projectScene()
	xmin, xmax, ymin, ymax := f.viewWindow(prims)
	ptsPerUnit := float64(f.width()) / (xmax - xmin)

	for start := 0; start < len(prims); {
		end := start + 1
		if prims[start].kind == sphereKind {
			for end < len(prims) && prims[end].kind == sphereKind {
				end++
			}
			s, err := f.sphereRun(prims[start:end], ptsPerUnit)
			if err != nil {
				return nil, err
			}
			p.Add(s)
		} else {
			l, err := f.segmentLine(prims[start])
			if err != nil {
				return nil, err
			}
			p.Add(l)
		}
		start = end
	}

	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax
	return p, nil
}

func (f *Figure) sphereRun(prims []primitive, ptsPerUnit float64) (*plotter.Scatter, error) {
	pts := make(plotter.XYs, len(prims))
	for i, pr := range prims {
		pts[i] = plotter.XY{X: pr.x0, Y: pr.y0}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("atoms: %w", err)
	}
	s.GlyphStyleFunc = func(i int) vgdraw.GlyphStyle {
		sp := f.Spheres[prims[i].index]
		return vgdraw.GlyphStyle{
			Color:  sp.Color,
			Radius: vg.Length(sp.Radius * ptsPerUnit),
			Shape:  vgdraw.CircleGlyph{},
		}
	}
	return s, nil
}

func (f *Figure) segmentLine(pr primitive) (*plotter.Line, error) {
	seg := f.Segments[pr.index]
	l, err := plotter.NewLine(plotter.XYs{{X: pr.x0, Y: pr.y0}, {X: pr.x1, Y: pr.y1}})
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	l.Color = seg.Color
	l.Width = vg.Points(seg.Width)
	return l, nil
}

// viewWindow returns the 2D data window. A fully bounded figure frames its
// projected limit box; otherwise the window fits the recorded primitives.
// The window is widened on one axis to match the figure's aspect ratio.
func (f *Figure) viewWindow(prims []primitive) (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	grow := func(x, y, r float64) {
		xmin, xmax = math.Min(xmin, x-r), math.Max(xmax, x+r)
		ymin, ymax = math.Min(ymin, y-r), math.Max(ymax, y+r)
	}

	b := f.Bounds()
	if b.X.Bounded() && b.Y.Bounded() && b.Z.Bounded() {
		cam := newCamera(f.opts.Elevation, f.opts.Azimuth)
		for i := 0; i < 8; i++ {
			c := linalg.Vec(pick(b.X, i&1), pick(b.Y, i>>1&1), pick(b.Z, i>>2&1))
			x, y, _ := cam.project(c)
			grow(x, y, 0)
		}
	} else {
		for _, pr := range prims {
			switch pr.kind {
			case sphereKind:
				grow(pr.x0, pr.y0, f.Spheres[pr.index].Radius)
			case segmentKind:
				grow(pr.x0, pr.y0, 0)
				grow(pr.x1, pr.y1, 0)
			}
		}
	}
	if math.IsInf(xmin, 1) {
		return -1, 1, -1, 1
	}

	w, h := xmax-xmin, ymax-ymin
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	aspect := f.opts.WidthCM / f.opts.HeightCM
	if w/h < aspect {
		w = h * aspect
	} else {
		h = w / aspect
	}
	cx, cy := (xmin+xmax)/2, (ymin+ymax)/2
	return cx - w/2, cx + w/2, cy - h/2, cy + h/2
}

func pick(l Limits, hi int) float64 {
	if hi == 1 {
		return l.Max
	}
	return l.Min
}
