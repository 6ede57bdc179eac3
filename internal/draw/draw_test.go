package draw

import (
	"bytes"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/crystalview/internal/cell"
	"github.com/banshee-data/crystalview/internal/cif"
	"github.com/banshee-data/crystalview/internal/fsutil"
	"github.com/banshee-data/crystalview/internal/linalg"
	"github.com/banshee-data/crystalview/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func buildCell(t *testing.T, name string) *cell.Cell {
	t.Helper()
	s, err := cif.Load(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	c, err := cell.Build(s)
	require.NoError(t, err)
	return c
}

// recorder counts primitives without keeping them.
type recorder struct {
	spheres  int
	segments int
	labels   []string
}

func (r *recorder) Sphere(_ linalg.Vector, _ float64, _ color.RGBA, label string) {
	r.spheres++
	r.labels = append(r.labels, label)
}

func (r *recorder) Segment(_, _ linalg.Vector, _ color.RGBA, _ float64) {
	r.segments++
}

func TestLimits(t *testing.T) {
	assert.True(t, Limits{}.Contains(1e9))
	assert.False(t, Limits{}.Bounded())

	l := Limits{Min: -2, Max: 45}
	assert.True(t, l.Contains(-2))
	assert.True(t, l.Contains(45))
	assert.False(t, l.Contains(45.01))

	b := Box{X: l, Y: l}
	assert.True(t, b.Contains(linalg.Vec(0, 0, -100)))
	assert.False(t, b.Contains(linalg.Vec(0, 50, 0)))
}

func TestDefaultFigureOptions(t *testing.T) {
	o := DefaultFigureOptions()
	assert.False(t, o.AxisVisible)
	for _, l := range []Limits{o.XLim, o.YLim, o.ZLim} {
		assert.Equal(t, Limits{Min: -2, Max: 45}, l)
	}

	f := MakeFigure(FigureOptions{Title: "bare"})
	assert.Equal(t, 0.5, f.Options().AtomScale)
	assert.Equal(t, 16.0, f.Options().WidthCM)
	assert.True(t, f.Empty())
}

func TestDrawCellWater(t *testing.T) {
	c := buildCell(t, "water_p21c.cif")
	var r recorder
	DrawCell(&r, DefaultStyle(), c)

	assert.Equal(t, 12, r.spheres)
	// 12 cell edges plus two halves per bond.
	assert.Equal(t, 12+2*len(c.Bonds), r.segments)
}

func TestDrawCellUnbondedAtoms(t *testing.T) {
	s, err := cif.Load(filepath.Join("..", "..", "testdata", "nacl.cif"))
	require.NoError(t, err)
	c, err := cell.Build(s, cell.WithBondMode(cell.BondsNone))
	require.NoError(t, err)

	var r recorder
	DrawCell(&r, DefaultStyle(), c)
	assert.Equal(t, 8, r.spheres)
	assert.Equal(t, 12, r.segments)
}

func TestDrawSkipsOutsideBounds(t *testing.T) {
	c := buildCell(t, "nacl.cif")
	st := DefaultStyle()
	st.Bounds = Box{X: Limits{Min: -0.1, Max: 1}}

	var r recorder
	DrawCell(&r, st, c)

	// Only the x=0 face survives: four atoms, the four bonds between them
	// and the four edges of that face.
	assert.Equal(t, 4, r.spheres)
	assert.Equal(t, 4*2+4, r.segments)
}

func TestDrawAtomScale(t *testing.T) {
	f := MakeFigure(FigureOptions{AtomScale: 0.25})
	DrawAtom(f, f.Style(), cell.Atom{Species: "Na", Label: "Na1", Position: linalg.Vec(1, 1, 1)})

	require.Len(t, f.Spheres, 1)
	assert.InDelta(t, 1.66*0.25, f.Spheres[0].Radius, 1e-12)
	assert.Equal(t, "Na1", f.Spheres[0].Label)

	f.Reset()
	assert.True(t, f.Empty())
}

func TestDrawSupercell(t *testing.T) {
	c := buildCell(t, "water_p21c.cif")
	sc, err := cell.NewSuperCell(c, [3]int{3, 3, 1})
	require.NoError(t, err)

	f := MakeFigure(DefaultFigureOptions())
	DrawSupercell(f, f.Style(), sc)

	assert.Len(t, f.Spheres, 9*12)
	assert.Len(t, f.Segments, 9*(12+2*len(c.Bonds)))
}

func TestCameraProjection(t *testing.T) {
	cam := newCamera(0, 0)
	x, y, d := cam.project(linalg.Vec(1, 2, 3))
	assert.InDelta(t, 2, x, 1e-12)
	assert.InDelta(t, 3, y, 1e-12)
	assert.InDelta(t, 1, d, 1e-12)

	// Looking straight down, z is depth.
	cam = newCamera(90, 0)
	_, _, d = cam.project(linalg.Vec(0, 0, 5))
	assert.InDelta(t, 5, d, 1e-12)
}

func TestProjectSceneOrder(t *testing.T) {
	f := MakeFigure(FigureOptions{Elevation: 0, Azimuth: 0})
	f.Sphere(linalg.Vec(3, 0, 0), 1, color.RGBA{A: 255}, "near")
	f.Sphere(linalg.Vec(-3, 0, 0), 1, color.RGBA{A: 255}, "far")
	f.Segment(linalg.Vec(0, 0, 0), linalg.Vec(0, 1, 0), color.RGBA{A: 255}, 1)

	prims := f.projectScene()
	require.Len(t, prims, 3)
	assert.Equal(t, 1, prims[0].index)
	assert.Equal(t, segmentKind, prims[1].kind)
	assert.Equal(t, 0, prims[2].index)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out/cell.png", FormatPNG, false},
		{"cell.SVG", FormatSVG, false},
		{"cell.pdf", FormatPDF, false},
		{"cell.htm", FormatHTML, false},
		{"cell.html", FormatHTML, false},
		{"cell.txt", "", true},
		{"cell", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveFormats(t *testing.T) {
	c := buildCell(t, "nacl.cif")
	sc, err := cell.NewSuperCell(c, [3]int{2, 2, 1})
	require.NoError(t, err)

	f := MakeFigure(DefaultFigureOptions())
	DrawSupercell(f, f.Style(), sc)

	fsys := fsutil.NewMemoryFileSystem()
	checks := map[string]func([]byte) bool{
		"figs/nacl.png": func(b []byte) bool { return bytes.HasPrefix(b, []byte("\x89PNG")) },
		"figs/nacl.svg": func(b []byte) bool { return bytes.Contains(b, []byte("<svg")) },
		"figs/nacl.pdf": func(b []byte) bool { return bytes.HasPrefix(b, []byte("%PDF")) },
		"figs/nacl.html": func(b []byte) bool {
			return bytes.Contains(b, []byte("scatter3D")) && bytes.Contains(b, []byte("line3D"))
		},
	}
	for path, ok := range checks {
		t.Run(path, func(t *testing.T) {
			require.NoError(t, f.Save(fsys, path))
			data, found := fsys.Bytes(path)
			require.True(t, found)
			assert.True(t, ok(data), "unexpected %s content", path)
		})
	}

	assert.Error(t, f.Save(fsys, "figs/nacl.gif"))
	assert.Error(t, f.SavePlot(fsys, "figs/nacl.html"))
}

func TestWritePlotEmptyFigure(t *testing.T) {
	f := MakeFigure(FigureOptions{Title: "empty", AxisVisible: true})
	var buf bytes.Buffer
	require.NoError(t, f.WritePlot(&buf, FormatSVG))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRenderHTMLSeries(t *testing.T) {
	c := buildCell(t, "water_p21c.cif")
	f := MakeFigure(FigureOptions{Title: "water"})
	DrawCell(f, f.Style(), c)

	chart := f.Chart()
	var scatter, lines int
	for _, s := range chart.MultiSeries {
		switch s.Type {
		case "scatter3D":
			scatter++
		case "line3D":
			lines++
		}
	}
	// One series per element; one per distinct segment style (edges, O and
	// H bond halves).
	assert.Equal(t, 2, scatter)
	assert.Equal(t, 3, lines)

	var buf bytes.Buffer
	require.NoError(t, f.RenderHTML(&buf))
	assert.True(t, strings.Contains(buf.String(), "echarts-gl"))
	assert.Contains(t, buf.String(), "water")
}

func TestSpeciesName(t *testing.T) {
	assert.Equal(t, "Na", speciesName("Na1"))
	assert.Equal(t, "O", speciesName("O12"))
	assert.Equal(t, "Cl", speciesName("Cl"))
	assert.Equal(t, "1X", speciesName("1X"))
}
