package draw

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/banshee-data/crystalview/internal/fsutil"
	"github.com/banshee-data/crystalview/internal/monitoring"
)

// EchartsAssetsHost is where the rendered page loads echarts from. An empty
// value uses the go-echarts default CDN.
var EchartsAssetsHost = ""

// Chart builds an interactive 3D chart: one scatter3D series per species and
// one line3D series per segment colour.
func (f *Figure) Chart() *charts.Scatter3D {
	chart := charts.NewScatter3D()

	initOpts := opts.Initialization{PageTitle: f.pageTitle(), Width: "900px", Height: "900px"}
	if EchartsAssetsHost != "" {
		initOpts.AssetsHost = EchartsAssetsHost
	}
	show := opts.Bool(f.opts.AxisVisible)
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: f.opts.Title, Subtitle: f.String()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "x", Show: show, Min: limitOrNil(f.opts.XLim, false), Max: limitOrNil(f.opts.XLim, true)}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "y", Show: show, Min: limitOrNil(f.opts.YLim, false), Max: limitOrNil(f.opts.YLim, true)}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "z", Show: show, Min: limitOrNil(f.opts.ZLim, false), Max: limitOrNil(f.opts.ZLim, true)}),
		charts.WithGrid3DOpts(opts.Grid3D{Show: show}),
	)

	for _, g := range f.sphereGroups() {
		chart.AddSeries(g.name, g.data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: g.size}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: g.color}),
		)
	}
	for _, g := range f.segmentGroups() {
		s := charts.SingleSeries{
			Name:        g.name,
			Type:        types.ChartLine3D,
			Data:        g.data,
			CoordSystem: types.ChartCartesian3D,
		}
		s.ConfigureSeriesOpts(charts.WithLineStyleOpts(opts.LineStyle{Color: g.color, Width: g.width}))
		chart.MultiSeries = append(chart.MultiSeries, s)
	}
	return chart
}

// RenderHTML writes the interactive page to w.
func (f *Figure) RenderHTML(w io.Writer) error {
	if err := f.Chart().Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// SaveHTML writes the interactive page to path.
func (f *Figure) SaveHTML(fsys fsutil.FileSystem, path string) error {
	w, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("create figure file: %w", err)
	}
	if err := f.RenderHTML(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close figure file: %w", err)
	}
	monitoring.Logf("wrote %s to %s", f, path)
	return nil
}

func (f *Figure) pageTitle() string {
	if f.opts.Title == "" {
		return "crystalview"
	}
	return f.opts.Title
}

func limitOrNil(l Limits, upper bool) interface{} {
	if !l.Bounded() {
		return nil
	}
	if upper {
		return l.Max
	}
	return l.Min
}

type seriesGroup struct {
	name  string
	color string
	size  int
	width float32
	data  []opts.Chart3DData
}

// sphereGroups collects spheres by colour, which is one group per element.
func (f *Figure) sphereGroups() []*seriesGroup {
	byColor := make(map[string]*seriesGroup)
	var order []string
	for _, s := range f.Spheres {
		c := hexColor(s.Color)
		g, ok := byColor[c]
		if !ok {
			g = &seriesGroup{name: speciesName(s.Label), color: c, size: symbolSize(s.Radius)}
			byColor[c] = g
			order = append(order, c)
		}
		g.data = append(g.data, opts.Chart3DData{
			Name:  s.Label,
			Value: []interface{}{s.Center.X, s.Center.Y, s.Center.Z},
		})
	}
	out := make([]*seriesGroup, len(order))
	for i, c := range order {
		out[i] = byColor[c]
	}
	return out
}

// segmentGroups joins segments of one colour and width into a single line3D
// series. A "-" point between two segments breaks the polyline.
func (f *Figure) segmentGroups() []*seriesGroup {
	type key struct {
		color string
		width float64
	}
	groups := make(map[key]*seriesGroup)
	for _, s := range f.Segments {
		k := key{hexColor(s.Color), s.Width}
		g, ok := groups[k]
		if !ok {
			g = &seriesGroup{name: "segments " + k.color, color: k.color, width: float32(s.Width)}
			groups[k] = g
		} else {
			g.data = append(g.data, opts.Chart3DData{Value: []interface{}{"-", "-", "-"}})
		}
		g.data = append(g.data,
			opts.Chart3DData{Value: []interface{}{s.A.X, s.A.Y, s.A.Z}},
			opts.Chart3DData{Value: []interface{}{s.B.X, s.B.Y, s.B.Z}},
		)
	}
	out := make([]*seriesGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].width < out[j].width
	})
	return out
}

// speciesName strips digits and charges from an atom label.
func speciesName(label string) string {
	for i, r := range label {
		if r < 'A' || (r > 'Z' && r < 'a') || r > 'z' {
			if i == 0 {
				return label
			}
			return label[:i]
		}
	}
	return label
}

func symbolSize(radius float64) int {
	s := int(radius * 20)
	if s < 4 {
		return 4
	}
	return s
}
