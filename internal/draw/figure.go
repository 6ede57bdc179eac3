package draw

import (
	"fmt"
	"image/color"
	"math"

	"github.com/banshee-data/crystalview/internal/linalg"
)

// Limits is a closed axis interval. A zero-width interval is unbounded.
type Limits struct {
	Min, Max float64
}

// Bounded reports whether l restricts anything.
func (l Limits) Bounded() bool {
	return l.Max > l.Min
}

// Contains reports whether v lies within l.
func (l Limits) Contains(v float64) bool {
	return !l.Bounded() || (v >= l.Min && v <= l.Max)
}

// Box holds the axis bounds of a figure.
type Box struct {
	X, Y, Z Limits
}

// Contains reports whether p lies within every axis bound.
func (b Box) Contains(p linalg.Vector) bool {
	return b.X.Contains(p.X) && b.Y.Contains(p.Y) && b.Z.Contains(p.Z)
}

// FigureOptions configure MakeFigure.
type FigureOptions struct {
	Title       string
	AxisVisible bool
	XLim        Limits
	YLim        Limits
	ZLim        Limits
	Elevation   float64 // degrees above the xy plane
	Azimuth     float64 // degrees about z, from +x
	AtomScale   float64 // sphere radius as a fraction of covalent radius
	WidthCM     float64
	HeightCM    float64
}

// DefaultFigureOptions returns the defaults used by the CLI render path:
// axes hidden and every axis limited to (-2, 45).
func DefaultFigureOptions() FigureOptions {
	lim := Limits{Min: -2, Max: 45}
	return FigureOptions{
		XLim:      lim,
		YLim:      lim,
		ZLim:      lim,
		Elevation: 30,
		Azimuth:   -60,
		AtomScale: 0.5,
		WidthCM:   16,
		HeightCM:  16,
	}
}

// Sphere is a recorded atom primitive.
type Sphere struct {
	Center linalg.Vector
	Radius float64
	Color  color.RGBA
	Label  string
}

// Segment is a recorded line primitive.
type Segment struct {
	A, B  linalg.Vector
	Color color.RGBA
	Width float64
}

// Figure is a Surface that records what is drawn on it.
type Figure struct {
	opts     FigureOptions
	Spheres  []Sphere
	Segments []Segment
}

// MakeFigure returns an empty figure. Missing sizes and scales take the
// DefaultFigureOptions values.
func MakeFigure(opts FigureOptions) *Figure {
	def := DefaultFigureOptions()
	if opts.AtomScale <= 0 {
		opts.AtomScale = def.AtomScale
	}
	if opts.WidthCM <= 0 {
		opts.WidthCM = def.WidthCM
	}
	if opts.HeightCM <= 0 {
		opts.HeightCM = def.HeightCM
	}
	return &Figure{opts: opts}
}

// Options returns the options the figure was made with.
func (f *Figure) Options() FigureOptions {
	return f.opts
}

// Bounds returns the figure's axis bounds.
func (f *Figure) Bounds() Box {
	return Box{X: f.opts.XLim, Y: f.opts.YLim, Z: f.opts.ZLim}
}

// Style returns the drawing style derived from the figure options.
func (f *Figure) Style() Style {
	st := DefaultStyle()
	st.Bounds = f.Bounds()
	st.AtomScale = f.opts.AtomScale
	return st
}

// Sphere records a sphere.
func (f *Figure) Sphere(center linalg.Vector, radius float64, c color.RGBA, label string) {
	f.Spheres = append(f.Spheres, Sphere{Center: center, Radius: radius, Color: c, Label: label})
}

// Segment records a line segment.
func (f *Figure) Segment(a, b linalg.Vector, c color.RGBA, width float64) {
	f.Segments = append(f.Segments, Segment{A: a, B: b, Color: c, Width: width})
}

// Reset discards everything drawn so far.
func (f *Figure) Reset() {
	f.Spheres = f.Spheres[:0]
	f.Segments = f.Segments[:0]
}

// Empty reports whether nothing has been drawn.
func (f *Figure) Empty() bool {
	return len(f.Spheres) == 0 && len(f.Segments) == 0
}

// Extent returns the box containing every recorded primitive, spheres
// included at their full radius.
func (f *Figure) Extent() (min, max linalg.Vector) {
	min = linalg.Vec(math.Inf(1), math.Inf(1), math.Inf(1))
	max = linalg.Vec(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	grow := func(p linalg.Vector, r float64) {
		min = linalg.Vec(math.Min(min.X, p.X-r), math.Min(min.Y, p.Y-r), math.Min(min.Z, p.Z-r))
		max = linalg.Vec(math.Max(max.X, p.X+r), math.Max(max.Y, p.Y+r), math.Max(max.Z, p.Z+r))
	}
	for _, s := range f.Spheres {
		grow(s.Center, s.Radius)
	}
	for _, s := range f.Segments {
		grow(s.A, 0)
		grow(s.B, 0)
	}
	return min, max
}

func (f *Figure) String() string {
	return fmt.Sprintf("figure %q: %d spheres, %d segments", f.opts.Title, len(f.Spheres), len(f.Segments))
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
