package draw

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/crystalview/internal/linalg"
)

// camera is an orthographic view from elevation and azimuth, matching the
// convention of common 3D plotting tools: azimuth rotates about +z from +x,
// elevation tilts up from the xy plane.
type camera struct {
	right, up, toward linalg.Vector
}

func newCamera(elevationDeg, azimuthDeg float64) camera {
	el := elevationDeg * math.Pi / 180
	az := azimuthDeg * math.Pi / 180
	return camera{
		right:  linalg.Vec(-math.Sin(az), math.Cos(az), 0),
		up:     linalg.Vec(-math.Sin(el)*math.Cos(az), -math.Sin(el)*math.Sin(az), math.Cos(el)),
		toward: linalg.Vec(math.Cos(el)*math.Cos(az), math.Cos(el)*math.Sin(az), math.Sin(el)),
	}
}

// project returns screen coordinates and depth; larger depth is nearer the
// viewer.
func (c camera) project(p linalg.Vector) (x, y, depth float64) {
	return r3.Dot(p, c.right), r3.Dot(p, c.up), r3.Dot(p, c.toward)
}

type primitiveKind int

const (
	sphereKind primitiveKind = iota
	segmentKind
)

// primitive is a projected sphere or segment.
type primitive struct {
	kind   primitiveKind
	index  int // into Figure.Spheres or Figure.Segments
	depth  float64
	x0, y0 float64
	x1, y1 float64
}

// projectScene projects every recorded primitive and orders them far to
// near so nearer ones are painted last.
func (f *Figure) projectScene() []primitive {
	cam := newCamera(f.opts.Elevation, f.opts.Azimuth)
	out := make([]primitive, 0, len(f.Spheres)+len(f.Segments))
	for i, s := range f.Spheres {
		x, y, d := cam.project(s.Center)
		out = append(out, primitive{kind: sphereKind, index: i, depth: d, x0: x, y0: y})
	}
	for i, s := range f.Segments {
		x0, y0, d0 := cam.project(s.A)
		x1, y1, d1 := cam.project(s.B)
		out = append(out, primitive{kind: segmentKind, index: i, depth: (d0 + d1) / 2, x0: x0, y0: y0, x1: x1, y1: y1})
	}
	sortByDepth(out)
	return out
}

func sortByDepth(ps []primitive) {
	// Equal depths keep drawing order.
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].depth < ps[j].depth })
}
