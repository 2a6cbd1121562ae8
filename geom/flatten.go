package geom

import (
	"math"
	"strings"

	"github.com/tsawler/dxf/model"
)

// maxInsertDepth bounds nested block references; deeper (or cyclic)
// references are not expanded.
const maxInsertDepth = 16

// Flattener turns entities into straight-line paths for rendering and
// extents. Block references are expanded through Table.
type Flattener struct {
	Table *model.EntityTable

	// Tolerance is the maximum chord deviation in drawing units. Zero
	// selects a small default.
	Tolerance float64

	// SplineSegments is the number of chords per knot span.
	SplineSegments int

	// SkipLayer, when set, excludes entities whose layer it returns true for.
	SkipLayer func(*model.Layer) bool
}

// NewFlattener creates a flattener with default tolerances.
func NewFlattener(table *model.EntityTable) *Flattener {
	return &Flattener{Table: table, Tolerance: 0.01, SplineSegments: 8}
}

// ModelSpace flattens every model space entity into one path.
func (f *Flattener) ModelSpace() *Path {
	p := NewPath()
	for e := range f.Table.Entities() {
		f.entity(p, e, Identity(), 0)
	}
	return p
}

// Entity flattens a single entity.
func (f *Flattener) Entity(e model.Entity) *Path {
	p := NewPath()
	f.entity(p, e, Identity(), 0)
	return p
}

func (f *Flattener) tol(m Matrix) float64 {
	tol := f.Tolerance
	if tol <= 0 {
		tol = 0.01
	}
	if s := m.ScaleFactor(); s > 0 {
		tol /= s
	}
	return tol
}

func (f *Flattener) add(p *Path, m Matrix, points []Point, closed bool) {
	if len(points) == 0 {
		return
	}
	mapped := make([]Point, len(points))
	for i, pt := range points {
		mapped[i] = m.Transform(pt)
	}
	p.Polyline(mapped, closed)
}

func (f *Flattener) entity(p *Path, e model.Entity, m Matrix, depth int) {
	if f.SkipLayer != nil && f.Table != nil {
		if obj, err := f.Table.Resolve(e.Base().Layer); err == nil {
			if l, ok := obj.(*model.Layer); ok && f.SkipLayer(l) {
				return
			}
		}
	}
	tol := f.tol(m)

	switch v := e.(type) {
	case *model.Line:
		f.add(p, m, []Point{to2D(v.Start), to2D(v.End)}, false)

	case *model.Point:
		pt := m.Transform(to2D(v.Location))
		p.MoveTo(pt)
		p.LineTo(pt)

	case *model.Circle:
		f.add(p, m, ArcPoints(to2D(v.Center), v.Radius, 0, 360, tol), true)

	case *model.Arc:
		f.add(p, m, ArcPoints(to2D(v.Center), v.Radius, v.StartAngle, v.EndAngle, tol), false)

	case *model.Ellipse:
		pts := EllipsePoints(v.Center, v.MajorAxis, v.Ratio, v.StartParam, v.EndParam, tol, 8, 1024)
		f.add(p, m, vecs2D(pts), FullEllipse(v.StartParam, v.EndParam))

	case *model.LWPolyline:
		verts := make([]Point, len(v.Vertices))
		bulges := make([]float64, len(v.Vertices))
		for i, vx := range v.Vertices {
			verts[i] = Point{vx.X, vx.Y}
			bulges[i] = vx.Bulge
		}
		f.add(p, m, bulgePath(verts, bulges, v.Closed(), tol), v.Closed())

	case *model.Polyline:
		verts := make([]Point, len(v.Vertices))
		bulges := make([]float64, len(v.Vertices))
		for i, vx := range v.Vertices {
			verts[i] = to2D(vx.Location)
			bulges[i] = vx.Bulge
		}
		f.add(p, m, bulgePath(verts, bulges, v.Closed(), tol), v.Closed())

	case *model.Spline:
		var pts []model.Vec3
		if len(v.Control) > v.Degree {
			pts, _ = SplinePoints(v.Degree, v.Knots, v.Control, v.Weights, f.SplineSegments, 4096)
		}
		if pts == nil {
			pts = v.FitPoints
		}
		if pts == nil {
			pts = v.Control
		}
		f.add(p, m, vecs2D(pts), v.Closed())

	case *model.Text:
		w := float64(len([]rune(v.Value))) * v.Height * 0.6
		f.add(p, m, textBox(to2D(v.Insertion), w, v.Height, v.Rotation), true)

	case *model.MText:
		lines := strings.Split(v.Value, `\P`)
		longest := 0
		for _, l := range lines {
			longest = max(longest, len([]rune(l)))
		}
		w := v.Width
		if w == 0 {
			w = float64(longest) * v.Height * 0.6
		}
		h := float64(len(lines)) * v.Height * 5 / 3
		ins := to2D(v.Insertion)
		// MText is anchored at its top edge for the default attachment.
		f.add(p, m, textBox(Point{ins.X, ins.Y - h}, w, h, v.Rotation), true)

	case *model.Insert:
		f.insert(p, v, m, depth)
	}
}

func (f *Flattener) insert(p *Path, ins *model.Insert, m Matrix, depth int) {
	if f.Table == nil || depth >= maxInsertDepth {
		return
	}
	obj, err := f.Table.Resolve(ins.Block)
	if err != nil {
		return
	}
	b, ok := obj.(*model.Block)
	if !ok {
		return
	}
	sx, sy := ins.Scale.X, ins.Scale.Y
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	local := Translate(-b.Base.X, -b.Base.Y).
		Multiply(Scale(sx, sy)).
		Multiply(Rotate(ins.Rotation * math.Pi / 180)).
		Multiply(Translate(ins.Insertion.X, ins.Insertion.Y))
	next := local.Multiply(m)
	for _, e := range b.Entities {
		f.entity(p, e, next, depth+1)
	}
}

// bulgePath expands polyline vertices with bulges into points.
func bulgePath(verts []Point, bulges []float64, closed bool, tol float64) []Point {
	if len(verts) == 0 {
		return nil
	}
	out := []Point{verts[0]}
	segs := len(verts) - 1
	if closed {
		segs = len(verts)
	}
	for i := 0; i < segs; i++ {
		next := verts[(i+1)%len(verts)]
		out = append(out, BulgePoints(verts[i], next, bulges[i], tol)...)
	}
	if closed && len(out) > 1 {
		// The closing point is added by ClosePath.
		out = out[:len(out)-1]
	}
	return out
}

func textBox(origin Point, w, h, rotDeg float64) []Point {
	r := Rotate(rotDeg * math.Pi / 180).Multiply(Translate(origin.X, origin.Y))
	return []Point{
		r.Transform(Point{0, 0}),
		r.Transform(Point{w, 0}),
		r.Transform(Point{w, h}),
		r.Transform(Point{0, h}),
	}
}

func vecs2D(vs []model.Vec3) []Point {
	out := make([]Point, len(vs))
	for i, v := range vs {
		out[i] = to2D(v)
	}
	return out
}

// Extents returns the bounding box of all model space entities.
func Extents(table *model.EntityTable) BBox {
	return NewFlattener(table).ModelSpace().Bounds()
}
