package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name           string
		radius, sweep  float64
		tol            float64
		min, max, want int
	}{
		{"zero tolerance uses min", 10, math.Pi, 0, 8, 64, 8},
		{"tolerance above radius", 1, math.Pi, 2, 4, 64, 4},
		{"clamped to max", 1000, 2 * math.Pi, 1e-6, 8, 100, 100},
		{"half circle", 1, math.Pi, 1 - math.Cos(math.Pi/8) + 1e-12, 1, 100, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segments(tt.radius, tt.sweep, tt.tol, tt.min, tt.max))
		})
	}
}

func TestArcPointsStayOnCircle(t *testing.T) {
	pts := ArcPoints(Point{1, 1}, 2, 0, 90, 0.001)
	require.Greater(t, len(pts), 2)
	for _, p := range pts {
		assert.InDelta(t, 2, p.Distance(Point{1, 1}), 1e-9)
	}
	assert.InDelta(t, 3, pts[0].X, 1e-9)
	assert.InDelta(t, 3, pts[len(pts)-1].Y, 1e-9)
}

func TestBulgePointsSemicircle(t *testing.T) {
	pts := BulgePoints(Point{0, 0}, Point{2, 0}, 1, 0.01)
	require.NotEmpty(t, pts)
	assert.Equal(t, Point{2, 0}, pts[len(pts)-1])
	for _, p := range pts {
		assert.InDelta(t, 1, p.Distance(Point{1, 0}), 1e-9)
		assert.LessOrEqual(t, p.Y, 1e-9, "positive bulge runs counter-clockwise below the chord")
	}

	straight := BulgePoints(Point{0, 0}, Point{2, 0}, 0, 0.01)
	assert.Equal(t, []Point{{2, 0}}, straight)
}

func TestEllipsePoints(t *testing.T) {
	pts := EllipsePoints(model.Vec3{}, model.Vec3{X: 4}, 0.5, 0, 2*math.Pi, 0.01, 8, 256)
	require.Greater(t, len(pts), 8)
	for _, p := range pts {
		v := (p.X*p.X)/16 + (p.Y*p.Y)/4
		assert.InDelta(t, 1, v, 1e-9)
	}
	assert.InDelta(t, 4, pts[0].X, 1e-9)
	assert.True(t, FullEllipse(0, 2*math.Pi))
	assert.False(t, FullEllipse(0, math.Pi))

	again := EllipsePoints(model.Vec3{}, model.Vec3{X: 4}, 0.5, 0, 2*math.Pi, 0.01, 8, 256)
	assert.Equal(t, pts, again, "flattening is deterministic")
}

func TestEllipsePointsSweep(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		sweep      float64
	}{
		{"forward", 0, math.Pi, math.Pi},
		{"wraps", math.Pi, math.Pi / 2, 1.5 * math.Pi},
		{"equal params", 1, 1, 2 * math.Pi},
		{"one turn back", 0, -2 * math.Pi, 2 * math.Pi},
		{"many turns back", 0, -1e12, math.Mod(-1e12, 2*math.Pi) + 2*math.Pi},
		{"huge span", -1e300, 1e300, 2 * math.Pi},
		{"infinite", 0, math.Inf(-1), 2 * math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := EllipsePoints(model.Vec3{}, model.Vec3{X: 1}, 1, tt.start, tt.end, 0.01, 8, 64)
			require.GreaterOrEqual(t, len(pts), 9)
			require.LessOrEqual(t, len(pts), 65)
			first, last := pts[0], pts[len(pts)-1]
			if !math.IsInf(tt.end, 0) {
				assert.InDelta(t, math.Cos(tt.start), first.X, 1e-6)
				assert.InDelta(t, math.Cos(tt.start+tt.sweep), last.X, 1e-6)
				assert.InDelta(t, math.Sin(tt.start+tt.sweep), last.Y, 1e-6)
			}
		})
	}
}

func TestSplinePointsMatchesBezier(t *testing.T) {
	// A clamped cubic with four control points is a Bézier curve.
	ctrl := []model.Vec3{{X: 0}, {X: 1, Y: 2}, {X: 3, Y: 2}, {X: 4}}
	knots := []float64{0, 0, 0, 0, 1, 1, 1, 1}
	pts, err := SplinePoints(3, knots, ctrl, nil, 4, 0)
	require.NoError(t, err)
	require.Len(t, pts, 5)

	bezier := func(u float64) model.Vec3 {
		a, b, c, d := math.Pow(1-u, 3), 3*u*math.Pow(1-u, 2), 3*u*u*(1-u), u*u*u
		return ctrl[0].Scale(a).Add(ctrl[1].Scale(b)).Add(ctrl[2].Scale(c)).Add(ctrl[3].Scale(d))
	}
	for i, p := range pts {
		want := bezier(float64(i) / 4)
		assert.InDelta(t, want.X, p.X, 1e-9)
		assert.InDelta(t, want.Y, p.Y, 1e-9)
	}
}

func TestSplinePointsRational(t *testing.T) {
	// Quarter circle as a rational quadratic.
	w := math.Sqrt2 / 2
	ctrl := []model.Vec3{{X: 1}, {X: 1, Y: 1}, {Y: 1}}
	pts, err := SplinePoints(2, []float64{0, 0, 0, 1, 1, 1}, ctrl, []float64{1, w, 1}, 8, 0)
	require.NoError(t, err)
	for _, p := range pts {
		assert.InDelta(t, 1, math.Hypot(p.X, p.Y), 1e-9)
	}
}

func TestSplinePointsErrors(t *testing.T) {
	ctrl := []model.Vec3{{}, {X: 1}, {X: 2}}
	_, err := SplinePoints(0, nil, ctrl, nil, 4, 0)
	assert.Error(t, err)
	_, err = SplinePoints(3, UniformKnots(3, 3), ctrl, nil, 4, 0)
	assert.Error(t, err)
	_, err = SplinePoints(2, []float64{0, 0, 1}, ctrl, nil, 4, 0)
	assert.Error(t, err)
	_, err = SplinePoints(2, UniformKnots(2, 3), ctrl, []float64{1}, 4, 0)
	assert.Error(t, err)

	pts, err := SplinePoints(2, UniformKnots(2, 5), append(ctrl, model.Vec3{X: 3}, model.Vec3{X: 4}), nil, 100, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pts), 11)
}

func TestUniformKnots(t *testing.T) {
	assert.Equal(t, []float64{0, 0, 0, 1, 2, 2, 2}, UniformKnots(2, 4))
}

func TestBBox(t *testing.T) {
	var b BBox
	assert.True(t, b.IsEmpty())
	b = b.Extend(Point{1, 2}).Extend(Point{-1, 5})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, 2.0, b.Width())
	assert.Equal(t, 3.0, b.Height())
	assert.True(t, b.Contains(Point{0, 3}))
	assert.Equal(t, Point{0, 3.5}, b.Center())

	u := b.Union(NewBBoxFromPoints(Point{10, 10}))
	assert.Equal(t, Point{10, 10}, u.Max)
	assert.Equal(t, b, b.Union(BBox{}))
	assert.Equal(t, Point{-2, 1}, b.Expand(1).Min)
}

func TestMatrix(t *testing.T) {
	m := Rotate(math.Pi / 2).Multiply(Translate(1, 0))
	p := m.Transform(Point{1, 0})
	assert.InDelta(t, 1, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)
	assert.True(t, Identity().IsIdentity())
	assert.InDelta(t, 2, Scale(2, 2).ScaleFactor(), 1e-12)
}

func TestPathSubpaths(t *testing.T) {
	p := NewPath()
	p.Rectangle(0, 0, 1, 1)
	p.LineTo(Point{5, 5})
	p.LineTo(Point{6, 5})

	subs := p.Subpaths()
	require.Len(t, subs, 2)
	assert.Len(t, subs[0], 5)
	assert.Equal(t, subs[0][0], subs[0][4])
	assert.Equal(t, []Point{{0, 0}, {5, 5}, {6, 5}}, subs[1])

	moved := p.Transform(Translate(1, 1))
	assert.Equal(t, Point{1, 1}, moved.Segments[0].Point)
	assert.Equal(t, Point{0, 0}, p.Segments[0].Point)
}

func TestExtentsExpandsInserts(t *testing.T) {
	doc := model.NewDocument(format.R2000)
	require.NoError(t, doc.AddBlock(&model.Block{
		Name:     "SQUARE",
		Entities: []model.Entity{&model.LWPolyline{Flags: 1, Vertices: []model.LWVertex{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}}},
	}))
	bh, err := doc.BlockHandle("SQUARE")
	require.NoError(t, err)
	require.NoError(t, doc.Insert(&model.Insert{Block: bh, Insertion: model.V2(10, 10), Scale: model.Vec3{X: 2, Y: 2, Z: 1}}))
	require.NoError(t, doc.Insert(&model.Circle{Center: model.V2(0, 0), Radius: 1}))

	b := Extents(doc.EntityTable)
	require.False(t, b.IsEmpty())
	// The circle is flattened within the default 0.01 tolerance.
	assert.InDelta(t, -1, b.Min.X, 0.011)
	assert.InDelta(t, -1, b.Min.Y, 0.011)
	assert.InDelta(t, 12, b.Max.X, 1e-9)
	assert.InDelta(t, 12, b.Max.Y, 1e-9)
}

func TestFlattenerSkipLayer(t *testing.T) {
	doc := model.NewDocument(format.R2000)
	hidden, err := doc.LayerHandle("HIDDEN")
	require.NoError(t, err)
	require.NoError(t, doc.Insert(&model.Line{EntityCommon: model.EntityCommon{Layer: hidden}, End: model.V2(100, 0)}))
	require.NoError(t, doc.Insert(&model.Line{End: model.V2(1, 0)}))

	f := NewFlattener(doc.EntityTable)
	f.SkipLayer = func(l *model.Layer) bool { return l.Name == "HIDDEN" }
	b := f.ModelSpace().Bounds()
	assert.InDelta(t, 1, b.Max.X, 1e-9)
}
