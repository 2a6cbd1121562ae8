package geom

import (
	"fmt"
	"math"

	"github.com/tsawler/dxf/model"
)

// Segments returns the number of chords needed to approximate an arc of
// the given radius and sweep (radians) so that no chord strays more than
// tol from the curve. The result is clamped to [min, max].
func Segments(radius, sweep, tol float64, min, max int) int {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	sweep = math.Abs(sweep)
	if radius <= 0 || tol <= 0 || tol >= radius || sweep == 0 {
		return min
	}
	step := 2 * math.Acos(1-tol/radius)
	n := int(math.Ceil(sweep / step))
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// ArcPoints flattens a counter-clockwise circular arc. Angles are in
// degrees; an end angle equal to the start angle means a full circle.
func ArcPoints(center Point, radius, startDeg, endDeg, tol float64) []Point {
	start := startDeg * math.Pi / 180
	sweep := math.Mod(endDeg-startDeg, 360)
	if sweep <= 0 {
		sweep += 360
	}
	sweep = sweep * math.Pi / 180
	n := Segments(radius, sweep, tol, 4, 1024)

	points := make([]Point, n+1)
	for i := 0; i <= n; i++ {
		a := start + sweep*float64(i)/float64(n)
		points[i] = Point{center.X + radius*math.Cos(a), center.Y + radius*math.Sin(a)}
	}
	return points
}

// BulgePoints flattens the polyline segment from p1 to p2 with the given
// bulge (tangent of a quarter of the included angle, positive for
// counter-clockwise). The result excludes p1 and ends exactly at p2.
func BulgePoints(p1, p2 Point, bulge, tol float64) []Point {
	chord := p1.Distance(p2)
	if bulge == 0 || chord == 0 {
		return []Point{p2}
	}
	theta := 4 * math.Atan(bulge)
	radius := chord / (2 * math.Abs(math.Sin(theta/2)))
	mid := Point{(p1.X + p2.X) / 2, (p1.Y + p2.Y) / 2}
	nx, ny := -(p2.Y-p1.Y)/chord, (p2.X-p1.X)/chord
	h := (chord / 2) / math.Tan(theta/2)
	center := Point{mid.X + nx*h, mid.Y + ny*h}

	start := math.Atan2(p1.Y-center.Y, p1.X-center.X)
	n := Segments(radius, theta, tol, 2, 512)
	points := make([]Point, n)
	for i := 1; i < n; i++ {
		a := start + theta*float64(i)/float64(n)
		points[i-1] = Point{center.X + radius*math.Cos(a), center.Y + radius*math.Sin(a)}
	}
	points[n-1] = p2
	return points
}

// EllipsePoints flattens an elliptical arc lying in the XY plane. The
// major axis is relative to the center; parameters are in radians and run
// counter-clockwise. The chord count follows tol on the major radius and
// is clamped to [min, max].
func EllipsePoints(center, major model.Vec3, ratio, startParam, endParam, tol float64, min, max int) []model.Vec3 {
	sweep := endParam - startParam
	switch {
	case math.IsNaN(sweep) || math.IsInf(sweep, 0) || sweep > 2*math.Pi:
		sweep = 2 * math.Pi
	case sweep <= 0:
		if sweep = math.Mod(sweep, 2*math.Pi); sweep <= 0 {
			sweep += 2 * math.Pi
		}
	}
	a := major.Len()
	minor := model.Vec3{X: -major.Y * ratio, Y: major.X * ratio, Z: 0}
	n := Segments(a, sweep, tol, min, max)

	points := make([]model.Vec3, n+1)
	for i := 0; i <= n; i++ {
		t := startParam + sweep*float64(i)/float64(n)
		points[i] = center.Add(major.Scale(math.Cos(t))).Add(minor.Scale(math.Sin(t)))
	}
	return points
}

// FullEllipse reports whether the parameter range covers the whole
// ellipse.
func FullEllipse(startParam, endParam float64) bool {
	sweep := math.Mod(endParam-startParam, 2*math.Pi)
	return math.Abs(sweep) < 1e-9 || math.Abs(math.Abs(sweep)-2*math.Pi) < 1e-9
}

// SplinePoints evaluates a NURBS curve at segments points per non-empty
// knot span, plus the end point. The total number of chords is capped at
// max. Weights may be empty for a non-rational curve.
func SplinePoints(degree int, knots []float64, control []model.Vec3, weights []float64, segments, max int) ([]model.Vec3, error) {
	n := len(control)
	if degree < 1 {
		return nil, fmt.Errorf("invalid spline degree %d", degree)
	}
	if n <= degree {
		return nil, fmt.Errorf("spline of degree %d needs more than %d control points", degree, n)
	}
	if len(knots) != n+degree+1 {
		return nil, fmt.Errorf("spline has %d knots, expected %d", len(knots), n+degree+1)
	}
	if len(weights) != 0 && len(weights) != n {
		return nil, fmt.Errorf("spline has %d weights for %d control points", len(weights), n)
	}
	if segments < 1 {
		segments = 1
	}

	var spans []int
	for k := degree; k < n; k++ {
		if knots[k+1] > knots[k] {
			spans = append(spans, k)
		}
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("spline knot vector has no non-empty span")
	}
	if max > 0 && len(spans)*segments > max {
		segments = max / len(spans)
		if segments < 1 {
			segments = 1
		}
	}

	points := make([]model.Vec3, 0, len(spans)*segments+1)
	for _, k := range spans {
		u0, u1 := knots[k], knots[k+1]
		for s := 0; s < segments; s++ {
			u := u0 + (u1-u0)*float64(s)/float64(segments)
			points = append(points, deBoor(degree, k, knots, control, weights, u))
		}
	}
	last := spans[len(spans)-1]
	points = append(points, deBoor(degree, last, knots, control, weights, knots[last+1]))
	return points, nil
}

// deBoor evaluates the curve at u inside span k using homogeneous
// coordinates.
func deBoor(p, k int, t []float64, c []model.Vec3, w []float64, u float64) model.Vec3 {
	d := make([][4]float64, p+1)
	for j := 0; j <= p; j++ {
		pt := c[j+k-p]
		weight := 1.0
		if len(w) > 0 {
			weight = w[j+k-p]
		}
		d[j] = [4]float64{pt.X * weight, pt.Y * weight, pt.Z * weight, weight}
	}
	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			i := j + k - p
			denom := t[j+1+k-r] - t[i]
			alpha := 0.0
			if denom != 0 {
				alpha = (u - t[i]) / denom
			}
			for m := 0; m < 4; m++ {
				d[j][m] = (1-alpha)*d[j-1][m] + alpha*d[j][m]
			}
		}
	}
	h := d[p]
	if h[3] == 0 {
		return model.Vec3{X: h[0], Y: h[1], Z: h[2]}
	}
	return model.Vec3{X: h[0] / h[3], Y: h[1] / h[3], Z: h[2] / h[3]}
}

// UniformKnots returns a clamped uniform knot vector for n control points.
func UniformKnots(degree, n int) []float64 {
	knots := make([]float64, n+degree+1)
	inner := n - degree
	for i := range knots {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= n:
			knots[i] = float64(inner)
		default:
			knots[i] = float64(i - degree)
		}
	}
	return knots
}

func to2D(v model.Vec3) Point {
	return Point{v.X, v.Y}
}
