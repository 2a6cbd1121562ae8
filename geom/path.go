package geom

// PathSegmentType defines the type of path segment
type PathSegmentType int

const (
	// PathMoveTo starts a new subpath
	PathMoveTo PathSegmentType = iota
	// PathLineTo draws a line to a point
	PathLineTo
	// PathClosePath closes the current subpath
	PathClosePath
)

// PathSegment represents a single segment of a path
type PathSegment struct {
	Type  PathSegmentType
	Point Point // Unused for PathClosePath
}

// Path is a sequence of straight-line subpaths. Curved entities are
// flattened before they are added.
type Path struct {
	Segments []PathSegment

	// CurrentPoint is the end of the last segment
	CurrentPoint Point

	// SubpathStart is the start of the current subpath (for closepath)
	SubpathStart Point

	// HasCurrentPoint indicates if a current point has been set
	HasCurrentPoint bool
}

// NewPath creates a new empty path
func NewPath() *Path {
	return &Path{
		Segments: make([]PathSegment, 0),
	}
}

// MoveTo starts a new subpath at the specified point
func (p *Path) MoveTo(pt Point) {
	p.Segments = append(p.Segments, PathSegment{Type: PathMoveTo, Point: pt})
	p.CurrentPoint = pt
	p.SubpathStart = pt
	p.HasCurrentPoint = true
}

// LineTo appends a line segment from the current point
func (p *Path) LineTo(pt Point) {
	if !p.HasCurrentPoint {
		// Treat as moveto if no current point
		p.MoveTo(pt)
		return
	}
	p.Segments = append(p.Segments, PathSegment{Type: PathLineTo, Point: pt})
	p.CurrentPoint = pt
}

// ClosePath closes the current subpath
func (p *Path) ClosePath() {
	if !p.HasCurrentPoint {
		return
	}
	p.Segments = append(p.Segments, PathSegment{Type: PathClosePath})
	p.CurrentPoint = p.SubpathStart
}

// Polyline adds an open or closed subpath through points.
func (p *Path) Polyline(points []Point, closed bool) {
	if len(points) == 0 {
		return
	}
	p.MoveTo(points[0])
	for _, pt := range points[1:] {
		p.LineTo(pt)
	}
	if closed {
		p.ClosePath()
	}
}

// Rectangle appends a rectangle as a complete subpath
func (p *Path) Rectangle(x, y, width, height float64) {
	p.Polyline([]Point{{x, y}, {x + width, y}, {x + width, y + height}, {x, y + height}}, true)
}

// Clear resets the path
func (p *Path) Clear() {
	p.Segments = p.Segments[:0]
	p.HasCurrentPoint = false
}

// IsEmpty returns true if the path has no segments
func (p *Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Subpaths returns each subpath as a point list. Closed subpaths repeat
// their first point at the end.
func (p *Path) Subpaths() [][]Point {
	var out [][]Point
	var cur []Point
	var start Point
	for _, seg := range p.Segments {
		switch seg.Type {
		case PathMoveTo:
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = []Point{seg.Point}
			start = seg.Point
		case PathLineTo:
			if cur == nil {
				// Drawing continues from the start of a closed subpath.
				cur = []Point{start}
			}
			cur = append(cur, seg.Point)
		case PathClosePath:
			if len(cur) > 0 {
				cur = append(cur, start)
				out = append(out, cur)
				cur = nil
			}
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// Bounds returns the bounding box of all points.
func (p *Path) Bounds() BBox {
	var b BBox
	for _, seg := range p.Segments {
		if seg.Type != PathClosePath {
			b = b.Extend(seg.Point)
		}
	}
	return b
}

// Transform returns a copy of the path with every point mapped through m.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{Segments: make([]PathSegment, len(p.Segments))}
	for i, seg := range p.Segments {
		if seg.Type != PathClosePath {
			seg.Point = m.Transform(seg.Point)
		}
		out.Segments[i] = seg
	}
	out.CurrentPoint = m.Transform(p.CurrentPoint)
	out.SubpathStart = m.Transform(p.SubpathStart)
	out.HasCurrentPoint = p.HasCurrentPoint
	return out
}
