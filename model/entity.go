package model

import (
	"strings"

	"github.com/tsawler/dxf/core"
)

// EntityKind is the type tag of an entity, read from the (0, TYPE) token
// that starts it.
type EntityKind int

const (
	KindUnknown EntityKind = iota
	KindLine
	KindPoint
	KindCircle
	KindArc
	KindEllipse
	KindText
	KindMText
	KindPolyline
	KindLWPolyline
	KindSpline
	KindInsert
)

var kindNames = [...]string{
	KindUnknown:    "UNKNOWN",
	KindLine:       "LINE",
	KindPoint:      "POINT",
	KindCircle:     "CIRCLE",
	KindArc:        "ARC",
	KindEllipse:    "ELLIPSE",
	KindText:       "TEXT",
	KindMText:      "MTEXT",
	KindPolyline:   "POLYLINE",
	KindLWPolyline: "LWPOLYLINE",
	KindSpline:     "SPLINE",
	KindInsert:     "INSERT",
}

// String returns the DXF type name (e.g., "LINE").
func (k EntityKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// ParseEntityKind maps a DXF type name to its kind. Unrecognized names
// return KindUnknown.
func ParseEntityKind(name string) EntityKind {
	name = strings.ToUpper(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name && EntityKind(k) != KindUnknown {
			return EntityKind(k)
		}
	}
	return KindUnknown
}

// Color is an AutoCAD Color Index. The zero value is BYLAYER.
type Color int16

const (
	ColorByLayer Color = 0
	ColorByBlock Color = -1
)

// ACI returns the value written to group code 62.
func (c Color) ACI() int {
	switch c {
	case ColorByLayer:
		return 256
	case ColorByBlock:
		return 0
	}
	return int(c)
}

// ColorFromACI converts a group code 62 value.
func ColorFromACI(v int) Color {
	switch v {
	case 256:
		return ColorByLayer
	case 0:
		return ColorByBlock
	}
	return Color(v)
}

// Entity is implemented by every drawing entity variant. The concrete type
// is selected by Kind; callers switch on the type rather than extending it.
type Entity interface {
	Object
	Kind() EntityKind
	Base() *EntityCommon
	Clone() Entity
}

// EntityCommon holds the properties shared by all entities. References to
// layers and linetypes are handles resolved through the owning EntityTable.
type EntityCommon struct {
	Handle   Handle
	Owner    Handle // Block record that owns the entity (R13+)
	Layer    Handle
	LineType Handle // Zero means BYLAYER
	Color    Color

	// LineWeight is in hundredths of a millimetre (-1 BYLAYER, -2 BYBLOCK,
	// -3 default). Written as group 370 when HasLineWeight is set.
	LineWeight    int16
	HasLineWeight bool
	// TrueColor is 0xRRGGBB, group 420.
	TrueColor    int32
	HasTrueColor bool

	// AppData holds application-defined (102) groups, each including its
	// opening and closing tokens.
	AppData [][]core.Token

	// Extra holds group codes the parser does not interpret, including
	// extended data. They are written back unchanged after the known fields.
	Extra []core.Token
}

// ObjectHandle returns the entity handle.
func (c *EntityCommon) ObjectHandle() Handle { return c.Handle }

// Base returns the shared properties.
func (c *EntityCommon) Base() *EntityCommon { return c }

func (c EntityCommon) clone() EntityCommon {
	out := c
	out.Extra = cloneTokens(c.Extra)
	if c.AppData != nil {
		out.AppData = make([][]core.Token, len(c.AppData))
		for i, group := range c.AppData {
			out.AppData[i] = cloneTokens(group)
		}
	}
	return out
}

func cloneTokens(tokens []core.Token) []core.Token {
	if tokens == nil {
		return nil
	}
	out := make([]core.Token, len(tokens))
	for i, t := range tokens {
		if t.Bytes != nil {
			t.Bytes = append([]byte(nil), t.Bytes...)
		}
		out[i] = t
	}
	return out
}

// Line is a straight segment.
type Line struct {
	EntityCommon
	Start Vec3
	End   Vec3
}

func (e *Line) Kind() EntityKind { return KindLine }
func (e *Line) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// Point is a single location.
type Point struct {
	EntityCommon
	Location Vec3
}

func (e *Point) Kind() EntityKind { return KindPoint }
func (e *Point) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// Circle is a full circle.
type Circle struct {
	EntityCommon
	Center Vec3
	Radius float64
}

func (e *Circle) Kind() EntityKind { return KindCircle }
func (e *Circle) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// Arc is a circular arc running counter-clockwise from StartAngle to
// EndAngle, both in degrees.
type Arc struct {
	EntityCommon
	Center     Vec3
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

func (e *Arc) Kind() EntityKind { return KindArc }
func (e *Arc) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// Ellipse is an elliptical arc. MajorAxis is relative to Center; Ratio is
// minor/major. Parameters are in radians, 0 to 2π for a full ellipse.
type Ellipse struct {
	EntityCommon
	Center     Vec3
	MajorAxis  Vec3
	Ratio      float64
	StartParam float64
	EndParam   float64
}

func (e *Ellipse) Kind() EntityKind { return KindEllipse }
func (e *Ellipse) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// Text is a single line of text.
type Text struct {
	EntityCommon
	Insertion Vec3
	Height    float64
	Value     string
	Rotation  float64 // Degrees
	Style     Handle
	HAlign    int
	VAlign    int
	// Alignment is the second alignment point, used when HAlign or VAlign
	// is non-zero.
	Alignment    Vec3
	HasAlignment bool
}

func (e *Text) Kind() EntityKind { return KindText }
func (e *Text) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// MText is multi-line formatted text. Value keeps the inline formatting
// codes (\P paragraph breaks and so on).
type MText struct {
	EntityCommon
	Insertion  Vec3
	Height     float64
	Width      float64 // Reference rectangle width
	Value      string
	Rotation   float64 // Degrees
	Style      Handle
	Attachment int // 1 top left ... 9 bottom right
}

func (e *MText) Kind() EntityKind { return KindMText }
func (e *MText) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// Vertex is one point of a Polyline. Vertices are separate objects in the
// file and carry their own handles.
type Vertex struct {
	Handle   Handle
	Location Vec3
	Bulge    float64
	Flags    int
	Extra    []core.Token
}

// Polyline is the legacy heavyweight polyline: a POLYLINE header followed
// by VERTEX entities and a SEQEND.
type Polyline struct {
	EntityCommon
	Flags     int
	Elevation float64
	Vertices  []Vertex
	SeqEnd    Handle
}

// Closed reports whether the polyline is closed.
func (e *Polyline) Closed() bool { return e.Flags&1 != 0 }

func (e *Polyline) Kind() EntityKind { return KindPolyline }
func (e *Polyline) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	c.Vertices = append([]Vertex(nil), e.Vertices...)
	for i := range c.Vertices {
		c.Vertices[i].Extra = cloneTokens(c.Vertices[i].Extra)
	}
	return &c
}

// LWVertex is one point of a lightweight polyline.
type LWVertex struct {
	X, Y       float64
	StartWidth float64
	EndWidth   float64
	Bulge      float64
}

// LWPolyline is the compact 2D polyline introduced with R13.
type LWPolyline struct {
	EntityCommon
	Flags     int
	Elevation float64
	Width     float64 // Constant width
	Vertices  []LWVertex
}

// Closed reports whether the polyline is closed.
func (e *LWPolyline) Closed() bool { return e.Flags&1 != 0 }

func (e *LWPolyline) Kind() EntityKind { return KindLWPolyline }
func (e *LWPolyline) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	c.Vertices = append([]LWVertex(nil), e.Vertices...)
	return &c
}

// Spline is a NURBS curve. Weights is empty for non-rational splines.
type Spline struct {
	EntityCommon
	Flags     int
	Degree    int
	Knots     []float64
	Control   []Vec3
	Weights   []float64
	FitPoints []Vec3
}

// Closed reports whether the spline is closed.
func (e *Spline) Closed() bool { return e.Flags&1 != 0 }

func (e *Spline) Kind() EntityKind { return KindSpline }
func (e *Spline) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	c.Knots = append([]float64(nil), e.Knots...)
	c.Control = append([]Vec3(nil), e.Control...)
	c.Weights = append([]float64(nil), e.Weights...)
	c.FitPoints = append([]Vec3(nil), e.FitPoints...)
	return &c
}

// Insert places a block reference.
type Insert struct {
	EntityCommon
	Block     Handle
	Insertion Vec3
	Scale     Vec3
	Rotation  float64 // Degrees
}

func (e *Insert) Kind() EntityKind { return KindInsert }
func (e *Insert) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	return &c
}

// Unknown is an entity type the parser does not model. Its tokens (all of
// them after the type marker) are kept verbatim and written back as read;
// only the handle is extracted.
type Unknown struct {
	EntityCommon
	Type   string
	Tokens []core.Token
}

func (e *Unknown) Kind() EntityKind { return KindUnknown }
func (e *Unknown) Clone() Entity {
	c := *e
	c.EntityCommon = e.EntityCommon.clone()
	c.Tokens = cloneTokens(e.Tokens)
	return &c
}

// TypeName returns the DXF type name of any entity, including unknown ones.
func TypeName(e Entity) string {
	if u, ok := e.(*Unknown); ok {
		return u.Type
	}
	return e.Kind().String()
}
