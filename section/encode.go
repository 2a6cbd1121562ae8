package section

import (
	"strings"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/model"
)

// entity writes one entity. block is the owning block definition, nil for
// model space.
func (w *writer) entity(e model.Entity, block *model.Block) {
	if w.err != nil {
		return
	}
	if u, ok := e.(*model.Unknown); ok {
		if !w.profile.SupportsType(u.Type) {
			w.err = &core.ConversionError{
				Handle: u.Handle.String(),
				Entity: u.Type,
				Target: w.doc.Version.String(),
				Msg:    "entity type does not exist in the dialect",
			}
			return
		}
		w.unknown(u)
		return
	}
	common := e.Base()
	if !w.profile.Supports(e.Kind()) {
		w.err = &core.ConversionError{
			Handle: common.Handle.String(),
			Entity: model.TypeName(e),
			Target: w.doc.Version.String(),
			Msg:    "entity type does not exist in the dialect",
		}
		return
	}

	w.entityStart(e.Kind().String(), common, block)

	switch v := e.(type) {
	case *model.Line:
		w.subclass("AcDbLine")
		w.point(10, v.Start)
		w.point(11, v.End)

	case *model.Point:
		w.subclass("AcDbPoint")
		w.point(10, v.Location)

	case *model.Circle:
		w.subclass("AcDbCircle")
		w.point(10, v.Center)
		w.real(40, v.Radius)

	case *model.Arc:
		w.subclass("AcDbCircle")
		w.point(10, v.Center)
		w.real(40, v.Radius)
		w.subclass("AcDbArc")
		w.real(50, v.StartAngle)
		w.real(51, v.EndAngle)

	case *model.Ellipse:
		w.subclass("AcDbEllipse")
		w.point(10, v.Center)
		w.point(11, v.MajorAxis)
		w.real(40, v.Ratio)
		w.real(41, v.StartParam)
		w.real(42, v.EndParam)

	case *model.Text:
		w.subclass("AcDbText")
		w.point(10, v.Insertion)
		w.real(40, v.Height)
		w.str(1, v.Value)
		if v.Rotation != 0 {
			w.real(50, v.Rotation)
		}
		w.str(7, w.name(v.Style, model.StandardStyle))
		if v.HAlign != 0 {
			w.integer(72, v.HAlign)
		}
		if v.HasAlignment {
			w.point(11, v.Alignment)
		}
		w.subclass("AcDbText")
		if v.VAlign != 0 {
			w.integer(73, v.VAlign)
		}

	case *model.MText:
		w.subclass("AcDbMText")
		w.point(10, v.Insertion)
		w.real(40, v.Height)
		w.real(41, v.Width)
		attach := v.Attachment
		if attach == 0 {
			attach = 1
		}
		w.integer(71, attach)
		chunks := splitRunes(escapeLineBreaks(v.Value), mtextChunk)
		for _, c := range chunks[:len(chunks)-1] {
			w.str(3, c)
		}
		w.str(1, chunks[len(chunks)-1])
		w.str(7, w.name(v.Style, model.StandardStyle))
		if v.Rotation != 0 {
			w.real(50, v.Rotation)
		}

	case *model.LWPolyline:
		w.subclass("AcDbPolyline")
		w.integer(90, len(v.Vertices))
		w.integer(70, v.Flags)
		if v.Width != 0 {
			w.real(43, v.Width)
		}
		if v.Elevation != 0 {
			w.real(38, v.Elevation)
		}
		for _, vx := range v.Vertices {
			w.real(10, vx.X)
			w.real(20, vx.Y)
			if vx.StartWidth != 0 || vx.EndWidth != 0 {
				w.real(40, vx.StartWidth)
				w.real(41, vx.EndWidth)
			}
			if vx.Bulge != 0 {
				w.real(42, vx.Bulge)
			}
		}

	case *model.Polyline:
		if v.Flags&8 != 0 {
			w.subclass("AcDb3dPolyline")
		} else {
			w.subclass("AcDb2dPolyline")
		}
		w.integer(66, 1)
		w.point(10, model.Vec3{Z: v.Elevation})
		w.integer(70, v.Flags)

	case *model.Spline:
		w.subclass("AcDbSpline")
		w.integer(70, v.Flags)
		w.integer(71, v.Degree)
		w.integer(72, len(v.Knots))
		w.integer(73, len(v.Control))
		w.integer(74, len(v.FitPoints))
		for _, k := range v.Knots {
			w.real(40, k)
		}
		for _, wt := range v.Weights {
			w.real(41, wt)
		}
		for _, c := range v.Control {
			w.point(10, c)
		}
		for _, f := range v.FitPoints {
			w.point(11, f)
		}

	case *model.Insert:
		w.subclass("AcDbBlockReference")
		w.str(2, w.name(v.Block, ""))
		w.point(10, v.Insertion)
		if v.Scale.X != 1 {
			w.real(41, v.Scale.X)
		}
		if v.Scale.Y != 1 {
			w.real(42, v.Scale.Y)
		}
		if v.Scale.Z != 1 {
			w.real(43, v.Scale.Z)
		}
		if v.Rotation != 0 {
			w.real(50, v.Rotation)
		}
	}

	w.tokens(common.Extra)

	if pl, ok := e.(*model.Polyline); ok {
		w.vertices(pl)
	}
}

func (w *writer) entityStart(typ string, common *model.EntityCommon, block *model.Block) {
	w.str(0, typ)
	w.handle(5, common.Handle)
	if w.profile.AllowsCode(102) {
		for _, group := range common.AppData {
			w.tokens(group)
		}
	}
	w.owner(w.ownerOf(common, block))
	w.subclass("AcDbEntity")
	w.str(8, w.name(common.Layer, model.DefaultLayer))
	if common.LineType != 0 {
		if name, ok := w.doc.NameOf(common.LineType); ok {
			w.str(6, name)
		}
	}
	if common.Color != model.ColorByLayer {
		w.integer(62, common.Color.ACI())
	}
	if common.HasLineWeight && w.profile.AllowsCode(370) {
		w.integer(370, int(common.LineWeight))
	}
	if common.HasTrueColor && w.profile.AllowsCode(420) {
		w.integer(420, int(common.TrueColor))
	}
}

func (w *writer) ownerOf(common *model.EntityCommon, block *model.Block) model.Handle {
	if common.Owner != 0 {
		return common.Owner
	}
	if block != nil {
		return block.Handle
	}
	if ms := w.doc.ModelSpace(); ms != nil {
		return ms.Handle
	}
	return 0
}

// vertices writes the VERTEX entities and the SEQEND of a polyline.
func (w *writer) vertices(pl *model.Polyline) {
	layer := w.name(pl.Layer, model.DefaultLayer)
	vertexClass := "AcDb2dVertex"
	if pl.Flags&8 != 0 {
		vertexClass = "AcDb3dPolylineVertex"
	}
	for _, v := range pl.Vertices {
		w.str(0, "VERTEX")
		w.handle(5, v.Handle)
		w.owner(pl.Handle)
		w.subclass("AcDbEntity")
		w.str(8, layer)
		w.subclass("AcDbVertex", vertexClass)
		w.point(10, v.Location)
		if v.Bulge != 0 {
			w.real(42, v.Bulge)
		}
		w.integer(70, v.Flags)
		w.tokens(v.Extra)
	}
	w.str(0, "SEQEND")
	w.handle(5, pl.SeqEnd)
	w.owner(pl.Handle)
	w.subclass("AcDbEntity")
	w.str(8, layer)
}

// unknown writes an entity that was kept verbatim. Its handle group is
// rewritten with the current handle, or added when the tokens have none.
func (w *writer) unknown(u *model.Unknown) {
	w.str(0, u.Type)
	hasHandle := hasCode(u.Tokens, 5)
	if !hasHandle && u.Handle != 0 {
		w.handle(5, u.Handle)
	}
	for _, t := range u.Tokens {
		if t.Code == 5 && u.Handle != 0 {
			t = core.Handle(5, u.Handle.String())
		}
		if w.profile.AllowsCode(t.Code) {
			w.emit(t)
		}
	}
}

// splitRunes cuts s into pieces of at most n runes. It always returns at
// least one piece.
func splitRunes(s string, n int) []string {
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	var out []string
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return append(out, string(runes))
}

// escapeLineBreaks replaces raw line breaks in MTEXT with paragraph codes.
func escapeLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", `\P`)
	return strings.ReplaceAll(s, "\n", `\P`)
}
