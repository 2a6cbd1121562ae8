package dialect

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/geom"
	"github.com/tsawler/dxf/model"
)

// mtextLineSpacing is the distance between MTEXT lines as a multiple of
// the text height.
const mtextLineSpacing = 5.0 / 3.0

// Convert returns a copy of doc in the target dialect, downgrading or
// upgrading as needed. doc is not modified.
func Convert(doc *model.Document, target format.Version, policy Policy) (*model.Document, *Report, error) {
	if !target.Valid() {
		return nil, nil, fmt.Errorf("unsupported target version %s", target)
	}
	if target <= doc.Version {
		return Downgrade(doc, target, policy)
	}

	out, err := Upgrade(doc, target)
	if err != nil {
		return nil, nil, err
	}
	report := &Report{From: doc.Version, To: target}
	for _, b := range out.Blocks.All() {
		if b.IsLayout() && !doc.Blocks.Has(b.Name) {
			report.add(Change{Handle: b.Handle, Entity: "BLOCK", Action: Created, Detail: b.Name})
		}
	}
	return out, report, nil
}

// Downgrade returns a copy of doc in an older dialect. For the legacy
// dialect, entity kinds it lacks are converted or approximated as allowed
// by policy and data it cannot hold is removed; every such step is listed
// in the report. A kind that can be neither converted nor approximated is
// a *core.ConversionError and no document is returned.
func Downgrade(doc *model.Document, target format.Version, policy Policy) (*model.Document, *Report, error) {
	if !target.Valid() {
		return nil, nil, fmt.Errorf("unsupported target version %s", target)
	}
	if target > doc.Version {
		return nil, nil, fmt.Errorf("cannot downgrade %s to the newer %s", doc.Version, target)
	}

	out := doc.Clone()
	out.Version = target
	report := &Report{From: doc.Version, To: target}
	out.Header.Set("$ACADVER", core.Str(1, target.ACADVer()))
	if !target.UTF8() {
		if _, ok := out.Header.Get("$DWGCODEPAGE"); !ok {
			out.Header.Set("$DWGCODEPAGE", core.Str(3, "ANSI_1252"))
			report.add(Change{Entity: "HEADER", Action: Created, Detail: "$DWGCODEPAGE"})
		}
	}
	if !target.Legacy() {
		return out, report, nil
	}

	c := &converter{
		doc:     out,
		profile: ProfileFor(target),
		policy:  policy.normalized(),
		report:  report,
	}
	c.sections()
	if n := out.DropLayouts(); n > 0 {
		report.add(Change{Entity: "BLOCK", Action: Dropped, Detail: fmt.Sprintf("%d layout blocks merged into model space", n)})
	}
	if err := c.entities(); err != nil {
		return nil, nil, err
	}
	c.records()
	c.tables()
	c.header()
	return out, report, nil
}

// Upgrade returns a copy of doc in a newer modern dialect. The model and
// paper space blocks are created when missing, every entity gets an owner
// and table handles are allocated. Nothing is removed.
func Upgrade(doc *model.Document, target format.Version) (*model.Document, error) {
	if !target.Valid() || target.Legacy() {
		return nil, fmt.Errorf("cannot upgrade to %s", target)
	}
	if target < doc.Version {
		return nil, fmt.Errorf("cannot upgrade %s to the older %s", doc.Version, target)
	}

	out := doc.Clone()
	out.Version = target
	if err := out.EnsureLayouts(); err != nil {
		return nil, fmt.Errorf("failed to create layout blocks: %w", err)
	}
	for _, name := range model.TableOrder {
		if _, raw := out.Table(name); raw || out.TableHandles[name] != 0 {
			continue
		}
		out.TableHandles[name] = out.NewHandle()
	}
	out.Header.Set("$ACADVER", core.Str(1, target.ACADVer()))
	for _, name := range []string{"$FINGERPRINTGUID", "$VERSIONGUID"} {
		if _, ok := out.Header.Get(name); !ok {
			out.Header.Set(name, core.Str(2, "{"+strings.ToUpper(uuid.NewString())+"}"))
		}
	}
	return out, nil
}

type converter struct {
	doc     *model.Document
	profile Profile
	policy  Policy
	report  *Report
}

func (c *converter) filter(tokens []core.Token) ([]core.Token, int) {
	kept := tokens[:0:0]
	for _, t := range tokens {
		if c.profile.AllowsCode(t.Code) {
			kept = append(kept, t)
		}
	}
	return kept, len(tokens) - len(kept)
}

// sections drops the sections only modern dialects have. Other sections
// kept verbatim stay in place without the group codes the target lacks.
func (c *converter) sections() {
	kept := c.doc.Sections[:0:0]
	for _, s := range c.doc.Sections {
		if !c.profile.KeepsSection(s.Name) {
			c.report.add(Change{Entity: s.Name, Action: Dropped, Lossy: true, Detail: "section"})
			continue
		}
		var n int
		if s.Tokens, n = c.filter(s.Tokens); n > 0 {
			c.report.add(Change{Entity: s.Name, Action: Stripped, Lossy: true,
				Detail: fmt.Sprintf("section: %d group codes", n)})
		}
		kept = append(kept, s)
	}
	c.doc.Sections = kept
	if c.doc.Thumbnail != nil {
		c.report.add(Change{Entity: "THUMBNAILIMAGE", Action: Dropped, Lossy: true, Detail: "section"})
		c.doc.Thumbnail = nil
	}
	c.doc.Order = slices.DeleteFunc(c.doc.Order, func(name string) bool {
		return !c.profile.KeepsSection(name)
	})
}

func (c *converter) entities() error {
	var all []model.Entity
	for _, e := range c.doc.AllEntities() {
		all = append(all, e)
	}
	for _, e := range all {
		if err := c.entity(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) entity(e model.Entity) error {
	if u, ok := e.(*model.Unknown); ok {
		return c.unknown(u)
	}

	common := e.Base()
	c.strip(e)
	if c.profile.Supports(e.Kind()) {
		return nil
	}

	kind := e.Kind()
	if kind != model.KindLWPolyline && !c.policy.Allows(kind) {
		return &core.ConversionError{
			Handle: common.Handle.String(),
			Entity: model.TypeName(e),
			Target: c.profile.Version().String(),
			Msg:    "no legacy equivalent and approximation is disabled",
		}
	}

	if n := c.carryExtra(common); n > 0 {
		c.report.add(Change{Handle: common.Handle, Entity: model.TypeName(e), Action: Stripped, Lossy: true,
			Detail: fmt.Sprintf("%d type specific group codes", n)})
	}

	var (
		repls  []model.Entity
		action = Approximated
		detail string
		err    error
	)
	switch v := e.(type) {
	case *model.LWPolyline:
		repls = []model.Entity{lwToPolyline(v)}
		action, detail = Converted, "POLYLINE"
	case *model.Ellipse:
		pl := c.ellipse(v)
		repls = []model.Entity{pl}
		detail = fmt.Sprintf("POLYLINE with %d vertices", len(pl.Vertices))
	case *model.Spline:
		var pl *model.Polyline
		if pl, err = c.spline(v); err != nil {
			return err
		}
		repls = []model.Entity{pl}
		detail = fmt.Sprintf("POLYLINE with %d vertices", len(pl.Vertices))
	case *model.MText:
		repls = mtextToText(v)
		action, detail = Converted, fmt.Sprintf("%d TEXT lines, formatting dropped", len(repls))
	default:
		return &core.ConversionError{
			Handle: common.Handle.String(),
			Entity: model.TypeName(e),
			Target: c.profile.Version().String(),
			Msg:    "no conversion for entity type",
		}
	}

	if err := c.doc.Replace(e, repls...); err != nil {
		return fmt.Errorf("failed to replace %s %s: %w", model.TypeName(e), common.Handle, err)
	}
	c.report.add(Change{
		Handle: repls[0].Base().Handle,
		Entity: model.TypeName(e),
		Action: action,
		Lossy:  action != Converted || kind == model.KindMText,
		Detail: detail,
	})
	return nil
}

// unknown downgrades an entity kept verbatim. A type the target lacks is
// removed when the policy drops it and is an error otherwise.
func (c *converter) unknown(u *model.Unknown) error {
	if !c.profile.SupportsType(u.Type) {
		if !c.policy.Drops(u.Type) {
			return &core.ConversionError{
				Handle: u.Handle.String(),
				Entity: u.Type,
				Target: c.profile.Version().String(),
				Msg:    "no legacy equivalent and dropping is disabled",
			}
		}
		if err := c.doc.Replace(u); err != nil {
			return fmt.Errorf("failed to drop %s %s: %w", u.Type, u.Handle, err)
		}
		c.report.add(Change{Handle: u.Handle, Entity: u.Type, Action: Dropped, Lossy: true,
			Detail: "no legacy equivalent"})
		return nil
	}

	var n int
	if u.Tokens, n = c.filter(u.Tokens); n > 0 {
		c.report.add(Change{Handle: u.Handle, Entity: u.Type, Action: Stripped, Lossy: true,
			Detail: fmt.Sprintf("%d group codes", n)})
	}
	return nil
}

// strip removes the properties of e the legacy dialect cannot store.
func (c *converter) strip(e model.Entity) {
	common := e.Base()
	var lost []string
	if len(common.AppData) > 0 {
		lost = append(lost, "application data")
		common.AppData = nil
	}
	if common.HasLineWeight {
		lost = append(lost, "lineweight")
		common.HasLineWeight, common.LineWeight = false, 0
	}
	if common.HasTrueColor {
		lost = append(lost, "true color")
		common.HasTrueColor, common.TrueColor = false, 0
	}
	var n int
	if common.Extra, n = c.filter(common.Extra); n > 0 {
		lost = append(lost, fmt.Sprintf("%d group codes", n))
	}
	if pl, ok := e.(*model.Polyline); ok {
		removed := 0
		for i := range pl.Vertices {
			pl.Vertices[i].Extra, n = c.filter(pl.Vertices[i].Extra)
			removed += n
		}
		if removed > 0 {
			lost = append(lost, fmt.Sprintf("%d vertex group codes", removed))
		}
	}
	if len(lost) > 0 {
		c.report.add(Change{Handle: common.Handle, Entity: model.TypeName(e), Action: Stripped, Lossy: true,
			Detail: strings.Join(lost, ", ")})
	}
}

// carryExtra keeps the codes of an entity that still mean the same thing
// on a different entity type: paper space, extrusion and XDATA.
func (c *converter) carryExtra(common *model.EntityCommon) int {
	before := len(common.Extra)
	common.Extra = slices.DeleteFunc(slices.Clone(common.Extra), func(t core.Token) bool {
		switch {
		case t.Code == 67, t.Code >= 210 && t.Code <= 230, t.Code >= 1000:
			return false
		}
		return true
	})
	return before - len(common.Extra)
}

func lwToPolyline(lw *model.LWPolyline) *model.Polyline {
	pl := &model.Polyline{
		EntityCommon: lw.EntityCommon,
		Flags:        lw.Flags & (1 | 128),
		Elevation:    lw.Elevation,
	}
	if lw.Width != 0 {
		pl.Extra = append(pl.Extra, core.Real(40, lw.Width), core.Real(41, lw.Width))
	}
	for _, v := range lw.Vertices {
		vx := model.Vertex{Location: model.V2(v.X, v.Y), Bulge: v.Bulge}
		if v.StartWidth != 0 || v.EndWidth != 0 {
			vx.Extra = []core.Token{core.Real(40, v.StartWidth), core.Real(41, v.EndWidth)}
		}
		pl.Vertices = append(pl.Vertices, vx)
	}
	return pl
}

func (c *converter) ellipse(e *model.Ellipse) *model.Polyline {
	p := c.policy
	pts := geom.EllipsePoints(e.Center, e.MajorAxis, e.Ratio, e.StartParam, e.EndParam,
		p.ChordTolerance, p.MinSegments, p.MaxSegments)
	closed := geom.FullEllipse(e.StartParam, e.EndParam)
	if closed {
		pts = pts[:len(pts)-1]
	}
	return polylineThrough(e.EntityCommon, pts, closed)
}

func (c *converter) spline(s *model.Spline) (*model.Polyline, error) {
	if len(s.Control) == 0 && len(s.FitPoints) >= 2 {
		return polylineThrough(s.EntityCommon, s.FitPoints, s.Closed()), nil
	}
	knots := s.Knots
	if len(knots) == 0 {
		knots = geom.UniformKnots(s.Degree, len(s.Control))
	}
	pts, err := geom.SplinePoints(s.Degree, knots, s.Control, s.Weights, c.policy.SplineSegments, c.policy.MaxSegments)
	if err != nil {
		return nil, &core.ConversionError{
			Handle: s.Handle.String(),
			Entity: "SPLINE",
			Target: c.profile.Version().String(),
			Msg:    err.Error(),
		}
	}
	closed := s.Closed()
	if closed && len(pts) > 2 && pts[0].Distance(pts[len(pts)-1]) < 1e-9 {
		pts = pts[:len(pts)-1]
	}
	return polylineThrough(s.EntityCommon, pts, closed), nil
}

// polylineThrough builds a POLYLINE through points. Points sharing one Z
// give a 2D polyline at that elevation, others a 3D polyline.
func polylineThrough(common model.EntityCommon, pts []model.Vec3, closed bool) *model.Polyline {
	pl := &model.Polyline{EntityCommon: common}
	if closed {
		pl.Flags |= 1
	}
	flat := true
	for _, p := range pts {
		if p.Z != pts[0].Z {
			flat = false
			break
		}
	}
	vflags := 0
	if flat && len(pts) > 0 {
		pl.Elevation = pts[0].Z
	} else if !flat {
		pl.Flags |= 8
		vflags = 32
	}
	for _, p := range pts {
		loc := p
		if flat {
			loc.Z = 0
		}
		pl.Vertices = append(pl.Vertices, model.Vertex{Location: loc, Flags: vflags})
	}
	return pl
}

// mtextToText turns MTEXT into one TEXT per paragraph, aligned like the
// MTEXT attachment point. The first TEXT keeps the MTEXT handle.
func mtextToText(m *model.MText) []model.Entity {
	lines := plainLines(m.Value)
	attach := m.Attachment
	if attach < 1 || attach > 9 {
		attach = 1
	}
	col, row := (attach-1)%3, (attach-1)/3
	valign := 3 - row
	frac := float64(row) / 2

	spacing := m.Height * mtextLineSpacing
	rad := m.Rotation * math.Pi / 180
	down := model.Vec3{X: math.Sin(rad), Y: -math.Cos(rad)}
	first := float64(len(lines)-1) * frac

	out := make([]model.Entity, 0, len(lines))
	for i, line := range lines {
		common := m.EntityCommon
		if i > 0 {
			common.Handle = 0
			common.Extra = slices.Clone(m.Extra)
		}
		at := m.Insertion.Add(down.Scale((float64(i) - first) * spacing))
		out = append(out, &model.Text{
			EntityCommon: common,
			Insertion:    at,
			Alignment:    at,
			HasAlignment: true,
			Height:       m.Height,
			Value:        line,
			Rotation:     m.Rotation,
			Style:        m.Style,
			HAlign:       col,
			VAlign:       valign,
		})
	}
	return out
}

func (c *converter) records() {
	strip := func(table, name string, h model.Handle, extra *[]core.Token) {
		var n int
		if *extra, n = c.filter(*extra); n > 0 {
			c.report.add(Change{Handle: h, Entity: table, Action: Stripped, Lossy: true,
				Detail: fmt.Sprintf("%s: %d group codes", name, n)})
		}
	}
	for _, lt := range c.doc.LineTypes.All() {
		strip("LTYPE", lt.Name, lt.Handle, &lt.Extra)
	}
	for _, l := range c.doc.Layers.All() {
		strip("LAYER", l.Name, l.Handle, &l.Extra)
	}
	for _, s := range c.doc.Styles.All() {
		strip("STYLE", s.RecordName(), s.Handle, &s.Extra)
	}
	for _, b := range c.doc.Blocks.All() {
		strip("BLOCK", b.Name, b.Handle, &b.Extra)
		b.RecordExtra = nil
	}
}

func (c *converter) tables() {
	known := c.profile.Tables()
	c.doc.Tables = slices.DeleteFunc(c.doc.Tables, func(t *model.RawTable) bool {
		if !slices.Contains(known, strings.ToUpper(t.Name)) {
			c.report.add(Change{Entity: t.Name, Action: Dropped, Lossy: true, Detail: "table"})
			return true
		}
		return false
	})
	for _, t := range c.doc.Tables {
		var n int
		if t.Tokens, n = c.filter(t.Tokens); n > 0 {
			c.report.add(Change{Entity: t.Name, Action: Stripped, Lossy: true,
				Detail: fmt.Sprintf("table: %d group codes", n)})
		}
	}
	c.doc.TableHandles = make(map[string]model.Handle)
}

func (c *converter) header() {
	h := c.doc.Header
	if _, ok := h.Get("$HANDLING"); !ok {
		h.Set("$HANDLING", core.Int(70, 1))
	}
	var dropped []string
	for _, v := range slices.Clone(h.Vars()) {
		kept, n := c.filter(v.Values)
		switch {
		case n == 0:
		case len(kept) == 0:
			h.Delete(v.Name)
			dropped = append(dropped, v.Name)
		default:
			h.Set(v.Name, kept...)
		}
	}
	if len(dropped) > 0 {
		c.report.add(Change{Entity: "HEADER", Action: Dropped, Lossy: true, Detail: strings.Join(dropped, ", ")})
	}
}
