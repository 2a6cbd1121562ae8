package dialect_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
	"github.com/tsawler/dxf/section"
)

func newDoc(t *testing.T, entities ...model.Entity) *model.Document {
	t.Helper()
	doc := model.NewDocument(format.R2000)
	for _, e := range entities {
		require.NoError(t, doc.Insert(e))
	}
	return doc
}

func entitiesOf(doc *model.Document) []model.Entity {
	var out []model.Entity
	for e := range doc.Entities() {
		out = append(out, e)
	}
	return out
}

func TestDowngradeLWPolyline(t *testing.T) {
	lw := &model.LWPolyline{
		Flags:     1,
		Elevation: 2,
		Vertices: []model.LWVertex{
			{X: 0, Y: 0, Bulge: 1},
			{X: 2, Y: 0, StartWidth: 0.1, EndWidth: 0.2},
			{X: 2, Y: 2},
		},
	}
	doc := newDoc(t, lw)

	out, report, err := dialect.Downgrade(doc, format.R12, dialect.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, format.R12, out.Version)

	ents := entitiesOf(out)
	require.Len(t, ents, 1)
	pl, ok := ents[0].(*model.Polyline)
	require.True(t, ok)
	assert.Equal(t, lw.Handle, pl.Handle)
	assert.True(t, pl.Closed())
	assert.Equal(t, 2.0, pl.Elevation)
	require.Len(t, pl.Vertices, 3)
	assert.Equal(t, model.V2(2, 0), pl.Vertices[1].Location)
	assert.Equal(t, 1.0, pl.Vertices[0].Bulge)
	assert.Equal(t, []core.Token{core.Real(40, 0.1), core.Real(41, 0.2)}, pl.Vertices[1].Extra)

	assert.Equal(t, 1, report.Count(dialect.Converted))
	assert.False(t, report.Lossy())

	_, still := entitiesOf(doc)[0].(*model.LWPolyline)
	assert.True(t, still, "input document is untouched")
	assert.NotNil(t, doc.ModelSpace())
}

func TestDowngradeEllipseIsDeterministic(t *testing.T) {
	el := &model.Ellipse{Center: model.Vec3{X: 1, Y: 1, Z: 3}, MajorAxis: model.V2(4, 0), Ratio: 0.5, EndParam: 2 * math.Pi}
	doc := newDoc(t, el)
	policy := dialect.DefaultPolicy()

	first, report, err := dialect.Downgrade(doc, format.R12, policy)
	require.NoError(t, err)
	second, _, err := dialect.Downgrade(doc, format.R12, policy)
	require.NoError(t, err)

	a := entitiesOf(first)[0].(*model.Polyline)
	b := entitiesOf(second)[0].(*model.Polyline)
	assert.Equal(t, a.Vertices, b.Vertices)
	assert.True(t, a.Closed())
	assert.Equal(t, 3.0, a.Elevation)
	assert.GreaterOrEqual(t, len(a.Vertices), policy.MinSegments-1)
	assert.LessOrEqual(t, len(a.Vertices), policy.MaxSegments)

	for _, v := range a.Vertices {
		x, y := (v.Location.X-1)/4, (v.Location.Y-1)/2
		assert.InDelta(t, 1, x*x+y*y, 1e-9)
	}
	assert.Equal(t, 1, report.Count(dialect.Approximated))
	assert.True(t, report.Lossy())
}

func TestDowngradeSpline(t *testing.T) {
	sp := &model.Spline{
		Degree:  2,
		Knots:   []float64{0, 0, 0, 1, 1, 1},
		Control: []model.Vec3{{}, model.V2(1, 2), model.V2(2, 0)},
	}
	doc := newDoc(t, sp)
	policy := dialect.DefaultPolicy()
	policy.SplineSegments = 4

	out, _, err := dialect.Downgrade(doc, format.R12, policy)
	require.NoError(t, err)
	pl := entitiesOf(out)[0].(*model.Polyline)
	require.Len(t, pl.Vertices, 5)
	assert.Equal(t, model.Vec3{}, pl.Vertices[0].Location)
	assert.InDelta(t, 2, pl.Vertices[4].Location.X, 1e-12)
	assert.InDelta(t, 1, pl.Vertices[2].Location.Y, 1e-12)
	assert.Zero(t, pl.Flags&8)
}

func TestDowngradeBrokenSpline(t *testing.T) {
	sp := &model.Spline{Degree: 3, Knots: []float64{0, 1}, Control: []model.Vec3{{}, model.V2(1, 1)}}
	doc := newDoc(t, sp)

	_, _, err := dialect.Downgrade(doc, format.R12, dialect.DefaultPolicy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConversion))
}

func TestDowngradeRejectsDisabledApproximation(t *testing.T) {
	el := &model.Ellipse{MajorAxis: model.V2(1, 0), Ratio: 1}
	doc := newDoc(t, el)

	out, report, err := dialect.Downgrade(doc, format.R12, dialect.DefaultPolicy().WithApproximate())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, core.ErrConversion))

	var ce *core.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, el.Handle.String(), ce.Handle)
	assert.Equal(t, "ELLIPSE", ce.Entity)
	assert.Equal(t, "R12", ce.Target)
}

func TestDowngradeMText(t *testing.T) {
	mt := &model.MText{
		Insertion:  model.V2(10, 20),
		Height:     3,
		Value:      `{\fArial|b1;Hello}\PWorld`,
		Attachment: 1,
	}
	doc := newDoc(t, &model.Point{}, mt)

	out, report, err := dialect.Downgrade(doc, format.R12, dialect.DefaultPolicy())
	require.NoError(t, err)

	ents := entitiesOf(out)
	require.Len(t, ents, 3)
	first := ents[1].(*model.Text)
	second := ents[2].(*model.Text)
	assert.Equal(t, mt.Handle, first.Handle)
	assert.NotEqual(t, first.Handle, second.Handle)
	assert.Equal(t, "Hello", first.Value)
	assert.Equal(t, "World", second.Value)
	assert.Equal(t, model.V2(10, 20), first.Alignment)
	assert.InDelta(t, 15, second.Alignment.Y, 1e-9)
	assert.Equal(t, 0, first.HAlign)
	assert.Equal(t, 3, first.VAlign)
	assert.True(t, report.Lossy())
}

func TestDowngradeStripsModernData(t *testing.T) {
	line := &model.Line{
		EntityCommon: model.EntityCommon{
			LineWeight: 50, HasLineWeight: true,
			TrueColor: 0xFF, HasTrueColor: true,
			AppData: [][]core.Token{{core.Str(102, "{ACAD_REACTORS"), core.Handle(330, "1F"), core.Str(102, "}")}},
			Extra:   []core.Token{core.Handle(360, "2A"), core.Str(1001, "APP"), core.Str(1000, "kept")},
		},
		End: model.V2(1, 1),
	}
	doc := newDoc(t, line)
	doc.Sections = append(doc.Sections, &model.RawSection{Name: "OBJECTS", Tokens: []core.Token{core.Str(0, "DICTIONARY")}})
	doc.Order = []string{"HEADER", "TABLES", "BLOCKS", "ENTITIES", "OBJECTS"}
	doc.Thumbnail = []byte("BM")
	doc.Header.Set("$PSTYLEMODE", core.Bool(290, true))

	out, report, err := dialect.Downgrade(doc, format.R12, dialect.DefaultPolicy())
	require.NoError(t, err)

	got := entitiesOf(out)[0].(*model.Line)
	assert.False(t, got.HasLineWeight)
	assert.False(t, got.HasTrueColor)
	assert.Nil(t, got.AppData)
	assert.Equal(t, []core.Token{core.Str(1001, "APP"), core.Str(1000, "kept")}, got.Extra)
	assert.Zero(t, got.Owner)

	assert.Empty(t, out.Sections)
	assert.Nil(t, out.Thumbnail)
	assert.Equal(t, []string{"HEADER", "TABLES", "BLOCKS", "ENTITIES"}, out.Order)
	_, ok := out.Header.Get("$PSTYLEMODE")
	assert.False(t, ok)
	handling, _ := out.Header.Get("$HANDLING")
	assert.Equal(t, []core.Token{core.Int(70, 1)}, handling)
	assert.Nil(t, out.ModelSpace())
	assert.GreaterOrEqual(t, report.Count(dialect.Dropped), 3)
	assert.True(t, report.Lossy())

	assert.True(t, got.Base().Handle == line.Handle)
	assert.True(t, line.HasLineWeight, "input document is untouched")
	assert.Len(t, doc.Sections, 1)
}

func TestDowngradeWritesLegacyFile(t *testing.T) {
	doc := newDoc(t,
		&model.LWPolyline{Vertices: []model.LWVertex{{X: 0}, {X: 1, Y: 1}}},
		&model.Ellipse{MajorAxis: model.V2(2, 0), Ratio: 0.5, EndParam: math.Pi},
		&model.MText{Height: 1, Value: `a\Pb\Pc`},
		&model.Spline{Degree: 1, Control: []model.Vec3{{}, model.V2(1, 0), model.V2(1, 1)}},
	)
	require.NoError(t, doc.InsertInto(model.PaperSpaceBlock, &model.Circle{Radius: 1}))

	out, _, err := dialect.Downgrade(doc, format.R12, dialect.DefaultPolicy())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, section.Write(section.NewTokenWriter(&buf, format.ASCII, out.Version), out))
	text := buf.String()
	for _, modern := range []string{"LWPOLYLINE", "ELLIPSE", "MTEXT", "SPLINE", "AcDb", "*Model_Space"} {
		assert.NotContains(t, text, modern)
	}

	tr, err := core.NewReader(strings.NewReader(text))
	require.NoError(t, err)
	back, err := section.Parse(tr, model.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, format.R12, back.Version)
	assert.Equal(t, out.EntityCount(), back.EntityCount())
	assert.Equal(t, 7, back.EntityCount())
	assert.NoError(t, back.Validate())

	var paper int
	for e := range back.Entities() {
		if model.InPaperSpace(e) {
			paper++
		}
	}
	assert.Equal(t, 1, paper)
}

func TestDowngradeBetweenModernVersions(t *testing.T) {
	doc := model.NewDocument(format.R2018)
	require.NoError(t, doc.Insert(&model.Ellipse{MajorAxis: model.V2(1, 0), Ratio: 1}))

	out, report, err := dialect.Downgrade(doc, format.R2000, dialect.Policy{})
	require.NoError(t, err)
	assert.Equal(t, format.R2000, out.Version)
	acadver, _ := out.Header.String("$ACADVER")
	assert.Equal(t, "AC1015", acadver)
	assert.Equal(t, "ANSI_1252", out.CodePage())
	_, ok := entitiesOf(out)[0].(*model.Ellipse)
	assert.True(t, ok)
	assert.False(t, report.Lossy())

	_, _, err = dialect.Downgrade(out, format.R2018, dialect.Policy{})
	assert.Error(t, err)
}

func TestUpgrade(t *testing.T) {
	doc := model.NewDocument(format.R12)
	line := &model.Line{End: model.V2(1, 0)}
	paper := &model.Circle{EntityCommon: model.EntityCommon{Extra: []core.Token{core.Int(67, 1)}}, Radius: 2}
	require.NoError(t, doc.Insert(line))
	require.NoError(t, doc.Insert(paper))

	out, err := dialect.Upgrade(doc, format.R2010)
	require.NoError(t, err)
	assert.Equal(t, format.R2010, out.Version)

	ms := out.ModelSpace()
	require.NotNil(t, ms)
	ps, ok := out.Blocks.Get(model.PaperSpaceBlock)
	require.True(t, ok)

	ents := entitiesOf(out)
	assert.Equal(t, ms.Handle, ents[0].Base().Owner)
	assert.Equal(t, ps.Handle, ents[1].Base().Owner)
	for _, name := range []string{"LTYPE", "LAYER", "STYLE", "BLOCK_RECORD"} {
		assert.NotZero(t, out.TableHandles[name], name)
	}
	guid, ok := out.Header.String("$FINGERPRINTGUID")
	require.True(t, ok)
	assert.Len(t, guid, 38)
	assert.NoError(t, out.Validate())

	assert.Nil(t, doc.ModelSpace(), "input document is untouched")
	assert.Zero(t, line.Owner)

	var buf bytes.Buffer
	require.NoError(t, section.Write(section.NewTokenWriter(&buf, format.ASCII, out.Version), out))
	assert.Contains(t, buf.String(), "AcDbEntity")
}

func TestUpgradeRejectsOlderTargets(t *testing.T) {
	doc := model.NewDocument(format.R2013)
	_, err := dialect.Upgrade(doc, format.R12)
	assert.Error(t, err)
	_, err = dialect.Upgrade(doc, format.R2004)
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	legacy := model.NewDocument(format.R12)
	up, report, err := dialect.Convert(legacy, format.R2000, dialect.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, format.R2000, up.Version)
	assert.Equal(t, 2, report.Count(dialect.Created))

	down, report, err := dialect.Convert(up, format.R12, dialect.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, format.R12, down.Version)
	assert.Equal(t, format.R2000, report.From)

	_, _, err = dialect.Convert(up, format.Unknown, dialect.DefaultPolicy())
	assert.Error(t, err)
}

func TestDowngradeUnknownEntities(t *testing.T) {
	leader := func() *model.Unknown {
		return &model.Unknown{Type: "LEADER", Tokens: []core.Token{core.Str(100, "AcDbLeader"), core.Real(10, 0), core.Real(20, 0)}}
	}
	hatch := func() *model.Unknown {
		return &model.Unknown{Type: "HATCH", Tokens: []core.Token{core.Str(100, "AcDbHatch"), core.Str(2, "SOLID")}}
	}

	tests := []struct {
		name      string
		policy    dialect.Policy
		failsOn   string
		remaining []string
	}{
		{"default policy", dialect.DefaultPolicy(), "LEADER", nil},
		{"no approximation", dialect.DefaultPolicy().WithApproximate(), "LEADER", nil},
		{"drop one type", dialect.DefaultPolicy().WithDrop("leader"), "HATCH", nil},
		{"drop both", dialect.DefaultPolicy().WithDrop("LEADER", "HATCH"), "", []string{"LINE", "3DFACE"}},
		{"drop all", dialect.DefaultPolicy().WithDrop("*"), "", []string{"LINE", "3DFACE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := &model.Unknown{Type: "3DFACE", Tokens: []core.Token{core.Real(10, 0), core.Handle(330, "1F")}}
			doc := newDoc(t, &model.Line{End: model.V2(1, 0)}, leader(), hatch(), face)

			out, report, err := dialect.Downgrade(doc, format.R12, tt.policy)
			if tt.failsOn != "" {
				require.Error(t, err)
				assert.Nil(t, out)
				var ce *core.ConversionError
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, tt.failsOn, ce.Entity)
				assert.Equal(t, "R12", ce.Target)
				return
			}
			require.NoError(t, err)

			var types []string
			for _, e := range entitiesOf(out) {
				types = append(types, model.TypeName(e))
			}
			assert.Equal(t, tt.remaining, types)
			var dropped []string
			for _, c := range report.Changes {
				if c.Action == dialect.Dropped && c.Handle != 0 {
					dropped = append(dropped, c.Entity)
				}
			}
			assert.Equal(t, []string{"LEADER", "HATCH"}, dropped)
			assert.True(t, report.Lossy())
			assert.Equal(t, 4, doc.EntityCount(), "input document is untouched")

			kept := entitiesOf(out)[1].(*model.Unknown)
			assert.Equal(t, []core.Token{core.Real(10, 0)}, kept.Tokens, "modern codes are stripped from legacy types")

			var buf bytes.Buffer
			require.NoError(t, section.Write(section.NewTokenWriter(&buf, format.ASCII, out.Version), out))
			assert.NotContains(t, buf.String(), "LEADER")
			assert.NotContains(t, buf.String(), "HATCH")
			assert.Contains(t, buf.String(), "3DFACE")
		})
	}
}

func TestDowngradeKeepsUnknownSections(t *testing.T) {
	doc := newDoc(t, &model.Line{End: model.V2(1, 0)})
	doc.Sections = []*model.RawSection{
		{Name: "ACME_DATA", Tokens: []core.Token{core.Str(0, "THING"), core.Handle(330, "1F"), core.Str(1, "kept")}},
		{Name: "OBJECTS", Tokens: []core.Token{core.Str(0, "DICTIONARY")}},
	}
	doc.Order = []string{"HEADER", "TABLES", "ACME_DATA", "BLOCKS", "ENTITIES", "OBJECTS"}

	out, report, err := dialect.Downgrade(doc, format.R12, dialect.DefaultPolicy())
	require.NoError(t, err)

	require.Len(t, out.Sections, 1)
	assert.Equal(t, "ACME_DATA", out.Sections[0].Name)
	assert.Equal(t, []core.Token{core.Str(0, "THING"), core.Str(1, "kept")}, out.Sections[0].Tokens)
	assert.Equal(t, []string{"HEADER", "TABLES", "ACME_DATA", "BLOCKS", "ENTITIES"}, out.Order)

	var changes []string
	for _, c := range report.Changes {
		if c.Entity == "ACME_DATA" || c.Entity == "OBJECTS" {
			changes = append(changes, c.String())
		}
	}
	assert.Equal(t, []string{"ACME_DATA: stripped (section: 1 group codes)", "OBJECTS: dropped (section)"}, changes)
	assert.Len(t, doc.Sections[0].Tokens, 3, "input document is untouched")

	var buf bytes.Buffer
	require.NoError(t, section.Write(section.NewTokenWriter(&buf, format.ASCII, out.Version), out))
	text := buf.String()
	assert.Contains(t, text, "ACME_DATA")
	assert.NotContains(t, text, "OBJECTS")
	assert.Less(t, strings.Index(text, "ACME_DATA"), strings.Index(text, "BLOCKS"), "the section keeps its position")
}
