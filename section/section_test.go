package section

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
)

// dxf builds a text DXF stream from code/value pairs.
func dxf(pairs ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "%3d\n%v\n", pairs[i], pairs[i+1])
	}
	return b.String()
}

func reader(t *testing.T, s string) core.TokenReader {
	t.Helper()
	tr, err := core.NewReader(strings.NewReader(s))
	require.NoError(t, err)
	return tr
}

func parse(t *testing.T, s string) *model.Document {
	t.Helper()
	doc, err := Parse(reader(t, s), model.DefaultOptions())
	require.NoError(t, err)
	return doc
}

func write(t *testing.T, doc *model.Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(NewTokenWriter(&buf, format.ASCII, doc.Version), doc))
	return buf.String()
}

func tokensOf(t *testing.T, s string) []core.Token {
	t.Helper()
	toks, err := core.ReadAll(reader(t, s))
	require.NoError(t, err)
	return toks
}

func sectionNames(toks []core.Token) []string {
	var names []string
	for i, tok := range toks {
		if tok.Is(0, "SECTION") && i+1 < len(toks) {
			names = append(names, toks[i+1].Str)
		}
	}
	return names
}

var r12Drawing = dxf(
	0, "SECTION", 2, "HEADER",
	9, "$ACADVER", 1, "AC1009",
	9, "$HANDSEED", 5, "30",
	0, "ENDSEC",
	0, "SECTION", 2, "TABLES",
	0, "TABLE", 2, "LTYPE", 70, 1,
	0, "LTYPE", 2, "DASHED", 70, 0, 3, "Dashed __ __", 72, 65, 73, 2, 40, 0.75, 49, 0.5, 49, -0.25,
	0, "ENDTAB",
	0, "TABLE", 2, "LAYER", 70, 2,
	0, "LAYER", 2, "0", 70, 0, 62, 7, 6, "CONTINUOUS",
	0, "LAYER", 2, "WALLS", 70, 0, 62, -1, 6, "DASHED",
	0, "ENDTAB",
	0, "TABLE", 2, "VPORT", 70, 0,
	0, "ENDTAB",
	0, "ENDSEC",
	0, "SECTION", 2, "BLOCKS",
	0, "BLOCK", 8, "0", 2, "DOOR", 70, 0, 10, 0.0, 20, 0.0, 30, 0.0,
	0, "LINE", 8, "0", 10, 0.0, 20, 0.0, 30, 0.0, 11, 1.0, 21, 0.0, 31, 0.0,
	0, "ENDBLK", 8, "0",
	0, "ENDSEC",
	0, "SECTION", 2, "ENTITIES",
	0, "LINE", 5, "20", 8, "WALLS", 10, 0.0, 20, 0.0, 30, 0.0, 11, 10.0, 21, 5.0, 31, 0.0,
	0, "INSERT", 5, "21", 8, "0", 2, "DOOR", 10, 5.0, 20, 5.0, 30, 0.0, 41, 2.0,
	0, "POLYLINE", 5, "22", 8, "0", 66, 1, 10, 0.0, 20, 0.0, 30, 0.0, 70, 1,
	0, "VERTEX", 5, "23", 8, "0", 10, 0.0, 20, 0.0, 30, 0.0, 42, 0.5,
	0, "VERTEX", 5, "24", 8, "0", 10, 1.0, 20, 0.0, 30, 0.0,
	0, "SEQEND", 5, "25", 8, "0",
	0, "ENDSEC",
	0, "EOF",
)

func TestParseR12(t *testing.T) {
	doc := parse(t, r12Drawing)

	assert.Equal(t, format.R12, doc.Version)
	assert.GreaterOrEqual(t, doc.Seed(), model.Handle(0x30))

	dashed, ok := doc.LineTypes.Get("DASHED")
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, -0.25}, dashed.Pattern)
	assert.Empty(t, dashed.Extra)

	walls, ok := doc.Layers.Get("WALLS")
	require.True(t, ok)
	assert.True(t, walls.Off)
	assert.Equal(t, model.Color(1), walls.Color)
	assert.Equal(t, dashed.Handle, walls.LineType)

	_, ok = doc.Table("VPORT")
	assert.True(t, ok, "unmodelled tables are kept raw")

	var ents []model.Entity
	for e := range doc.Entities() {
		ents = append(ents, e)
	}
	require.Len(t, ents, 3)

	line := ents[0].(*model.Line)
	assert.Equal(t, model.Handle(0x20), line.Handle)
	assert.Equal(t, walls.Handle, line.Layer)
	assert.Equal(t, model.Vec3{X: 10, Y: 5}, line.End)

	ins := ents[1].(*model.Insert)
	assert.Equal(t, model.Vec3{X: 2, Y: 1, Z: 1}, ins.Scale)
	name, _ := doc.NameOf(ins.Block)
	assert.Equal(t, "DOOR", name)

	pl := ents[2].(*model.Polyline)
	assert.True(t, pl.Closed())
	require.Len(t, pl.Vertices, 2)
	assert.Equal(t, model.Handle(0x23), pl.Vertices[0].Handle)
	assert.Equal(t, 0.5, pl.Vertices[0].Bulge)
	assert.Equal(t, model.Handle(0x25), pl.SeqEnd)

	door, ok := doc.Blocks.Get("DOOR")
	require.True(t, ok)
	assert.Len(t, door.Entities, 1)
	assert.NoError(t, doc.Validate())
}

func TestParseStructuralErrors(t *testing.T) {
	header := []any{0, "SECTION", 2, "HEADER", 9, "$ACADVER", 1, "AC1009", 0, "ENDSEC"}
	entities := []any{0, "SECTION", 2, "ENTITIES", 0, "ENDSEC"}
	join := func(parts ...[]any) string {
		var all []any
		for _, p := range parts {
			all = append(all, p...)
		}
		return dxf(all...)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"missing header", join(entities, []any{0, "EOF"})},
		{"missing entities", join(header, []any{0, "EOF"})},
		{"endsec without section", join(header, []any{0, "ENDSEC"})},
		{"eof inside section", join(header, []any{0, "SECTION", 2, "ENTITIES", 0, "EOF"})},
		{"truncated section", join(header, []any{0, "SECTION", 2, "ENTITIES"})},
		{"nested section", join(header, []any{0, "SECTION", 2, "ENTITIES", 0, "SECTION", 2, "BLOCKS", 0, "ENDSEC", 0, "ENDSEC"})},
		{"missing section name", join([]any{0, "SECTION", 9, "$ACADVER"})},
		{"duplicate section", join(header, header, entities)},
		{"table without endtab", join(header, []any{0, "SECTION", 2, "TABLES", 0, "TABLE", 2, "LAYER", 0, "ENDSEC"}, entities)},
		{"block without endblk", join(header, []any{0, "SECTION", 2, "BLOCKS", 0, "BLOCK", 2, "A", 0, "ENDSEC"}, entities)},
		{"entity outside block", join(header, []any{0, "SECTION", 2, "BLOCKS", 0, "LINE", 8, "0", 0, "ENDSEC"}, entities)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(reader(t, tt.input), model.DefaultOptions())
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrStructure), "got %v", err)
			assert.Nil(t, doc)
		})
	}
}

func TestParseReferencePolicy(t *testing.T) {
	input := dxf(
		0, "SECTION", 2, "HEADER", 9, "$ACADVER", 1, "AC1015", 0, "ENDSEC",
		0, "SECTION", 2, "ENTITIES",
		0, "LINE", 5, "A0", 8, "GHOST", 10, 0.0, 20, 0.0, 11, 1.0, 21, 1.0,
		0, "ENDSEC",
		0, "EOF",
	)

	t.Run("autocreate", func(t *testing.T) {
		doc := parse(t, input)
		assert.True(t, doc.Layers.Has("GHOST"))
		assert.True(t, doc.Layers.Has("0"), "layer 0 exists without a TABLES section")
	})

	t.Run("strict", func(t *testing.T) {
		doc, err := Parse(reader(t, input), model.Options{References: model.Strict})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrReference))
		assert.Nil(t, doc)
	})
}

func TestParseFormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unsupported version", dxf(0, "SECTION", 2, "HEADER", 9, "$ACADVER", 1, "XYZ", 0, "ENDSEC", 0, "SECTION", 2, "ENTITIES", 0, "ENDSEC", 0, "EOF")},
		{"bad handle", dxf(0, "SECTION", 2, "HEADER", 0, "ENDSEC", 0, "SECTION", 2, "ENTITIES", 0, "LINE", 5, "XYZ", 0, "ENDSEC", 0, "EOF")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(reader(t, tt.input), model.DefaultOptions())
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrFormat), "got %v", err)
		})
	}
}

func TestParseSeedsPastFileHandles(t *testing.T) {
	doc := parse(t, dxf(
		0, "SECTION", 2, "HEADER", 9, "$ACADVER", 1, "AC1015", 0, "ENDSEC",
		0, "SECTION", 2, "ENTITIES",
		0, "LINE", 5, "FF", 8, "0", 10, 0.0, 20, 0.0, 11, 1.0, 21, 1.0,
		0, "ENDSEC",
		0, "EOF",
	))

	line := &model.Line{End: model.V2(2, 2)}
	require.NoError(t, doc.Insert(line))
	assert.Greater(t, line.Handle, model.Handle(0xFF))
}

func TestParseSectionsInAnyOrder(t *testing.T) {
	doc := parse(t, dxf(
		0, "SECTION", 2, "HEADER", 9, "$ACADVER", 1, "AC1009", 0, "ENDSEC",
		0, "SECTION", 2, "ENTITIES",
		0, "INSERT", 8, "PARTS", 2, "BOLT", 10, 1.0, 20, 1.0,
		0, "ENDSEC",
		0, "SECTION", 2, "BLOCKS",
		0, "BLOCK", 8, "0", 2, "BOLT", 70, 0, 10, 0.0, 20, 0.0,
		0, "CIRCLE", 8, "0", 10, 0.0, 20, 0.0, 40, 0.5,
		0, "ENDBLK",
		0, "ENDSEC",
		0, "SECTION", 2, "TABLES",
		0, "TABLE", 2, "LAYER", 0, "LAYER", 2, "PARTS", 70, 0, 62, 3, 6, "CONTINUOUS", 0, "ENDTAB",
		0, "ENDSEC",
		0, "EOF",
	))

	parts, ok := doc.Layers.Get("PARTS")
	require.True(t, ok)
	assert.Equal(t, model.Color(3), parts.Color, "the table record wins over an auto-created layer")

	bolt, ok := doc.Blocks.Get("BOLT")
	require.True(t, ok)
	assert.Len(t, bolt.Entities, 1)
	assert.Equal(t, []string{"HEADER", "ENTITIES", "BLOCKS", "TABLES"}, doc.Order)
}

func TestParseCodePage(t *testing.T) {
	// "При" in Windows-1251.
	doc := parse(t, dxf(
		0, "SECTION", 2, "HEADER", 9, "$ACADVER", 1, "AC1015", 9, "$DWGCODEPAGE", 3, "ANSI_1251", 0, "ENDSEC",
		0, "SECTION", 2, "ENTITIES",
		0, "TEXT", 8, "0", 10, 0.0, 20, 0.0, 40, 1.0, 1, "\xcf\xf0\xe8 \\U+00E9",
		0, "ENDSEC",
		0, "EOF",
	))
	for e := range doc.Entities() {
		assert.Equal(t, "При é", e.(*model.Text).Value)
	}
}

func TestParseUnknownDataPreserved(t *testing.T) {
	input := dxf(
		0, "SECTION", 2, "HEADER", 9, "$ACADVER", 1, "AC1015", 9, "$CUSTOM", 70, 3, 0, "ENDSEC",
		0, "SECTION", 2, "CLASSES", 0, "CLASS", 1, "ACDBDICTIONARYWDFLT", 2, "AcDbDictionaryWithDefault", 0, "ENDSEC",
		0, "SECTION", 2, "ENTITIES",
		0, "LINE", 5, "40", 330, "1F", 100, "AcDbEntity", 8, "0", 100, "AcDbLine",
		10, 0.0, 20, 0.0, 30, 0.0, 11, 1.0, 21, 1.0, 31, 0.0, 39, 2.5,
		1001, "MYAPP", 1000, "hello", 1070, 7,
		0, "HATCH", 5, "41", 330, "1F", 100, "AcDbEntity", 8, "0", 100, "AcDbHatch", 2, "SOLID", 70, 1,
		0, "ENDSEC",
		0, "SECTION", 2, "ACDSDATA", 70, 2, 0, "ACDSSCHEMA", 90, 0, 0, "ENDSEC",
		0, "SECTION", 2, "OBJECTS", 0, "DICTIONARY", 5, "C", 330, "0", 100, "AcDbDictionary", 0, "ENDSEC",
		0, "EOF",
	)
	doc := parse(t, input)

	var ents []model.Entity
	for e := range doc.Entities() {
		ents = append(ents, e)
	}
	require.Len(t, ents, 2)
	line := ents[0].(*model.Line)
	assert.Equal(t, model.Handle(0x1F), line.Owner)
	assert.Equal(t, []core.Token{
		core.Real(39, 2.5), core.Str(1001, "MYAPP"), core.Str(1000, "hello"), core.Int(1070, 7),
	}, line.Extra)

	hatch := ents[1].(*model.Unknown)
	assert.Equal(t, "HATCH", hatch.Type)
	assert.Equal(t, model.Handle(0x41), hatch.Handle)

	out := tokensOf(t, write(t, doc))
	assert.Equal(t, []string{"HEADER", "CLASSES", "TABLES", "BLOCKS", "ENTITIES", "ACDSDATA", "OBJECTS"}, sectionNames(out))
	assert.True(t, containsRun(out, core.Str(9, "$CUSTOM"), core.Int(70, 3)))
	assert.True(t, containsRun(out, core.Str(1001, "MYAPP"), core.Str(1000, "hello"), core.Int(1070, 7)))
	assert.True(t, containsRun(out, core.Str(0, "HATCH"), core.Handle(5, "41"), core.Handle(330, "1F"), core.Str(100, "AcDbEntity")))
	assert.True(t, containsRun(out, core.Str(0, "ACDSSCHEMA"), core.Int(90, 0)))
	assert.True(t, containsRun(out, core.Str(0, "DICTIONARY"), core.Handle(5, "C")))
}

// containsRun reports whether want appears as a contiguous run in toks.
func containsRun(toks []core.Token, want ...core.Token) bool {
outer:
	for i := 0; i+len(want) <= len(toks); i++ {
		for j, w := range want {
			if !toks[i+j].Equal(w) {
				continue outer
			}
		}
		return true
	}
	return false
}

// sampleDocument builds a drawing with one entity of every modelled kind.
func sampleDocument(t *testing.T, v format.Version) *model.Document {
	t.Helper()
	doc := model.NewDocument(v)
	require.NoError(t, doc.AddLayer(&model.Layer{Name: "WALLS", Color: 3}))
	require.NoError(t, doc.AddLineType(&model.LineType{Name: "DASHED", Description: "Dashed", Pattern: []float64{0.5, -0.25}}))
	walls, err := doc.LayerHandle("WALLS")
	require.NoError(t, err)
	dashed, err := doc.LineTypeHandle("DASHED")
	require.NoError(t, err)

	door := &model.Block{Name: "DOOR", Base: model.V2(1, 1)}
	door.Entities = append(door.Entities, &model.Arc{Center: model.V2(1, 1), Radius: 1, StartAngle: 0, EndAngle: 90})
	require.NoError(t, doc.AddBlock(door))

	ents := []model.Entity{
		&model.Line{EntityCommon: model.EntityCommon{Layer: walls, LineType: dashed, Color: 1}, Start: model.V2(0, 0), End: model.Vec3{X: 10, Y: 5, Z: 1}},
		&model.Point{Location: model.V2(3, 4)},
		&model.Circle{Center: model.V2(5, 5), Radius: 2.5},
		&model.Text{Insertion: model.V2(1, 2), Height: 2.5, Value: "Hello", Rotation: 30, HAlign: 1, Alignment: model.V2(3, 2), HasAlignment: true},
		&model.Polyline{Flags: 1, Vertices: []model.Vertex{{Location: model.V2(0, 0), Bulge: 0.5}, {Location: model.V2(4, 0)}, {Location: model.V2(4, 4)}}},
		&model.Insert{Insertion: model.V2(20, 20), Scale: model.Vec3{X: 2, Y: 2, Z: 1}, Rotation: 45},
	}
	ins := ents[len(ents)-1].(*model.Insert)
	ins.Block, err = doc.BlockHandle("DOOR")
	require.NoError(t, err)

	if !v.Legacy() {
		ents = append(ents,
			&model.Ellipse{Center: model.V2(0, 0), MajorAxis: model.V2(4, 0), Ratio: 0.5, EndParam: 6.283185307179586},
			&model.MText{Insertion: model.V2(0, 10), Height: 1, Width: 40, Value: strings.Repeat("Größe ", 60) + `\Pend`},
			&model.LWPolyline{Flags: 1, Vertices: []model.LWVertex{{X: 0, Y: 0, Bulge: 1}, {X: 2, Y: 0, StartWidth: 0.1, EndWidth: 0.2}}},
			&model.Spline{Degree: 3, Knots: []float64{0, 0, 0, 0, 1, 1, 1, 1}, Control: []model.Vec3{{}, {X: 1, Y: 2}, {X: 3, Y: 2}, {X: 4}}},
			&model.Unknown{Type: "HATCH", Tokens: []core.Token{core.Str(100, "AcDbEntity"), core.Str(8, "0"), core.Str(100, "AcDbHatch"), core.Str(2, "SOLID")}},
		)
		ents[0].Base().LineWeight, ents[0].Base().HasLineWeight = 50, true
		ents[0].Base().TrueColor, ents[0].Base().HasTrueColor = 0xFF8000, true
	}
	for _, e := range ents {
		require.NoError(t, doc.Insert(e))
	}
	return doc
}

func TestRoundTrip(t *testing.T) {
	for _, v := range format.Versions() {
		t.Run(v.String(), func(t *testing.T) {
			doc := sampleDocument(t, v)
			first := write(t, doc)

			back := parse(t, first)
			assert.Equal(t, v, back.Version)
			assert.Equal(t, doc.EntityCount(), back.EntityCount())
			assert.NoError(t, back.Validate())

			second := write(t, back)
			assert.Equal(t, first, second, "export of a re-imported document is byte identical")
		})
	}
}

func TestRoundTripFields(t *testing.T) {
	doc := sampleDocument(t, format.R2018)
	back := parse(t, write(t, doc))

	var orig, got []model.Entity
	for e := range doc.Entities() {
		orig = append(orig, e)
	}
	for e := range back.Entities() {
		got = append(got, e)
	}
	require.Len(t, got, len(orig))

	for i := range orig {
		assert.Equal(t, model.TypeName(orig[i]), model.TypeName(got[i]))
		assert.Equal(t, orig[i].Base().Handle, got[i].Base().Handle)
	}

	line := got[0].(*model.Line)
	assert.Equal(t, model.Vec3{X: 10, Y: 5, Z: 1}, line.End)
	assert.Equal(t, model.Color(1), line.Color)
	assert.Equal(t, int16(50), line.LineWeight)
	assert.Equal(t, int32(0xFF8000), line.TrueColor)
	ltName, _ := back.NameOf(line.LineType)
	assert.Equal(t, "DASHED", ltName)

	text := got[3].(*model.Text)
	assert.Equal(t, "Hello", text.Value)
	assert.True(t, text.HasAlignment)
	assert.Equal(t, 1, text.HAlign)

	pl := got[4].(*model.Polyline)
	require.Len(t, pl.Vertices, 3)
	assert.Equal(t, orig[4].(*model.Polyline).SeqEnd, pl.SeqEnd)

	mtext := got[7].(*model.MText)
	assert.Equal(t, orig[7].(*model.MText).Value, mtext.Value)

	lw := got[8].(*model.LWPolyline)
	assert.Equal(t, orig[8].(*model.LWPolyline).Vertices, lw.Vertices)

	spline := got[9].(*model.Spline)
	assert.Equal(t, orig[9].(*model.Spline).Knots, spline.Knots)
	assert.Equal(t, orig[9].(*model.Spline).Control, spline.Control)

	door, ok := back.Blocks.Get("DOOR")
	require.True(t, ok)
	require.Len(t, door.Entities, 1)
	assert.Equal(t, door.Handle, door.Entities[0].Base().Owner)
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, v := range []format.Version{format.R12, format.R2000, format.R2018} {
		t.Run(v.String(), func(t *testing.T) {
			doc := sampleDocument(t, v)
			text := write(t, doc)

			var buf bytes.Buffer
			require.NoError(t, Write(NewTokenWriter(&buf, format.Binary, v), doc))
			require.True(t, bytes.HasPrefix(buf.Bytes(), format.BinarySentinel))

			tr, err := core.NewReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			back, err := Parse(tr, model.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, text, write(t, back))
		})
	}
}

func TestWriteLegacyDialect(t *testing.T) {
	doc := sampleDocument(t, format.R12)
	out := write(t, doc)

	assert.Contains(t, out, "AC1009")
	assert.NotContains(t, out, "AcDb")
	assert.NotContains(t, out, "BLOCK_RECORD")
	for _, tok := range tokensOf(t, out) {
		assert.NotEqual(t, 330, tok.Code)
	}
	assert.Equal(t, []string{"HEADER", "TABLES", "BLOCKS", "ENTITIES"}, sectionNames(tokensOf(t, out)))
}

func TestWriteRejectsUnsupportedKind(t *testing.T) {
	doc := model.NewDocument(format.R12)
	require.NoError(t, doc.Insert(&model.Ellipse{MajorAxis: model.V2(1, 0), Ratio: 0.5}))

	var buf bytes.Buffer
	err := Write(NewTokenWriter(&buf, format.ASCII, doc.Version), doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConversion))

	var ce *core.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ELLIPSE", ce.Entity)
	assert.Equal(t, "R12", ce.Target)
}

func TestWriteRejectsUnsupportedType(t *testing.T) {
	tests := []struct {
		typ     string
		wantErr bool
	}{
		{"LEADER", true},
		{"HATCH", true},
		{"3DFACE", false},
		{"solid", false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			doc := model.NewDocument(format.R12)
			require.NoError(t, doc.Insert(&model.Unknown{Type: tt.typ, Tokens: []core.Token{core.Real(10, 0), core.Real(20, 0)}}))

			var buf bytes.Buffer
			err := Write(NewTokenWriter(&buf, format.ASCII, doc.Version), doc)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var ce *core.ConversionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.typ, ce.Entity)
			assert.Equal(t, "R12", ce.Target)
		})
	}
}

func TestWriteDoesNotModifyDocument(t *testing.T) {
	doc := sampleDocument(t, format.R2000)
	delete(doc.TableHandles, "VPORT")
	seed := doc.Seed()

	out := write(t, doc)

	assert.Equal(t, seed, doc.Seed())
	_, ok := doc.TableHandles["VPORT"]
	assert.False(t, ok)

	// The VPORT table got a handle below the written seed.
	back := parse(t, out)
	assert.Greater(t, back.Seed(), seed)
}

func TestWriteEncodesCodePage(t *testing.T) {
	doc := model.NewDocument(format.R2000)
	require.NoError(t, doc.Insert(&model.Text{Height: 1, Value: "Привет é"}))

	t.Run("unrepresentable characters are escaped", func(t *testing.T) {
		out := write(t, doc)
		assert.Contains(t, out, `\U+041F`)
		assert.Contains(t, out, "\xe9")

		back := parse(t, out)
		for e := range back.Entities() {
			assert.Equal(t, "Привет é", e.(*model.Text).Value)
		}
	})

	t.Run("native code page", func(t *testing.T) {
		doc.Header.Set("$DWGCODEPAGE", core.Str(3, "ANSI_1251"))
		out := write(t, doc)
		assert.Contains(t, out, "\xcf\xf0\xe8")
		assert.NotContains(t, out, `\U+041F`)
	})
}

func TestWriteSeedsHeader(t *testing.T) {
	doc := model.NewDocument(format.R2000)
	toks := tokensOf(t, write(t, doc))

	require.True(t, containsRun(toks, core.Str(9, "$ACADVER"), core.Str(1, "AC1015")))
	for i, tok := range toks {
		if tok.Is(9, "$HANDSEED") {
			h, err := model.ParseHandle(toks[i+1].Str)
			require.NoError(t, err)
			assert.Equal(t, doc.Seed(), h)
			return
		}
	}
	t.Fatal("no $HANDSEED written")
}

func TestThumbnailRoundTrip(t *testing.T) {
	doc := model.NewDocument(format.R2018)
	doc.Thumbnail = bytes.Repeat([]byte{0x42, 0x4D, 0x00, 0xFF}, 100)

	out := write(t, doc)
	assert.Contains(t, sectionNames(tokensOf(t, out)), "THUMBNAILIMAGE")

	back := parse(t, out)
	assert.Equal(t, doc.Thumbnail, back.Thumbnail)

	legacy := model.NewDocument(format.R12)
	legacy.Thumbnail = doc.Thumbnail
	assert.NotContains(t, sectionNames(tokensOf(t, write(t, legacy))), "THUMBNAILIMAGE")
}

func TestSplitObjects(t *testing.T) {
	lead, groups := splitObjects([]core.Token{
		core.Int(70, 1),
		core.Str(0, "LINE"), core.Str(8, "0"),
		core.Str(0, "POINT"),
	})
	assert.Equal(t, []core.Token{core.Int(70, 1)}, lead)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
}

func TestSplitRunes(t *testing.T) {
	assert.Equal(t, []string{""}, splitRunes("", 3))
	assert.Equal(t, []string{"abc", "de"}, splitRunes("abcde", 3))
	assert.Equal(t, []string{"äöü", "ß"}, splitRunes("äöüß", 3))
}
