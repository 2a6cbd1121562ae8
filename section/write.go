package section

import (
	"io"
	"slices"
	"strings"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/internal/codepage"
	"github.com/tsawler/dxf/model"
)

// thumbnailChunk is the number of bytes per 310 group in THUMBNAILIMAGE.
const thumbnailChunk = 127

// mtextChunk is the number of characters per 3 group in MTEXT.
const mtextChunk = 250

// NewTokenWriter returns the token writer for an encoding and dialect.
// Binary R12 files use one byte group codes.
func NewTokenWriter(w io.Writer, enc format.Encoding, v format.Version) core.TokenWriter {
	if enc == format.Binary {
		return core.NewBinaryWriter(w, dialect.ProfileFor(v).WideBinaryCodes())
	}
	return core.NewTextWriter(w)
}

type writer struct {
	tw      core.TokenWriter
	doc     *model.Document
	profile dialect.Profile
	codec   *codepage.Codec
	tables  map[string]model.Handle
	seed    model.Handle
	err     error
}

// Write serializes doc in the dialect of doc.Version. The document is not
// modified: table handles that are missing are allocated for the output
// only, and $ACADVER and $HANDSEED are computed.
//
// Write does not convert entities. An entity the dialect cannot express is
// a ConversionError; use the dialect package to downgrade first.
func Write(tw core.TokenWriter, doc *model.Document) error {
	w := &writer{
		tw:      tw,
		doc:     doc,
		profile: dialect.ProfileFor(doc.Version),
		tables:  make(map[string]model.Handle),
		seed:    doc.Seed(),
	}
	w.codec = writeCodec(w.profile, doc)
	if w.profile.Legacy() {
		// Block record handles are not written; the seed only has to clear
		// the handles in the file, so a re-import allocates the same ones.
		w.seed = writtenSeed(doc)
	}

	if w.profile.OwnerHandles() {
		for _, name := range w.profile.Tables() {
			if _, raw := doc.Table(name); raw {
				continue
			}
			h := doc.TableHandles[name]
			if h == 0 {
				h = w.seed
				w.seed++
			}
			w.tables[name] = h
		}
	}

	for _, name := range w.sectionOrder() {
		if err := w.section(name); err != nil {
			return err
		}
	}
	w.str(0, "EOF")
	if w.err != nil {
		return w.err
	}
	return tw.Flush()
}

// writtenSeed returns one past the highest handle a legacy file carries.
func writtenSeed(doc *model.Document) model.Handle {
	var top model.Handle
	for _, lt := range doc.LineTypes.All() {
		top = max(top, lt.Handle)
	}
	for _, l := range doc.Layers.All() {
		top = max(top, l.Handle)
	}
	for _, s := range doc.Styles.All() {
		top = max(top, s.Handle)
	}
	for _, b := range doc.Blocks.All() {
		top = max(top, b.BeginHandle, b.EndHandle)
	}
	for _, e := range doc.AllEntities() {
		top = max(top, e.ObjectHandle())
		if pl, ok := e.(*model.Polyline); ok {
			for _, v := range pl.Vertices {
				top = max(top, v.Handle)
			}
			top = max(top, pl.SeqEnd)
		}
	}
	for _, t := range doc.Tables {
		for _, tok := range t.Tokens {
			if tok.Code == 5 || tok.Code == 105 {
				if h, err := model.ParseHandle(tok.Str); err == nil {
					top = max(top, h)
				}
			}
		}
	}
	return top + 1
}

func writeCodec(p dialect.Profile, doc *model.Document) *codepage.Codec {
	if p.UTF8() {
		return codepage.UTF8()
	}
	if c, err := codepage.Lookup(doc.CodePage()); err == nil {
		return c
	}
	c, _ := codepage.Lookup(codepage.Default)
	return c
}

// sectionOrder returns the sections to write. Sections keep the order
// they were read in; sections that are new are placed at their canonical
// position.
func (w *writer) sectionOrder() []string {
	known := w.profile.Sections()
	wanted := func(name string) bool {
		switch name {
		case "HEADER", "TABLES", "BLOCKS", "ENTITIES":
			return true
		case "THUMBNAILIMAGE":
			return len(w.doc.Thumbnail) > 0 && slices.Contains(known, name)
		}
		if _, ok := w.doc.Section(name); !ok {
			return false
		}
		return w.profile.KeepsSection(name)
	}
	rank := func(name string) int {
		return slices.Index(model.SectionOrder, name)
	}

	var order []string
	add := func(name string) {
		name = strings.ToUpper(name)
		if wanted(name) && !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	for _, name := range w.doc.Order {
		add(name)
	}
	for _, s := range w.doc.Sections {
		add(s.Name)
	}

	for _, name := range model.SectionOrder {
		if !wanted(name) || slices.Contains(order, name) {
			continue
		}
		at := len(order)
		for i, other := range order {
			if r := rank(other); r >= 0 && r > rank(name) {
				at = i
				break
			}
		}
		order = slices.Insert(order, at, name)
	}
	return order
}

func (w *writer) section(name string) error {
	w.str(0, "SECTION")
	w.str(2, name)
	switch name {
	case "HEADER":
		w.header()
	case "TABLES":
		w.writeTables()
	case "BLOCKS":
		w.blocks()
	case "ENTITIES":
		for e := range w.doc.Entities() {
			w.entity(e, nil)
		}
	case "THUMBNAILIMAGE":
		w.thumbnail()
	default:
		if s, ok := w.doc.Section(name); ok {
			w.tokens(s.Tokens)
		}
	}
	w.str(0, "ENDSEC")
	return w.err
}

// ============================================================================
// Token helpers
// ============================================================================

func (w *writer) emit(tok core.Token) {
	if w.err != nil {
		return
	}
	if tok.Kind == core.KindString {
		tok.Str = w.codec.Encode(tok.Str)
	}
	w.err = w.tw.WriteToken(tok)
}

func (w *writer) str(code int, s string)          { w.emit(core.Str(code, s)) }
func (w *writer) integer(code int, v int)         { w.emit(core.Int(code, int64(v))) }
func (w *writer) real(code int, v float64)        { w.emit(core.Real(code, v)) }
func (w *writer) handle(code int, h model.Handle) { w.emit(core.Handle(code, h.String())) }

func (w *writer) point(base int, v model.Vec3) {
	w.real(base, v.X)
	w.real(base+10, v.Y)
	w.real(base+20, v.Z)
}

func (w *writer) subclass(names ...string) {
	if !w.profile.SubclassMarkers() {
		return
	}
	for _, n := range names {
		w.str(100, n)
	}
}

func (w *writer) owner(h model.Handle) {
	if w.profile.OwnerHandles() {
		w.handle(330, h)
	}
}

// tokens writes stored tokens, skipping codes the dialect does not have.
func (w *writer) tokens(toks []core.Token) {
	for _, t := range toks {
		if w.profile.AllowsCode(t.Code) {
			w.emit(t)
		}
	}
}

func (w *writer) name(h model.Handle, fallback string) string {
	if n, ok := w.doc.NameOf(h); ok {
		return n
	}
	return fallback
}

// ============================================================================
// HEADER
// ============================================================================

func (w *writer) header() {
	w.str(9, "$ACADVER")
	w.str(1, w.doc.Version.ACADVer())
	if _, ok := w.doc.Header.Get("$HANDSEED"); !ok {
		w.handseed()
	}
	if _, ok := w.doc.Header.Get("$DWGCODEPAGE"); !ok && !w.profile.UTF8() {
		w.str(9, "$DWGCODEPAGE")
		w.str(3, w.codec.Name())
	}

	for _, v := range w.doc.Header.Vars() {
		switch v.Name {
		case "$ACADVER":
			continue
		case "$HANDSEED":
			w.handseed()
			continue
		}
		allowed := slices.IndexFunc(v.Values, func(t core.Token) bool {
			return w.profile.AllowsCode(t.Code)
		}) >= 0
		if !allowed && len(v.Values) > 0 {
			continue
		}
		w.str(9, v.Name)
		w.tokens(v.Values)
	}
}

func (w *writer) handseed() {
	w.str(9, "$HANDSEED")
	w.handle(5, w.seed)
}

// ============================================================================
// TABLES
// ============================================================================

func (w *writer) writeTables() {
	for _, name := range w.profile.Tables() {
		if raw, ok := w.doc.Table(name); ok {
			w.rawTable(raw)
			continue
		}
		switch name {
		case "LTYPE":
			lts := w.doc.LineTypes.All()
			w.tableStart(name, len(lts))
			for _, lt := range lts {
				w.lineType(lt)
			}
		case "LAYER":
			layers := w.doc.Layers.All()
			w.tableStart(name, len(layers))
			for _, l := range layers {
				w.layer(l)
			}
		case "STYLE":
			styles := w.doc.Styles.All()
			w.tableStart(name, len(styles))
			for _, s := range styles {
				w.style(s)
			}
		case "BLOCK_RECORD":
			blocks := w.doc.Blocks.All()
			w.tableStart(name, len(blocks))
			for _, b := range blocks {
				w.blockRecord(b)
			}
		default:
			w.tableStart(name, 0)
		}
		w.str(0, "ENDTAB")
	}
	if w.profile.Legacy() {
		return
	}
	for _, raw := range w.doc.Tables {
		if !slices.Contains(w.profile.Tables(), strings.ToUpper(raw.Name)) {
			w.rawTable(raw)
		}
	}
}

func (w *writer) rawTable(raw *model.RawTable) {
	w.str(0, "TABLE")
	w.str(2, raw.Name)
	w.tokens(raw.Tokens)
	w.str(0, "ENDTAB")
}

func (w *writer) tableStart(name string, count int) {
	w.str(0, "TABLE")
	w.str(2, name)
	if w.profile.OwnerHandles() {
		w.handle(5, w.tables[name])
		w.handle(330, 0)
	}
	w.subclass("AcDbSymbolTable")
	w.integer(70, count)
}

func (w *writer) recordStart(typ string, h model.Handle, table, subclass string) {
	w.str(0, typ)
	w.handle(5, h)
	w.owner(w.tables[table])
	w.subclass("AcDbSymbolTableRecord", subclass)
}

func (w *writer) lineType(lt *model.LineType) {
	w.recordStart("LTYPE", lt.Handle, "LTYPE", "AcDbLinetypeTableRecord")
	w.str(2, lt.Name)
	w.integer(70, lt.Flags)
	w.str(3, lt.Description)
	w.integer(72, 65)
	w.integer(73, len(lt.Pattern))
	w.real(40, lt.PatternLength())
	for _, d := range lt.Pattern {
		w.real(49, d)
		if !w.profile.Legacy() {
			w.integer(74, 0)
		}
	}
	w.tokens(lt.Extra)
}

func (w *writer) layer(l *model.Layer) {
	w.recordStart("LAYER", l.Handle, "LAYER", "AcDbLayerTableRecord")
	w.str(2, l.Name)
	w.integer(70, l.Flags)
	color := int(l.Color)
	if color <= 0 {
		color = 7
	}
	if l.Off {
		color = -color
	}
	w.integer(62, color)
	w.str(6, w.name(l.LineType, model.Continuous))
	w.tokens(l.Extra)
}

func (w *writer) style(s *model.TextStyle) {
	w.recordStart("STYLE", s.Handle, "STYLE", "AcDbTextStyleTableRecord")
	w.str(2, s.Name)
	w.integer(70, s.Flags)
	w.real(40, s.Height)
	w.real(41, s.WidthFactor)
	w.real(50, s.Oblique)
	extra := s.Extra
	if t, ok := findCode(extra, 71); ok {
		w.emit(t)
	} else {
		w.integer(71, 0)
	}
	if t, ok := findCode(extra, 42); ok {
		w.emit(t)
	} else {
		h := s.Height
		if h == 0 {
			h = 2.5
		}
		w.real(42, h)
	}
	w.str(3, s.Font)
	w.str(4, s.BigFont)
	for _, t := range extra {
		if t.Code != 71 && t.Code != 42 && w.profile.AllowsCode(t.Code) {
			w.emit(t)
		}
	}
}

func (w *writer) blockRecord(b *model.Block) {
	w.recordStart("BLOCK_RECORD", b.Handle, "BLOCK_RECORD", "AcDbBlockTableRecord")
	w.str(2, b.Name)
	w.tokens(b.RecordExtra)
}

func hasCode(toks []core.Token, code int) bool {
	_, ok := findCode(toks, code)
	return ok
}

func findCode(toks []core.Token, code int) (core.Token, bool) {
	i := slices.IndexFunc(toks, func(t core.Token) bool { return t.Code == code })
	if i < 0 {
		return core.Token{}, false
	}
	return toks[i], true
}

// ============================================================================
// BLOCKS
// ============================================================================

func (w *writer) blocks() {
	for _, b := range w.doc.Blocks.All() {
		layer := w.name(b.Layer, model.DefaultLayer)

		w.str(0, "BLOCK")
		w.handle(5, b.BeginHandle)
		w.owner(b.Handle)
		w.subclass("AcDbEntity")
		w.str(8, layer)
		w.subclass("AcDbBlockBegin")
		w.str(2, b.Name)
		w.integer(70, b.Flags)
		w.point(10, b.Base)
		if !w.profile.Legacy() {
			w.str(3, b.Name)
		}
		w.tokens(b.Extra)

		for _, e := range b.Entities {
			w.entity(e, b)
		}

		w.str(0, "ENDBLK")
		w.handle(5, b.EndHandle)
		w.owner(b.Handle)
		w.subclass("AcDbEntity")
		w.str(8, layer)
		w.subclass("AcDbBlockEnd")
	}
}

// ============================================================================
// THUMBNAILIMAGE
// ============================================================================

func (w *writer) thumbnail() {
	data := w.doc.Thumbnail
	w.integer(90, len(data))
	for len(data) > 0 {
		n := min(len(data), thumbnailChunk)
		w.emit(core.Binary(310, data[:n]))
		data = data[n:]
	}
}
