package section

import (
	"fmt"
	"strings"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/internal/codepage"
	"github.com/tsawler/dxf/model"
)

// knownTables are the tables parsed into records, in dependency order.
var knownTables = []string{"LTYPE", "LAYER", "STYLE", "BLOCK_RECORD"}

type blockRecord struct {
	handle model.Handle
	name   string
	extra  []core.Token
	used   bool
}

type parser struct {
	doc     *model.Document
	codec   *codepage.Codec
	records map[string]*blockRecord
	order   []*blockRecord
}

// Parse reads a complete drawing from tr. On any error no document is
// returned.
func Parse(tr core.TokenReader, opts model.Options) (*model.Document, error) {
	sections, err := splitSections(tr)
	if err != nil {
		return nil, err
	}
	p := &parser{records: make(map[string]*blockRecord)}
	return p.parse(sections, opts)
}

func (p *parser) parse(sections []rawSection, opts model.Options) (*model.Document, error) {
	byName := make(map[string]*rawSection, len(sections))
	for i := range sections {
		s := &sections[i]
		key := strings.ToUpper(s.name)
		if _, dup := byName[key]; dup {
			return nil, &core.StructuralError{Section: s.name, Line: s.line, Offset: s.offset, Msg: "duplicate section"}
		}
		byName[key] = s
	}

	header, ok := byName["HEADER"]
	if !ok {
		return nil, &core.StructuralError{Msg: "missing HEADER section"}
	}
	if _, ok := byName["ENTITIES"]; !ok {
		return nil, &core.StructuralError{Msg: "missing ENTITIES section"}
	}

	vars, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	version, err := headerVersion(vars)
	if err != nil {
		return nil, err
	}
	p.codec = codecFor(version, vars)
	for i := range sections {
		if err := p.decodeStrings(sections[i].tokens); err != nil {
			return nil, err
		}
	}
	// Header values were split before decoding; split again.
	if vars, err = parseHeader(header); err != nil {
		return nil, err
	}

	p.doc = model.NewEmptyDocument(version, opts)
	for _, v := range vars {
		p.doc.Header.Set(v.Name, v.Values...)
	}
	for _, s := range sections {
		p.doc.Order = append(p.doc.Order, s.name)
	}

	if err := p.seedHandles(sections); err != nil {
		return nil, err
	}

	if s, ok := byName["TABLES"]; ok {
		if err := p.parseTables(s); err != nil {
			return nil, err
		}
	}
	if _, err := p.doc.LayerHandle(model.DefaultLayer); err != nil {
		return nil, err
	}
	if s, ok := byName["BLOCKS"]; ok {
		if err := p.parseBlocks(s); err != nil {
			return nil, err
		}
	}
	if err := p.addUnusedBlockRecords(); err != nil {
		return nil, err
	}

	lead, groups := splitObjects(byName["ENTITIES"].tokens)
	if len(lead) > 0 {
		return nil, &core.StructuralError{Section: "ENTITIES", Line: lead[0].Line, Offset: lead[0].Offset, Msg: "data before the first entity"}
	}
	ents, err := p.parseEntities("ENTITIES", groups)
	if err != nil {
		return nil, err
	}
	for _, e := range ents {
		if err := p.doc.Insert(e); err != nil {
			return nil, fmt.Errorf("failed to load %s entity: %w", model.TypeName(e), err)
		}
	}

	for _, s := range sections {
		switch strings.ToUpper(s.name) {
		case "HEADER", "TABLES", "BLOCKS", "ENTITIES":
		case "THUMBNAILIMAGE":
			p.doc.Thumbnail = parseThumbnail(s.tokens)
		default:
			p.doc.Sections = append(p.doc.Sections, &model.RawSection{Name: s.name, Tokens: bare(s.tokens)})
		}
	}
	return p.doc, nil
}

// parseHeader groups HEADER tokens into variables.
func parseHeader(s *rawSection) ([]model.HeaderVar, error) {
	var vars []model.HeaderVar
	for _, tok := range s.tokens {
		if tok.Code == 9 {
			vars = append(vars, model.HeaderVar{Name: tok.Str})
			continue
		}
		if len(vars) == 0 {
			return nil, &core.StructuralError{Section: "HEADER", Line: tok.Line, Offset: tok.Offset, Msg: fmt.Sprintf("value %s before the first variable name", tok)}
		}
		last := &vars[len(vars)-1]
		last.Values = append(last.Values, tok.Bare())
	}
	return vars, nil
}

// headerVersion reads $ACADVER. A missing value means R12.
func headerVersion(vars []model.HeaderVar) (format.Version, error) {
	for _, v := range vars {
		if v.Name != "$ACADVER" || len(v.Values) == 0 {
			continue
		}
		version, err := format.ParseACADVer(v.Values[0].Str)
		if err != nil {
			return format.Unknown, &core.FormatError{Msg: "unsupported dialect", Err: err}
		}
		return version, nil
	}
	return format.R12, nil
}

func codecFor(v format.Version, vars []model.HeaderVar) *codepage.Codec {
	if v.UTF8() {
		return codepage.UTF8()
	}
	for _, hv := range vars {
		if hv.Name == "$DWGCODEPAGE" && len(hv.Values) > 0 {
			if c, err := codepage.Lookup(hv.Values[0].Str); err == nil {
				return c
			}
		}
	}
	c, _ := codepage.Lookup(codepage.Default)
	return c
}

func (p *parser) decodeStrings(tokens []core.Token) error {
	for i := range tokens {
		if tokens[i].Kind != core.KindString {
			continue
		}
		s, err := p.codec.Decode(tokens[i].Str)
		if err != nil {
			return &core.FormatError{Line: tokens[i].Line, Offset: tokens[i].Offset, Msg: "cannot decode string", Err: err}
		}
		tokens[i].Str = s
	}
	return nil
}

// seedHandles moves the handle seed past $HANDSEED and past every handle
// defined in the file, so handles allocated while loading never collide
// with handles read later.
func (p *parser) seedHandles(sections []rawSection) error {
	if seed, ok := p.doc.Header.String("$HANDSEED"); ok {
		if h, err := model.ParseHandle(seed); err == nil {
			p.doc.AdvanceSeed(h)
		}
	}
	var highest model.Handle
	for _, s := range sections {
		if strings.EqualFold(s.name, "HEADER") {
			continue
		}
		for _, tok := range s.tokens {
			if tok.Code != 5 && tok.Code != 105 {
				continue
			}
			h, err := parseHandle(tok)
			if err != nil {
				return err
			}
			highest = max(highest, h)
		}
	}
	p.doc.AdvanceSeed(highest + 1)
	return nil
}

func parseHandle(tok core.Token) (model.Handle, error) {
	h, err := model.ParseHandle(tok.Str)
	if err != nil {
		return 0, &core.FormatError{Line: tok.Line, Offset: tok.Offset, Msg: fmt.Sprintf("invalid handle in group code %d", tok.Code), Err: err}
	}
	return h, nil
}

// ============================================================================
// TABLES
// ============================================================================

type table struct {
	name    string
	handle  model.Handle
	header  []core.Token
	entries [][]core.Token
}

func (p *parser) parseTables(s *rawSection) error {
	lead, groups := splitObjects(s.tokens)
	if len(lead) > 0 {
		return &core.StructuralError{Section: "TABLES", Line: lead[0].Line, Offset: lead[0].Offset, Msg: "data outside TABLE"}
	}

	var tables []*table
	var cur *table
	for _, g := range groups {
		head := g[0]
		switch {
		case head.Is(0, "TABLE"):
			if cur != nil {
				return &core.StructuralError{Section: "TABLES", Line: head.Line, Offset: head.Offset, Msg: fmt.Sprintf("TABLE %s without ENDTAB", cur.name)}
			}
			cur = &table{}
			for i, tok := range g[1:] {
				if tok.Code == 2 && cur.name == "" {
					cur.name = tok.Str
					cur.header = g[2+i:]
					break
				}
			}
			if cur.name == "" {
				return &core.StructuralError{Section: "TABLES", Line: head.Line, Offset: head.Offset, Msg: "TABLE without name"}
			}
			for _, tok := range cur.header {
				if tok.Code == 5 {
					h, err := parseHandle(tok)
					if err != nil {
						return err
					}
					cur.handle = h
				}
			}
		case head.Is(0, "ENDTAB"):
			if cur == nil {
				return &core.StructuralError{Section: "TABLES", Line: head.Line, Offset: head.Offset, Msg: "ENDTAB without TABLE"}
			}
			tables = append(tables, cur)
			cur = nil
		default:
			if cur == nil {
				return &core.StructuralError{Section: "TABLES", Line: head.Line, Offset: head.Offset, Msg: fmt.Sprintf("table entry %s outside TABLE", head.Str)}
			}
			cur.entries = append(cur.entries, g)
		}
	}
	if cur != nil {
		return &core.StructuralError{Section: "TABLES", Msg: fmt.Sprintf("TABLE %s without ENDTAB", cur.name)}
	}

	known := make(map[string]*table)
	for _, t := range tables {
		name := strings.ToUpper(t.name)
		if isKnownTable(name) {
			known[name] = t
			if t.handle != 0 {
				p.doc.TableHandles[name] = t.handle
			}
			continue
		}
		raw := &model.RawTable{Name: t.name, Tokens: bare(t.header)}
		for _, e := range t.entries {
			raw.Tokens = append(raw.Tokens, bare(e)...)
		}
		p.doc.Tables = append(p.doc.Tables, raw)
	}

	for _, name := range knownTables {
		t, ok := known[name]
		if !ok {
			continue
		}
		for _, entry := range t.entries {
			var err error
			switch name {
			case "LTYPE":
				err = p.parseLineType(entry)
			case "LAYER":
				err = p.parseLayer(entry)
			case "STYLE":
				err = p.parseStyle(entry)
			case "BLOCK_RECORD":
				err = p.parseBlockRecord(entry)
			}
			if err != nil {
				return fmt.Errorf("failed to load %s table: %w", name, err)
			}
		}
	}
	return nil
}

func isKnownTable(name string) bool {
	for _, k := range knownTables {
		if k == name {
			return true
		}
	}
	return false
}

// recordFields walks the tokens of a table entry, handing the fields that
// are not common bookkeeping to field. Tokens field does not consume land
// in the returned extra list.
func recordFields(entry []core.Token, handle *model.Handle, field func(core.Token) bool) ([]core.Token, error) {
	var extra []core.Token
	owner := false
	for i := 1; i < len(entry); i++ {
		tok := entry[i]
		switch {
		case tok.Code == 5:
			h, err := parseHandle(tok)
			if err != nil {
				return nil, err
			}
			*handle = h
			continue
		case tok.Code == 100:
			continue
		case tok.Code == 330 && !owner:
			// The owner is the table or block record and is rebuilt on write.
			owner = true
			continue
		case tok.Code == 102 && strings.HasPrefix(tok.Str, "{"):
			extra = append(extra, tok.Bare())
			for i+1 < len(entry) {
				i++
				extra = append(extra, entry[i].Bare())
				if entry[i].Is(102, "}") {
					break
				}
			}
			continue
		}
		if tok.Code < 1000 && field(tok) {
			continue
		}
		extra = append(extra, tok.Bare())
	}
	return extra, nil
}

func (p *parser) parseLineType(entry []core.Token) error {
	lt := &model.LineType{}
	extra, err := recordFields(entry, &lt.Handle, func(tok core.Token) bool {
		switch tok.Code {
		case 2:
			lt.Name = tok.Str
		case 70:
			lt.Flags = int(tok.AsInt())
		case 3:
			lt.Description = tok.Str
		case 72, 73, 40:
			// Alignment, dash count and total length are derived.
		case 49:
			lt.Pattern = append(lt.Pattern, tok.AsFloat())
		case 74:
			return tok.AsInt() == 0
		default:
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	lt.Extra = extra
	return p.doc.AddLineType(lt)
}

func (p *parser) parseLayer(entry []core.Token) error {
	l := &model.Layer{}
	var ltName string
	extra, err := recordFields(entry, &l.Handle, func(tok core.Token) bool {
		switch tok.Code {
		case 2:
			l.Name = tok.Str
		case 70:
			l.Flags = int(tok.AsInt())
		case 62:
			c := tok.AsInt()
			if c < 0 {
				l.Off = true
				c = -c
			}
			l.Color = model.Color(c)
		case 6:
			ltName = tok.Str
		default:
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	l.Extra = extra
	if ltName != "" {
		h, err := p.doc.LineTypeHandle(ltName)
		if err != nil {
			return err
		}
		l.LineType = h
	}
	return p.doc.AddLayer(l)
}

func (p *parser) parseStyle(entry []core.Token) error {
	s := &model.TextStyle{}
	extra, err := recordFields(entry, &s.Handle, func(tok core.Token) bool {
		switch tok.Code {
		case 2:
			s.Name = tok.Str
		case 70:
			s.Flags = int(tok.AsInt())
		case 40:
			s.Height = tok.AsFloat()
		case 41:
			s.WidthFactor = tok.AsFloat()
		case 50:
			s.Oblique = tok.AsFloat()
		case 3:
			s.Font = tok.Str
		case 4:
			s.BigFont = tok.Str
		default:
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	s.Extra = extra
	return p.doc.AddStyle(s)
}

func (p *parser) parseBlockRecord(entry []core.Token) error {
	rec := &blockRecord{}
	extra, err := recordFields(entry, &rec.handle, func(tok core.Token) bool {
		if tok.Code == 2 {
			rec.name = tok.Str
			return true
		}
		return false
	})
	if err != nil {
		return err
	}
	rec.extra = extra
	key := strings.ToUpper(rec.name)
	if _, dup := p.records[key]; dup || rec.name == "" {
		return &core.ReferenceError{Handle: rec.handle.String(), Table: "BLOCK_RECORD", Name: rec.name, Msg: "duplicate or empty block record name"}
	}
	p.records[key] = rec
	p.order = append(p.order, rec)
	return nil
}

// ============================================================================
// BLOCKS
// ============================================================================

type blockDef struct {
	block    *model.Block
	entities [][]core.Token
}

func (p *parser) parseBlocks(s *rawSection) error {
	lead, groups := splitObjects(s.tokens)
	if len(lead) > 0 {
		return &core.StructuralError{Section: "BLOCKS", Line: lead[0].Line, Offset: lead[0].Offset, Msg: "data outside BLOCK"}
	}

	var defs []*blockDef
	var cur *blockDef
	for _, g := range groups {
		head := g[0]
		switch {
		case head.Is(0, "BLOCK"):
			if cur != nil {
				return &core.StructuralError{Section: "BLOCKS", Line: head.Line, Offset: head.Offset, Msg: fmt.Sprintf("BLOCK %s without ENDBLK", cur.block.Name)}
			}
			b, err := p.blockHeader(g)
			if err != nil {
				return err
			}
			cur = &blockDef{block: b}
		case head.Is(0, "ENDBLK"):
			if cur == nil {
				return &core.StructuralError{Section: "BLOCKS", Line: head.Line, Offset: head.Offset, Msg: "ENDBLK without BLOCK"}
			}
			for _, tok := range g[1:] {
				if tok.Code == 5 {
					h, err := parseHandle(tok)
					if err != nil {
						return err
					}
					cur.block.EndHandle = h
				}
			}
			defs = append(defs, cur)
			cur = nil
		default:
			if cur == nil {
				return &core.StructuralError{Section: "BLOCKS", Line: head.Line, Offset: head.Offset, Msg: fmt.Sprintf("entity %s outside BLOCK", head.Str)}
			}
			cur.entities = append(cur.entities, g)
		}
	}
	if cur != nil {
		return &core.StructuralError{Section: "BLOCKS", Msg: fmt.Sprintf("BLOCK %s without ENDBLK", cur.block.Name)}
	}

	// All blocks are registered before any entity is read, so inserts may
	// refer to blocks defined further down.
	for _, d := range defs {
		if err := p.doc.AddBlock(d.block); err != nil {
			return fmt.Errorf("failed to load block %q: %w", d.block.Name, err)
		}
	}
	for _, d := range defs {
		ents, err := p.parseEntities("BLOCKS", d.entities)
		if err != nil {
			return err
		}
		for _, e := range ents {
			if err := p.doc.InsertInto(d.block.Name, e); err != nil {
				return fmt.Errorf("failed to load %s entity in block %q: %w", model.TypeName(e), d.block.Name, err)
			}
		}
	}
	return nil
}

func (p *parser) blockHeader(g []core.Token) (*model.Block, error) {
	b := &model.Block{}
	var layerName string
	extra, err := recordFields(g, &b.BeginHandle, func(tok core.Token) bool {
		switch tok.Code {
		case 2:
			b.Name = tok.Str
		case 3:
			// Repeats the name.
		case 8:
			layerName = tok.Str
		case 70:
			b.Flags = int(tok.AsInt())
		default:
			return setCoord(&b.Base, tok, 10)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	b.Extra = extra
	if b.Name == "" {
		return nil, &core.StructuralError{Section: "BLOCKS", Line: g[0].Line, Offset: g[0].Offset, Msg: "BLOCK without name"}
	}
	if rec, ok := p.records[strings.ToUpper(b.Name)]; ok {
		b.Handle = rec.handle
		b.RecordExtra = rec.extra
		rec.used = true
	}
	h, err := p.doc.LayerHandle(layerName)
	if err != nil {
		return nil, err
	}
	b.Layer = h
	return b, nil
}

// addUnusedBlockRecords creates empty blocks for BLOCK_RECORD entries that
// have no definition in the BLOCKS section.
func (p *parser) addUnusedBlockRecords() error {
	for _, rec := range p.order {
		if rec.used {
			continue
		}
		b := &model.Block{Handle: rec.handle, Name: rec.name, RecordExtra: rec.extra}
		if err := p.doc.AddBlock(b); err != nil {
			return fmt.Errorf("failed to load block record %q: %w", rec.name, err)
		}
	}
	return nil
}

func parseThumbnail(tokens []core.Token) []byte {
	var data []byte
	for _, tok := range tokens {
		if tok.Kind == core.KindBinary {
			data = append(data, tok.Bytes...)
		}
	}
	return data
}

func setCoord(v *model.Vec3, tok core.Token, base int) bool {
	switch tok.Code {
	case base:
		v.X = tok.AsFloat()
	case base + 10:
		v.Y = tok.AsFloat()
	case base + 20:
		v.Z = tok.AsFloat()
	default:
		return false
	}
	return true
}
