package model

import (
	"strings"

	"github.com/google/uuid"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/format"
)

// Table names in the order they appear in a TABLES section.
var TableOrder = []string{"VPORT", "LTYPE", "LAYER", "STYLE", "VIEW", "UCS", "APPID", "DIMSTYLE", "BLOCK_RECORD"}

// Section names in canonical order.
var SectionOrder = []string{"HEADER", "CLASSES", "TABLES", "BLOCKS", "ENTITIES", "OBJECTS", "THUMBNAILIMAGE"}

// HeaderVar is one HEADER variable: a $NAME and its value tokens. Points
// have one token per coordinate.
type HeaderVar struct {
	Name   string
	Values []core.Token
}

// Header holds the HEADER section variables in file order.
type Header struct {
	vars  []HeaderVar
	index map[string]int
}

// NewHeader creates an empty header.
func NewHeader() *Header {
	return &Header{index: make(map[string]int)}
}

// Get returns the value tokens of a variable.
func (h *Header) Get(name string) ([]core.Token, bool) {
	i, ok := h.index[name]
	if !ok {
		return nil, false
	}
	return h.vars[i].Values, true
}

// String returns the first value of a variable as a string.
func (h *Header) String(name string) (string, bool) {
	vals, ok := h.Get(name)
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0].Value(), true
}

// Point returns a variable made of 10/20/30 tokens.
func (h *Header) Point(name string) (Vec3, bool) {
	vals, ok := h.Get(name)
	if !ok {
		return Vec3{}, false
	}
	var p Vec3
	found := false
	for _, t := range vals {
		switch t.Code {
		case 10:
			p.X, found = t.AsFloat(), true
		case 20:
			p.Y = t.AsFloat()
		case 30:
			p.Z = t.AsFloat()
		}
	}
	return p, found
}

// Set replaces a variable's values, keeping its position, or appends it.
func (h *Header) Set(name string, values ...core.Token) {
	if i, ok := h.index[name]; ok {
		h.vars[i].Values = values
		return
	}
	h.index[name] = len(h.vars)
	h.vars = append(h.vars, HeaderVar{Name: name, Values: values})
}

// SetPoint stores a 3D point variable.
func (h *Header) SetPoint(name string, p Vec3) {
	h.Set(name, core.Real(10, p.X), core.Real(20, p.Y), core.Real(30, p.Z))
}

// Delete removes a variable.
func (h *Header) Delete(name string) {
	i, ok := h.index[name]
	if !ok {
		return
	}
	h.vars = append(h.vars[:i], h.vars[i+1:]...)
	h.index = make(map[string]int, len(h.vars))
	for j, v := range h.vars {
		h.index[v.Name] = j
	}
}

// Vars returns the variables in order. The slice must not be modified.
func (h *Header) Vars() []HeaderVar {
	return h.vars
}

// Len returns the number of variables.
func (h *Header) Len() int {
	return len(h.vars)
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	c := NewHeader()
	for _, v := range h.vars {
		c.Set(v.Name, cloneTokens(v.Values)...)
	}
	return c
}

// RawSection is a section kept verbatim: the tokens between its (2, name)
// token and (0, ENDSEC).
type RawSection struct {
	Name   string
	Tokens []core.Token
}

// RawTable is a symbol table kept verbatim: the tokens between its
// (2, name) token and (0, ENDTAB).
type RawTable struct {
	Name   string
	Tokens []core.Token
}

// Document is a complete drawing.
type Document struct {
	Version format.Version
	Header  *Header
	*EntityTable

	// TableHandles holds the handles of the TABLE objects of the tables
	// that are rebuilt on export, keyed by table name.
	TableHandles map[string]Handle

	// Tables are symbol tables that are not modelled (VPORT, VIEW, UCS,
	// APPID, DIMSTYLE and unknown ones).
	Tables []*RawTable

	// Sections are sections kept verbatim (CLASSES, OBJECTS and unknown
	// ones). Order lists every section name as read, for writing them back
	// in place.
	Sections []*RawSection
	Order    []string

	// Thumbnail is the BMP preview from the THUMBNAILIMAGE section.
	Thumbnail []byte
}

// NewEmptyDocument creates a document without any records. Parsers use it
// before filling the tables from a file.
func NewEmptyDocument(v format.Version, opts Options) *Document {
	return &Document{
		Version:      v,
		Header:       NewHeader(),
		EntityTable:  NewEntityTable(opts),
		TableHandles: make(map[string]Handle),
	}
}

// NewDocument creates a drawing with the records every DXF file needs:
// the BYBLOCK, BYLAYER and CONTINUOUS linetypes, layer "0" and the
// Standard text style. Modern versions also get the model and paper
// space blocks and fresh drawing GUIDs.
func NewDocument(v format.Version) *Document {
	return NewDocumentWithOptions(v, DefaultOptions())
}

// NewDocumentWithOptions is NewDocument with explicit integrity options.
func NewDocumentWithOptions(v format.Version, opts Options) *Document {
	d := NewEmptyDocument(v, opts)

	if !v.Legacy() {
		for _, name := range TableOrder {
			d.TableHandles[name] = d.NewHandle()
		}
	}

	// The defaults cannot collide in an empty table, so errors are ignored.
	_ = d.AddLineType(&LineType{Name: ByBlock})
	_ = d.AddLineType(&LineType{Name: ByLayer})
	_ = d.AddLineType(&LineType{Name: Continuous, Description: "Solid line"})
	_ = d.AddLayer(&Layer{Name: DefaultLayer, Color: 7})
	_ = d.AddStyle(&TextStyle{Name: StandardStyle, WidthFactor: 1, Font: "txt"})
	if !v.Legacy() {
		_ = d.AddBlock(&Block{Name: ModelSpaceBlock})
		_ = d.AddBlock(&Block{Name: PaperSpaceBlock})
	}

	d.Header.Set("$ACADVER", core.Str(1, v.ACADVer()))
	if v.Legacy() {
		d.Header.Set("$HANDLING", core.Int(70, 1))
	}
	if !v.UTF8() {
		d.Header.Set("$DWGCODEPAGE", core.Str(3, "ANSI_1252"))
	}
	d.Header.SetPoint("$INSBASE", Vec3{})
	d.Header.SetPoint("$EXTMIN", Vec3{})
	d.Header.SetPoint("$EXTMAX", Vec3{})
	if !v.Legacy() {
		d.Header.Set("$FINGERPRINTGUID", core.Str(2, newGUID()))
		d.Header.Set("$VERSIONGUID", core.Str(2, newGUID()))
	}
	return d
}

func newGUID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}

// Section returns a raw section by name.
func (d *Document) Section(name string) (*RawSection, bool) {
	for _, s := range d.Sections {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return nil, false
}

// Table returns a raw table by name.
func (d *Document) Table(name string) (*RawTable, bool) {
	for _, t := range d.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return nil, false
}

// CodePage returns the $DWGCODEPAGE value, "ANSI_1252" when unset.
func (d *Document) CodePage() string {
	if cp, ok := d.Header.String("$DWGCODEPAGE"); ok && cp != "" {
		return cp
	}
	return "ANSI_1252"
}

// Clone returns a deep copy. The copy shares nothing with d.
func (d *Document) Clone() *Document {
	c := &Document{
		Version:      d.Version,
		Header:       d.Header.Clone(),
		EntityTable:  d.EntityTable.Clone(),
		TableHandles: make(map[string]Handle, len(d.TableHandles)),
		Order:        append([]string(nil), d.Order...),
	}
	for k, v := range d.TableHandles {
		c.TableHandles[k] = v
	}
	for _, t := range d.Tables {
		c.Tables = append(c.Tables, &RawTable{Name: t.Name, Tokens: cloneTokens(t.Tokens)})
	}
	for _, s := range d.Sections {
		c.Sections = append(c.Sections, &RawSection{Name: s.Name, Tokens: cloneTokens(s.Tokens)})
	}
	if d.Thumbnail != nil {
		c.Thumbnail = append([]byte(nil), d.Thumbnail...)
	}
	return c
}
