package model

import (
	"strings"

	"github.com/tsawler/dxf/core"
)

// Standard record names.
const (
	DefaultLayer    = "0"
	Continuous      = "CONTINUOUS"
	ByLayer         = "BYLAYER"
	ByBlock         = "BYBLOCK"
	StandardStyle   = "Standard"
	ModelSpaceBlock = "*Model_Space"
	PaperSpaceBlock = "*Paper_Space"
)

// RecordKind names a symbol table.
type RecordKind int

const (
	LayerRecord RecordKind = iota
	LineTypeRecord
	StyleRecord
	BlockRecord
)

// TableName returns the DXF table name (LAYER, LTYPE, STYLE, BLOCK_RECORD).
func (k RecordKind) TableName() string {
	switch k {
	case LayerRecord:
		return "LAYER"
	case LineTypeRecord:
		return "LTYPE"
	case StyleRecord:
		return "STYLE"
	case BlockRecord:
		return "BLOCK_RECORD"
	default:
		return "UNKNOWN"
	}
}

// Record is a named table entry.
type Record interface {
	Object
	RecordName() string
}

// Layer is a LAYER table record.
type Layer struct {
	Handle   Handle
	Name     string
	Flags    int   // 1 frozen, 4 locked
	Color    Color // 1-255; a zero color is stored as 7
	Off      bool  // Written as a negative color
	LineType Handle
	Extra    []core.Token
}

func (l *Layer) ObjectHandle() Handle { return l.Handle }
func (l *Layer) RecordName() string   { return l.Name }

// Frozen reports whether the layer is frozen.
func (l *Layer) Frozen() bool { return l.Flags&1 != 0 }

func (l *Layer) clone() *Layer {
	c := *l
	c.Extra = cloneTokens(l.Extra)
	return &c
}

// LineType is an LTYPE table record. Pattern holds dash (positive), gap
// (negative) and dot (zero) lengths.
type LineType struct {
	Handle      Handle
	Name        string
	Flags       int
	Description string
	Pattern     []float64
	Extra       []core.Token
}

func (l *LineType) ObjectHandle() Handle { return l.Handle }
func (l *LineType) RecordName() string   { return l.Name }

// PatternLength returns the total pattern length (group code 40).
func (l *LineType) PatternLength() float64 {
	var total float64
	for _, d := range l.Pattern {
		if d < 0 {
			total -= d
		} else {
			total += d
		}
	}
	return total
}

func (l *LineType) clone() *LineType {
	c := *l
	c.Pattern = append([]float64(nil), l.Pattern...)
	c.Extra = cloneTokens(l.Extra)
	return &c
}

// TextStyle is a STYLE table record.
type TextStyle struct {
	Handle      Handle
	Name        string
	Flags       int
	Height      float64 // Fixed height, 0 if variable
	WidthFactor float64
	Oblique     float64 // Degrees
	Font        string
	BigFont     string
	Extra       []core.Token
}

func (s *TextStyle) ObjectHandle() Handle { return s.Handle }

// RecordName returns the style name. Shape file entries have no name and
// are keyed by their font file instead.
func (s *TextStyle) RecordName() string {
	if s.Name == "" && s.IsShapeFile() {
		return "*SHAPE:" + s.Font
	}
	return s.Name
}

// IsShapeFile reports whether the entry loads a shape file rather than
// defining a text style.
func (s *TextStyle) IsShapeFile() bool { return s.Flags&1 != 0 }

func (s *TextStyle) clone() *TextStyle {
	c := *s
	c.Extra = cloneTokens(s.Extra)
	return &c
}

// Block is a block definition: its BLOCK_RECORD entry, the BLOCK/ENDBLK
// pair in the BLOCKS section, and the entities between them.
type Block struct {
	Handle      Handle // BLOCK_RECORD handle
	BeginHandle Handle // BLOCK entity handle
	EndHandle   Handle // ENDBLK entity handle
	Name        string
	Flags       int
	Base        Vec3
	Layer       Handle
	Entities    []Entity
	Extra       []core.Token // BLOCK entity codes
	RecordExtra []core.Token // BLOCK_RECORD entry codes
}

func (b *Block) ObjectHandle() Handle { return b.Handle }
func (b *Block) RecordName() string   { return b.Name }

// IsLayout reports whether the block is a model or paper space layout block.
func (b *Block) IsLayout() bool {
	name := strings.ToUpper(b.Name)
	return strings.HasPrefix(name, "*MODEL_SPACE") || strings.HasPrefix(name, "*PAPER_SPACE") ||
		name == "$MODEL_SPACE" || name == "$PAPER_SPACE"
}

func (b *Block) clone() *Block {
	c := *b
	c.Extra = cloneTokens(b.Extra)
	c.RecordExtra = cloneTokens(b.RecordExtra)
	c.Entities = nil
	for _, e := range b.Entities {
		c.Entities = append(c.Entities, e.Clone())
	}
	return &c
}

// RecordTable holds the records of one symbol table in insertion order.
// Names are unique and compared case-insensitively.
type RecordTable[T Record] struct {
	kind    RecordKind
	records []T
	byName  map[string]int
}

func newRecordTable[T Record](kind RecordKind) *RecordTable[T] {
	return &RecordTable[T]{kind: kind, byName: make(map[string]int)}
}

func nameKey(name string) string {
	return strings.ToUpper(name)
}

// Kind returns the table kind.
func (t *RecordTable[T]) Kind() RecordKind { return t.kind }

// Get looks up a record by name.
func (t *RecordTable[T]) Get(name string) (T, bool) {
	i, ok := t.byName[nameKey(name)]
	if !ok {
		var zero T
		return zero, false
	}
	return t.records[i], true
}

// Has reports whether a record with the name exists.
func (t *RecordTable[T]) Has(name string) bool {
	_, ok := t.byName[nameKey(name)]
	return ok
}

// All returns the records in insertion order. The slice must not be
// modified.
func (t *RecordTable[T]) All() []T {
	return t.records
}

// Len returns the number of records.
func (t *RecordTable[T]) Len() int {
	return len(t.records)
}

func (t *RecordTable[T]) add(r T) {
	t.byName[nameKey(r.RecordName())] = len(t.records)
	t.records = append(t.records, r)
}

func (t *RecordTable[T]) remove(name string) {
	i, ok := t.byName[nameKey(name)]
	if !ok {
		return
	}
	t.records = append(t.records[:i], t.records[i+1:]...)
	t.reindex()
}

func (t *RecordTable[T]) reindex() {
	t.byName = make(map[string]int, len(t.records))
	for i, r := range t.records {
		t.byName[nameKey(r.RecordName())] = i
	}
}
