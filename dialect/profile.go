package dialect

import (
	"strings"

	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
)

// Profile describes what a dialect can express. The section writer and the
// converters consult it instead of testing version numbers directly.
type Profile interface {
	// Version returns the dialect version.
	Version() format.Version

	// Legacy reports whether this is the pre-R13 dialect.
	Legacy() bool

	// Supports reports whether the entity kind exists in the dialect.
	Supports(kind model.EntityKind) bool

	// SupportsType reports whether an entity type name exists in the
	// dialect. It decides for entities kept verbatim as model.Unknown.
	SupportsType(name string) bool

	// AllowsCode reports whether a group code may appear in the dialect.
	AllowsCode(code int) bool

	// WideBinaryCodes reports whether binary files use 2-byte group codes.
	WideBinaryCodes() bool

	// UTF8 reports whether strings are stored as UTF-8.
	UTF8() bool

	// SubclassMarkers reports whether (100, AcDb...) markers are written.
	SubclassMarkers() bool

	// OwnerHandles reports whether soft-pointer owner handles (330) are
	// written.
	OwnerHandles() bool

	// BlockRecords reports whether the BLOCK_RECORD table exists.
	BlockRecords() bool

	// Sections returns the section names the dialect knows, in order.
	Sections() []string

	// KeepsSection reports whether a section read from another dialect
	// may be written. Sections the library does not know are kept.
	KeepsSection(name string) bool

	// Tables returns the symbol table names the dialect knows, in order.
	Tables() []string
}

// ProfileFor returns the profile of a version. Unknown versions get the
// profile of the latest dialect.
func ProfileFor(v format.Version) Profile {
	switch {
	case v.Legacy():
		return legacyProfile{}
	case v.Valid():
		return modernProfile{version: v}
	default:
		return modernProfile{version: format.Latest}
	}
}

type legacyProfile struct{}

var legacyKinds = map[model.EntityKind]bool{
	model.KindLine:     true,
	model.KindPoint:    true,
	model.KindCircle:   true,
	model.KindArc:      true,
	model.KindText:     true,
	model.KindPolyline: true,
	model.KindInsert:   true,
	// Verbatim entities are checked by type name.
	model.KindUnknown: true,
}

// legacyTypes are the entity types of the R12 dialect, including those
// the library keeps verbatim.
var legacyTypes = map[string]bool{
	"LINE": true, "POINT": true, "CIRCLE": true, "ARC": true,
	"TRACE": true, "SOLID": true, "TEXT": true, "SHAPE": true,
	"INSERT": true, "ATTDEF": true, "ATTRIB": true, "POLYLINE": true,
	"VERTEX": true, "SEQEND": true, "3DLINE": true, "3DFACE": true,
	"DIMENSION": true, "VIEWPORT": true,
}

// modernSections only exist from R13 on.
var modernSections = map[string]bool{
	"CLASSES":        true,
	"OBJECTS":        true,
	"THUMBNAILIMAGE": true,
	"ACDSDATA":       true,
}

func (legacyProfile) Version() format.Version { return format.R12 }
func (legacyProfile) Legacy() bool            { return true }
func (legacyProfile) WideBinaryCodes() bool   { return false }
func (legacyProfile) UTF8() bool              { return false }
func (legacyProfile) SubclassMarkers() bool   { return false }
func (legacyProfile) OwnerHandles() bool      { return false }
func (legacyProfile) BlockRecords() bool      { return false }

func (legacyProfile) Supports(kind model.EntityKind) bool {
	return legacyKinds[kind]
}

func (legacyProfile) SupportsType(name string) bool {
	return legacyTypes[strings.ToUpper(name)]
}

func (legacyProfile) KeepsSection(name string) bool {
	return !modernSections[strings.ToUpper(name)]
}

// AllowsCode rejects the group code ranges introduced with R13: subclass
// markers, application groups, object references, lineweights, true
// colors, booleans, 64-bit integers and layout names.
func (legacyProfile) AllowsCode(code int) bool {
	switch {
	case code == 100 || code == 102:
		return false
	case code >= 160 && code <= 169:
		return false
	case code >= 290 && code <= 299:
		return false
	case code >= 310 && code <= 319:
		return false
	case code >= 330 && code <= 369:
		return false
	case code >= 370 && code <= 389:
		return false
	case code >= 390 && code <= 399:
		return false
	case code >= 410 && code <= 481:
		return false
	}
	return true
}

func (legacyProfile) Sections() []string {
	return []string{"HEADER", "TABLES", "BLOCKS", "ENTITIES"}
}

func (legacyProfile) Tables() []string {
	return []string{"VPORT", "LTYPE", "LAYER", "STYLE", "VIEW", "UCS", "APPID", "DIMSTYLE"}
}

type modernProfile struct {
	version format.Version
}

func (p modernProfile) Version() format.Version      { return p.version }
func (modernProfile) Legacy() bool                   { return false }
func (modernProfile) Supports(model.EntityKind) bool { return true }
func (modernProfile) SupportsType(string) bool       { return true }
func (modernProfile) AllowsCode(int) bool            { return true }
func (modernProfile) WideBinaryCodes() bool          { return true }
func (p modernProfile) UTF8() bool                   { return p.version.UTF8() }
func (modernProfile) SubclassMarkers() bool          { return true }
func (modernProfile) OwnerHandles() bool             { return true }
func (modernProfile) BlockRecords() bool             { return true }
func (modernProfile) Sections() []string             { return model.SectionOrder }
func (modernProfile) Tables() []string               { return model.TableOrder }
func (modernProfile) KeepsSection(string) bool       { return true }
