// Package format defines the DXF dialect versions and stream encodings
// understood by the dxf library, and sniffs the encoding of a stream.
package format

import (
	"fmt"
	"strings"
)

// Version identifies a DXF dialect. The zero value is Unknown.
type Version int

const (
	// Unknown indicates an unrecognized or missing $ACADVER.
	Unknown Version = iota
	// R12 is the legacy dialect (AC1009).
	R12
	// R2000 is AutoCAD 2000 (AC1015).
	R2000
	// R2004 is AutoCAD 2004 (AC1018).
	R2004
	// R2007 is AutoCAD 2007 (AC1021), the first UTF-8 dialect.
	R2007
	// R2010 is AutoCAD 2010 (AC1024).
	R2010
	// R2013 is AutoCAD 2013 (AC1027).
	R2013
	// R2018 is AutoCAD 2018 (AC1032).
	R2018
)

// Latest is the newest dialect the writer can produce.
const Latest = R2018

var acadVersions = map[Version]string{
	R12:   "AC1009",
	R2000: "AC1015",
	R2004: "AC1018",
	R2007: "AC1021",
	R2010: "AC1024",
	R2013: "AC1027",
	R2018: "AC1032",
}

// String returns the short release name (e.g., "R12", "R2000").
func (v Version) String() string {
	switch v {
	case R12:
		return "R12"
	case R2000:
		return "R2000"
	case R2004:
		return "R2004"
	case R2007:
		return "R2007"
	case R2010:
		return "R2010"
	case R2013:
		return "R2013"
	case R2018:
		return "R2018"
	default:
		return "Unknown"
	}
}

// ACADVer returns the $ACADVER header value for the version, or "" for Unknown.
func (v Version) ACADVer() string {
	return acadVersions[v]
}

// Label returns a human readable description suitable for an export menu
// (e.g., "DXF R12", "DXF 2000"). The core never parses labels back.
func (v Version) Label() string {
	switch v {
	case Unknown:
		return "DXF"
	case R12:
		return "DXF R12"
	default:
		return "DXF " + strings.TrimPrefix(v.String(), "R")
	}
}

// Legacy reports whether v is the pre-R13 dialect.
func (v Version) Legacy() bool {
	return v == R12
}

// Valid reports whether v is a known dialect.
func (v Version) Valid() bool {
	_, ok := acadVersions[v]
	return ok
}

// UTF8 reports whether strings in this dialect are UTF-8 rather than
// encoded in the $DWGCODEPAGE code page.
func (v Version) UTF8() bool {
	return v >= R2007
}

// ParseACADVer maps an $ACADVER value to a Version. Releases older than
// R12 map to R12; unknown newer releases map to Latest.
func ParseACADVer(s string) (Version, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for v, code := range acadVersions {
		if code == s {
			return v, nil
		}
	}
	if !strings.HasPrefix(s, "AC") || len(s) != 6 {
		return Unknown, fmt.Errorf("invalid $ACADVER %q", s)
	}
	switch {
	case s < "AC1009":
		return R12, nil
	case s < "AC1015":
		// AC1012 (R13) and AC1014 (R14) are read with the R2000 rules.
		return R2000, nil
	case s > acadVersions[Latest]:
		return Latest, nil
	}
	return Unknown, fmt.Errorf("unsupported $ACADVER %q", s)
}

// ParseVersion accepts release names ("R12", "2000", "r2018") or $ACADVER
// values ("AC1015").
func ParseVersion(s string) (Version, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(name, "AC") {
		return ParseACADVer(name)
	}
	if !strings.HasPrefix(name, "R") {
		name = "R" + name
	}
	for v := range acadVersions {
		if v.String() == name {
			return v, nil
		}
	}
	return Unknown, fmt.Errorf("unknown DXF version %q", s)
}

// Versions returns all known dialects, oldest first.
func Versions() []Version {
	return []Version{R12, R2000, R2004, R2007, R2010, R2013, R2018}
}
