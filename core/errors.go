package core

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error produced by the library that belongs to
// the taxonomy matches exactly one of these through errors.Is.
var (
	ErrFormat     = errors.New("format error")
	ErrStructure  = errors.New("structural error")
	ErrReference  = errors.New("reference error")
	ErrConversion = errors.New("conversion error")
)

// FormatError reports token-level syntax problems: a malformed group code,
// a value that does not parse as its kind, a stream that ends mid-token or
// an unsupported encoding marker.
type FormatError struct {
	Offset int64 // Byte offset of the offending token
	Line   int   // Line number (text encoding only, 0 otherwise)
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	loc := fmt.Sprintf("offset %d", e.Offset)
	if e.Line > 0 {
		loc = fmt.Sprintf("line %d", e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("dxf: format error at %s: %s: %v", loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("dxf: format error at %s: %s", loc, e.Msg)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }
func (e *FormatError) Unwrap() error        { return e.Err }

// StructuralError reports a violation of the section grammar: a missing
// mandatory section, ENDSEC without SECTION, nesting that does not close.
type StructuralError struct {
	Section string // Section being parsed when the error was detected
	Line    int
	Offset  int64
	Msg     string
}

func (e *StructuralError) Error() string {
	var loc string
	switch {
	case e.Line > 0:
		loc = fmt.Sprintf(" at line %d", e.Line)
	case e.Offset > 0:
		loc = fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Section != "" {
		return fmt.Sprintf("dxf: structural error in %s%s: %s", e.Section, loc, e.Msg)
	}
	return fmt.Sprintf("dxf: structural error%s: %s", loc, e.Msg)
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructure }

// ReferenceError reports a dangling or invalid handle, or a table record
// that cannot be removed because it is still referenced.
type ReferenceError struct {
	Handle string // Handle of the referencing object, hex
	Table  string // LAYER, LTYPE, STYLE, BLOCK
	Name   string // Record name involved, if any
	Msg    string
}

func (e *ReferenceError) Error() string {
	msg := "dxf: reference error"
	if e.Handle != "" {
		msg += " (handle " + e.Handle + ")"
	}
	if e.Table != "" {
		msg += fmt.Sprintf(": %s %q", e.Table, e.Name)
	}
	return msg + ": " + e.Msg
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

// ConversionError reports an entity that cannot be represented in the
// target dialect under the configured approximation policy.
type ConversionError struct {
	Handle string // Entity handle, hex
	Entity string // Entity type, e.g. SPLINE
	Target string // Target dialect, e.g. R12
	Msg    string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("dxf: cannot convert %s (handle %s) to %s: %s", e.Entity, e.Handle, e.Target, e.Msg)
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }
