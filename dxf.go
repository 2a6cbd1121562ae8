// Package dxf provides a fluent API for reading and writing DXF drawings.
//
// Basic usage:
//
//	doc, warnings, err := dxf.Open("plan.dxf").Document()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", dxf.FormatWarnings(warnings))
//	}
//
// Writing, with a downgrade to R12:
//
//	err := dxf.Export(doc).
//	    Version(format.R12).
//	    Approximate(model.KindEllipse, model.KindSpline).
//	    WriteFile("plan-r12.dxf")
//
// For advanced use cases the lower-level core, section, model and dialect
// packages are also available.
package dxf

import (
	"io"
	"log/slog"

	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/model"
)

// Open returns an Importer for a file. Nothing is read until Document is
// called.
//
// Example:
//
//	doc, warnings, err := dxf.Open("plan.dxf").Strict().Document()
func Open(filename string) *Importer {
	return &Importer{
		filename: filename,
		opts:     model.DefaultOptions(),
		logger:   discard,
	}
}

// FromReader returns an Importer for a stream. Text and binary streams are
// both accepted. The caller is responsible for closing r.
//
// Example:
//
//	resp, _ := http.Get(url)
//	defer resp.Body.Close()
//	doc, _, err := dxf.FromReader(resp.Body).Document()
func FromReader(r io.Reader) *Importer {
	return &Importer{
		src:    r,
		opts:   model.DefaultOptions(),
		logger: discard,
	}
}

// Export returns an Exporter writing doc in its own version. doc is never
// modified by the export.
//
// Example:
//
//	n, err := dxf.Export(doc).Version(format.R2000).WriteTo(w)
func Export(doc *model.Document) *Exporter {
	ex := &Exporter{
		doc:    doc,
		opts:   exportOptions{policy: dialect.DefaultPolicy()},
		logger: discard,
	}
	if doc != nil {
		ex.opts.version = doc.Version
	}
	return ex
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	n := dxf.Must(dxf.Export(doc).WriteTo(&buf))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustDocument is Must for Importer.Document. Warnings are discarded.
//
// Example:
//
//	doc := dxf.MustDocument(dxf.Open("plan.dxf").Document())
func MustDocument(doc *model.Document, _ []Warning, err error) *model.Document {
	if err != nil {
		panic(err)
	}
	return doc
}

var discard = slog.New(slog.DiscardHandler)
