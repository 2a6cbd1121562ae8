package dxf

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/model"
	"github.com/tsawler/dxf/reader"
	"github.com/tsawler/dxf/section"
)

// knownSections are the sections every reader understands, even when it
// keeps them verbatim.
var knownSections = []string{"HEADER", "CLASSES", "TABLES", "BLOCKS", "ENTITIES", "OBJECTS", "THUMBNAILIMAGE", "ACDSDATA"}

// Importer reads a drawing. Each configuration method returns a new
// Importer, so a configured Importer can be used as a template.
type Importer struct {
	// Source
	filename string
	src      io.Reader

	// Configuration
	opts   model.Options
	logger *slog.Logger

	// Progress
	state State
	diags []error
}

// clone creates a fresh Idle copy with the same source and configuration.
func (im *Importer) clone() *Importer {
	return &Importer{
		filename: im.filename,
		src:      im.src,
		opts:     im.opts,
		logger:   im.logger,
	}
}

// Strict rejects references to missing table records instead of creating
// them.
func (im *Importer) Strict() *Importer {
	n := im.clone()
	n.opts.References = model.Strict
	return n
}

// AutoCreate creates missing layers, linetypes, styles and blocks that
// entities refer to. This is the default.
func (im *Importer) AutoCreate() *Importer {
	n := im.clone()
	n.opts.References = model.AutoCreate
	return n
}

// Cascade makes removals on the returned document cascade to the
// entities that use the removed record.
func (im *Importer) Cascade() *Importer {
	n := im.clone()
	n.opts.Removal = model.Cascade
	return n
}

// Options replaces the integrity options.
func (im *Importer) Options(opts model.Options) *Importer {
	n := im.clone()
	n.opts = opts
	return n
}

// Logger sets the logger for state transitions. Nothing is logged by
// default.
func (im *Importer) Logger(l *slog.Logger) *Importer {
	n := im.clone()
	if l == nil {
		l = discard
	}
	n.logger = l
	return n
}

// State returns the progress of the import.
func (im *Importer) State() State {
	return im.state
}

// Diagnostics returns every problem that made the import fail.
func (im *Importer) Diagnostics() []error {
	return append([]error(nil), im.diags...)
}

// Document reads, parses and validates the drawing. On failure no
// document is returned and the Importer is Failed.
//
// Example:
//
//	doc, warnings, err := dxf.Open("plan.dxf").Document()
func (im *Importer) Document() (*model.Document, []Warning, error) {
	if im.state != Idle {
		return nil, nil, errUsed
	}

	im.transition(Reading)
	doc, err := im.read()
	if err != nil {
		return nil, nil, im.fail(err)
	}

	im.transition(Validating)
	if err := doc.Validate(); err != nil {
		return nil, nil, im.fail(err)
	}
	warnings := collectWarnings(doc)
	for _, w := range warnings {
		im.logger.Debug("import warning", "warning", w.String())
	}

	im.transition(Ready)
	im.logger.Info("drawing imported",
		"source", im.source(),
		"version", doc.Version.String(),
		"entities", doc.EntityCount(),
		"warnings", len(warnings))
	return doc, warnings, nil
}

// Validate reads the drawing and reports whether it is well formed, with
// every reference resolving.
func (im *Importer) Validate() error {
	_, _, err := im.Document()
	return err
}

func (im *Importer) read() (*model.Document, error) {
	if im.src != nil {
		tr, err := core.NewReader(im.src)
		if err != nil {
			return nil, fmt.Errorf("failed to read stream: %w", err)
		}
		return section.Parse(tr, im.opts)
	}
	if im.filename == "" {
		return nil, fmt.Errorf("no filename specified")
	}

	r, err := reader.Open(im.filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	im.logger.Debug("file opened",
		"file", r.Name(),
		"encoding", r.Encoding().String(),
		"version", r.Version().String(),
		"bytes", r.Size())
	return r.Document(im.opts)
}

func (im *Importer) transition(s State) {
	im.logger.Debug("import state", "from", im.state.String(), "to", s.String())
	im.state = s
}

func (im *Importer) fail(err error) error {
	im.diags = append(im.diags, diagnostics(err)...)
	im.logger.Error("import failed", "source", im.source(), "state", im.state.String(), "error", err)
	im.state = Failed
	return err
}

func (im *Importer) source() string {
	if im.src != nil {
		return "stream"
	}
	return im.filename
}

// collectWarnings lists what was kept without being modelled.
func collectWarnings(doc *model.Document) []Warning {
	var warnings []Warning

	if len(doc.Order) > 0 && !containsFold(doc.Order, "TABLES") {
		warnings = append(warnings, Warning{Message: "no TABLES section; default tables created"})
	}
	for _, s := range doc.Sections {
		if !containsFold(knownSections, s.Name) {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("unknown section %s kept verbatim", s.Name)})
		}
	}

	unknown := make(map[string]int)
	for _, e := range doc.AllEntities() {
		if u, ok := e.(*model.Unknown); ok {
			unknown[u.Type]++
		}
	}
	types := make([]string, 0, len(unknown))
	for t := range unknown {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		noun := "entity"
		if unknown[t] > 1 {
			noun = "entities"
		}
		warnings = append(warnings, Warning{Message: fmt.Sprintf("%d %s %s kept verbatim", unknown[t], t, noun)})
	}
	return warnings
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
