package dxf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/geom"
	"github.com/tsawler/dxf/model"
	"github.com/tsawler/dxf/section"
	"github.com/tsawler/dxf/thumbnail"
)

// Exporter writes a drawing. Each configuration method returns a new
// Exporter. The whole output is produced in memory before the first byte
// reaches the destination, so a failed export never leaves partial output.
type Exporter struct {
	doc    *model.Document
	opts   exportOptions
	logger *slog.Logger

	// Progress
	state  State
	report *dialect.Report
	diags  []error
}

// clone creates a fresh Idle copy with the same document and configuration.
func (ex *Exporter) clone() *Exporter {
	return &Exporter{
		doc:    ex.doc,
		opts:   ex.opts.clone(),
		logger: ex.logger,
	}
}

// Version sets the dialect to write. Older versions downgrade the
// document, newer ones upgrade it.
func (ex *Exporter) Version(v format.Version) *Exporter {
	n := ex.clone()
	n.opts.version = v
	return n
}

// Binary writes binary DXF instead of text.
func (ex *Exporter) Binary() *Exporter {
	n := ex.clone()
	n.opts.binary = true
	return n
}

// Policy sets the approximation policy used when downgrading.
func (ex *Exporter) Policy(p dialect.Policy) *Exporter {
	n := ex.clone()
	n.opts.policy = p
	n.opts.policy.Approximate = append([]model.EntityKind(nil), p.Approximate...)
	n.opts.policy.Drop = append([]string(nil), p.Drop...)
	return n
}

// Approximate replaces the kinds that may be approximated when
// downgrading. With no kinds, approximation is disabled and entities
// without a legacy equivalent fail the export.
func (ex *Exporter) Approximate(kinds ...model.EntityKind) *Exporter {
	n := ex.clone()
	n.opts.policy = n.opts.policy.WithApproximate(kinds...)
	return n
}

// Drop lets a downgrade remove entities of the named types, such as
// LEADER or HATCH, that the target cannot hold. "*" drops every such type.
// Without it they fail the export.
func (ex *Exporter) Drop(types ...string) *Exporter {
	n := ex.clone()
	n.opts.policy = n.opts.policy.WithDrop(types...)
	return n
}

// UpdateExtents recomputes $EXTMIN and $EXTMAX from model space.
func (ex *Exporter) UpdateExtents() *Exporter {
	n := ex.clone()
	n.opts.updateExtents = true
	return n
}

// Thumbnail renders a preview into the THUMBNAILIMAGE section. R12 has no
// such section and ignores it.
func (ex *Exporter) Thumbnail(opts thumbnail.Options) *Exporter {
	n := ex.clone()
	n.opts.thumbnail = &opts
	return n
}

// Logger sets the logger for state transitions and lossy conversions.
func (ex *Exporter) Logger(l *slog.Logger) *Exporter {
	n := ex.clone()
	if l == nil {
		l = discard
	}
	n.logger = l
	return n
}

// State returns the progress of the export.
func (ex *Exporter) State() State {
	return ex.state
}

// Diagnostics returns every problem that made the export fail.
func (ex *Exporter) Diagnostics() []error {
	return append([]error(nil), ex.diags...)
}

// Report returns the conversion report of the last export, or nil when
// no conversion was needed.
func (ex *Exporter) Report() *dialect.Report {
	return ex.report
}

// WriteTo writes the drawing to w.
func (ex *Exporter) WriteTo(w io.Writer) (int64, error) {
	data, err := ex.serialize()
	if err != nil {
		return 0, err
	}

	ex.transition(Writing)
	n, err := w.Write(data)
	if err != nil {
		return int64(n), ex.fail(fmt.Errorf("failed to write output: %w", err))
	}
	ex.transition(Done)
	return int64(n), nil
}

// WriteFile writes the drawing to path. The output goes to a temporary
// file next to path which is renamed into place, so path is either left
// alone or completely replaced.
func (ex *Exporter) WriteFile(path string) error {
	data, err := ex.serialize()
	if err != nil {
		return err
	}

	ex.transition(Writing)
	if err := writeAtomic(path, data); err != nil {
		return ex.fail(err)
	}
	ex.transition(Done)
	ex.logger.Info("drawing written", "file", path, "bytes", len(data))
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename output: %w", err)
	}
	return nil
}

// serialize converts the document and encodes it into memory.
func (ex *Exporter) serialize() ([]byte, error) {
	if ex.state != Idle {
		return nil, errUsed
	}
	if ex.doc == nil {
		ex.state = Failed
		return nil, errors.New("dxf: no document to export")
	}
	ex.transition(Serializing)

	out, err := ex.prepare()
	if err != nil {
		return nil, ex.fail(err)
	}

	enc := format.ASCII
	if ex.opts.binary {
		enc = format.Binary
	}
	var buf bytes.Buffer
	if err := section.Write(section.NewTokenWriter(&buf, enc, out.Version), out); err != nil {
		return nil, ex.fail(err)
	}
	return buf.Bytes(), nil
}

// prepare returns the document to write: converted to the target version
// and with refreshed extents and preview when asked for. ex.doc is never
// modified.
func (ex *Exporter) prepare() (*model.Document, error) {
	target := ex.opts.version
	if !target.Valid() {
		return nil, fmt.Errorf("unsupported target version %s", target)
	}

	out := ex.doc
	owned := false
	if target != out.Version || target.Legacy() {
		converted, report, err := dialect.Convert(out, target, ex.opts.policy)
		if err != nil {
			return nil, err
		}
		out, owned, ex.report = converted, true, report
		ex.logReport(report)
	}

	if !ex.opts.updateExtents && (ex.opts.thumbnail == nil || target.Legacy()) {
		return out, nil
	}
	if !owned {
		out = out.Clone()
	}
	if ex.opts.updateExtents {
		if box := geom.Extents(out.EntityTable); !box.IsEmpty() {
			out.Header.SetPoint("$EXTMIN", model.Vec3{X: box.Min.X, Y: box.Min.Y})
			out.Header.SetPoint("$EXTMAX", model.Vec3{X: box.Max.X, Y: box.Max.Y})
		}
	}
	if ex.opts.thumbnail != nil && !target.Legacy() {
		dib, err := thumbnail.DIB(out.EntityTable, *ex.opts.thumbnail)
		if err != nil {
			return nil, fmt.Errorf("failed to render thumbnail: %w", err)
		}
		out.Thumbnail = dib
	}
	return out, nil
}

func (ex *Exporter) logReport(r *dialect.Report) {
	ex.logger.Debug("converted", "from", r.From.String(), "to", r.To.String(), "changes", len(r.Changes))
	for _, c := range r.LossyChanges() {
		ex.logger.Warn("lossy conversion", "change", c.String())
	}
}

func (ex *Exporter) transition(s State) {
	ex.logger.Debug("export state", "from", ex.state.String(), "to", s.String())
	ex.state = s
}

func (ex *Exporter) fail(err error) error {
	ex.diags = append(ex.diags, diagnostics(err)...)
	ex.logger.Error("export failed", "state", ex.state.String(), "error", err)
	ex.state = Failed
	return err
}
