package dxf

import (
	"errors"
	"io"
	"log/slog"

	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
)

// ExportRequest is the call an application's exporter registry makes. The
// registry picks the file name and the dialect; the core only needs a
// destination and an explicit version. FilterHint is the registry's own
// label for the chosen format. It is logged and never interpreted.
type ExportRequest struct {
	Path       string    // Destination file, used when Writer is nil
	Writer     io.Writer // Destination stream
	Document   *model.Document
	Version    format.Version
	FilterHint string

	Binary bool
	Policy *dialect.Policy // nil means dialect.DefaultPolicy
	Logger *slog.Logger
}

// Run performs the export and returns the conversion report.
func (r ExportRequest) Run() (*dialect.Report, error) {
	if r.Document == nil {
		return nil, errors.New("dxf: export request without a document")
	}
	if r.Writer == nil && r.Path == "" {
		return nil, errors.New("dxf: export request without a destination")
	}
	if !r.Version.Valid() {
		return nil, errors.New("dxf: export request without a valid version")
	}

	ex := Export(r.Document).Version(r.Version)
	if r.Logger != nil {
		ex = ex.Logger(r.Logger)
	}
	if r.Policy != nil {
		ex = ex.Policy(*r.Policy)
	}
	if r.Binary {
		ex = ex.Binary()
	}
	ex.logger.Debug("export requested", "filter", r.FilterHint, "version", r.Version.String())

	var err error
	if r.Writer != nil {
		_, err = ex.WriteTo(r.Writer)
	} else {
		err = ex.WriteFile(r.Path)
	}
	return ex.Report(), err
}

// ExportProfile is a dialect an application offers for export.
type ExportProfile struct {
	Version format.Version
	Label   string
}

// ExportProfiles returns the dialects offered by the export menu: R12 for
// older tools and 2000 as the common modern target.
func ExportProfiles() []ExportProfile {
	return []ExportProfile{
		{Version: format.R12, Label: format.R12.Label()},
		{Version: format.R2000, Label: format.R2000.Label()},
	}
}
