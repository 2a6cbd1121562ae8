package dxf

import (
	"github.com/tsawler/dxf/dialect"
	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/thumbnail"
)

// exportOptions holds configuration for writing a drawing.
type exportOptions struct {
	version format.Version
	binary  bool
	policy  dialect.Policy

	// Header and preview refresh
	updateExtents bool
	thumbnail     *thumbnail.Options
}

// clone creates a deep copy of exportOptions.
func (o exportOptions) clone() exportOptions {
	n := o
	n.policy.Approximate = append(n.policy.Approximate[:0:0], o.policy.Approximate...)
	n.policy.Drop = append(n.policy.Drop[:0:0], o.policy.Drop...)
	if o.thumbnail != nil {
		t := *o.thumbnail
		n.thumbnail = &t
	}
	return n
}
