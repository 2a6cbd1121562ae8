package dialect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tsawler/dxf/model"
)

// Policy controls how entity kinds without a legacy equivalent are
// approximated during a downgrade. The zero value approximates nothing.
type Policy struct {
	// Approximate lists the kinds that may be replaced by legacy
	// entities. Ellipses and splines become polylines, MTEXT becomes one
	// TEXT per line.
	Approximate []model.EntityKind

	// Drop lists entity type names, such as LEADER or HATCH, that have no
	// legacy equivalent and may be removed instead. "*" drops every such
	// type.
	Drop []string

	// ChordTolerance is the maximum distance between an ellipse and its
	// chords, in drawing units.
	ChordTolerance float64

	// SplineSegments is the number of chords per non-empty knot span.
	SplineSegments int

	// MinSegments and MaxSegments clamp the chord count of one curve.
	MinSegments int
	MaxSegments int
}

// DefaultPolicy approximates ellipses, splines and MTEXT.
func DefaultPolicy() Policy {
	return Policy{
		Approximate:    []model.EntityKind{model.KindEllipse, model.KindSpline, model.KindMText},
		ChordTolerance: 0.01,
		SplineSegments: 8,
		MinSegments:    8,
		MaxSegments:    1024,
	}
}

// Allows reports whether kind may be approximated.
func (p Policy) Allows(kind model.EntityKind) bool {
	return slices.Contains(p.Approximate, kind)
}

// WithApproximate returns a copy of p that approximates exactly kinds.
func (p Policy) WithApproximate(kinds ...model.EntityKind) Policy {
	p.Approximate = slices.Clone(kinds)
	return p
}

// Drops reports whether entities of the named type may be removed.
func (p Policy) Drops(name string) bool {
	for _, d := range p.Drop {
		if d == "*" || strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// WithDrop returns a copy of p that drops exactly the named types.
func (p Policy) WithDrop(names ...string) Policy {
	p.Drop = slices.Clone(names)
	return p
}

// normalized fills unset numeric fields with the defaults.
func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.ChordTolerance <= 0 {
		p.ChordTolerance = def.ChordTolerance
	}
	if p.SplineSegments <= 0 {
		p.SplineSegments = def.SplineSegments
	}
	if p.MinSegments <= 0 {
		p.MinSegments = def.MinSegments
	}
	if p.MaxSegments < p.MinSegments {
		p.MaxSegments = max(def.MaxSegments, p.MinSegments)
	}
	return p
}

// ParseKinds parses entity type names such as "ELLIPSE" or "spline" for
// Policy.Approximate. "none" yields an empty list.
func ParseKinds(names []string) ([]model.EntityKind, error) {
	var kinds []model.EntityKind
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, "none") {
			continue
		}
		k := model.ParseEntityKind(name)
		if k == model.KindUnknown {
			return nil, fmt.Errorf("unknown entity type %q", name)
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
