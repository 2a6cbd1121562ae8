package dialect

import (
	"fmt"
	"strings"

	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/model"
)

// Action says what a conversion did to one object.
type Action string

const (
	// Converted means the object was rewritten as another entity type
	// with the same geometry.
	Converted Action = "converted"
	// Approximated means curved geometry was replaced by line segments.
	Approximated Action = "approximated"
	// Stripped means group codes or properties unknown to the target
	// were removed.
	Stripped Action = "stripped"
	// Dropped means the object was removed entirely.
	Dropped Action = "dropped"
	// Created means the conversion added an object the target requires.
	Created Action = "created"
)

// Change records one step of a conversion.
type Change struct {
	Handle model.Handle // Zero for sections and header variables
	Entity string       // Entity type, table or section name
	Action Action
	Lossy  bool
	Detail string
}

func (c Change) String() string {
	var b strings.Builder
	b.WriteString(c.Entity)
	if c.Handle != 0 {
		fmt.Fprintf(&b, " %s", c.Handle)
	}
	fmt.Fprintf(&b, ": %s", c.Action)
	if c.Detail != "" {
		fmt.Fprintf(&b, " (%s)", c.Detail)
	}
	return b.String()
}

// Report lists the changes made by a conversion, in the order they were
// made.
type Report struct {
	From    format.Version
	To      format.Version
	Changes []Change
}

func (r *Report) add(c Change) {
	r.Changes = append(r.Changes, c)
}

// Lossy reports whether any change lost information.
func (r *Report) Lossy() bool {
	for _, c := range r.Changes {
		if c.Lossy {
			return true
		}
	}
	return false
}

// Count returns the number of changes with the given action.
func (r *Report) Count(a Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == a {
			n++
		}
	}
	return n
}

// LossyChanges returns only the changes that lost information.
func (r *Report) LossyChanges() []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Lossy {
			out = append(out, c)
		}
	}
	return out
}
