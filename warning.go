package dxf

import (
	"errors"
	"fmt"
	"strings"
)

// Warning is a non-fatal observation about an imported drawing: data that
// is kept but not modelled, or structure that was filled in.
type Warning struct {
	Message string
	Handle  string // Entity handle, hex, when the warning is about one entity
}

func (w Warning) String() string {
	if w.Handle != "" {
		return fmt.Sprintf("%s (handle %s)", w.Message, w.Handle)
	}
	return w.Message
}

// FormatWarnings joins warnings into one line for logging.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}

// diagnostics flattens joined errors so each problem is reported once.
func diagnostics(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, diagnostics(e)...)
		}
		return out
	}
	return []error{err}
}

// errUsed is returned when Document or WriteTo is called on a facade that
// already ran.
var errUsed = errors.New("dxf: operation already ran; start a new one")
