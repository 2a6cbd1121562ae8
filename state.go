package dxf

// State is the progress of an import or export.
//
// Imports move Idle → Reading → Validating → Ready; exports move
// Idle → Serializing → Writing → Done. Any failure ends in Failed, which
// is terminal.
type State int

const (
	Idle State = iota
	Reading
	Validating
	Ready
	Serializing
	Writing
	Done
	Failed
)

// String returns the lower case name of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case Validating:
		return "validating"
	case Ready:
		return "ready"
	case Serializing:
		return "serializing"
	case Writing:
		return "writing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Ready || s == Done || s == Failed
}
