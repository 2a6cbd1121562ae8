package model

import (
	"fmt"
	"strings"
)

// ReferencePolicy decides what happens when an entity or record refers to
// a table record that does not exist.
type ReferencePolicy int

const (
	// AutoCreate materializes missing records. A missing layer handle
	// resolves to the default layer "0"; a missing name creates a record
	// with default properties.
	AutoCreate ReferencePolicy = iota
	// Strict rejects missing references with a ReferenceError.
	Strict
)

// String returns the configuration name of the policy.
func (p ReferencePolicy) String() string {
	if p == Strict {
		return "strict"
	}
	return "autocreate"
}

// ParseReferencePolicy parses "autocreate" or "strict".
func ParseReferencePolicy(s string) (ReferencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "autocreate", "auto-create", "auto":
		return AutoCreate, nil
	case "strict":
		return Strict, nil
	}
	return AutoCreate, fmt.Errorf("unknown reference policy %q", s)
}

// RemovalPolicy decides what happens when a referenced record is removed.
type RemovalPolicy int

const (
	// Reject refuses to remove a record that is still referenced.
	Reject RemovalPolicy = iota
	// Cascade removes the referencing entities (layers, blocks) or resets
	// the references to the default (linetypes, text styles).
	Cascade
)

// String returns the configuration name of the policy.
func (p RemovalPolicy) String() string {
	if p == Cascade {
		return "cascade"
	}
	return "reject"
}

// ParseRemovalPolicy parses "reject" or "cascade".
func ParseRemovalPolicy(s string) (RemovalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return Reject, nil
	case "cascade":
		return Cascade, nil
	}
	return Reject, fmt.Errorf("unknown removal policy %q", s)
}

// Options configures referential integrity of an EntityTable.
type Options struct {
	References ReferencePolicy
	Removal    RemovalPolicy
}

// DefaultOptions returns auto-create references and rejected removals.
func DefaultOptions() Options {
	return Options{References: AutoCreate, Removal: Reject}
}
