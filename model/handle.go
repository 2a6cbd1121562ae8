package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle identifies an object (entity, table record, block) within a
// Document. Handles are written as upper-case hexadecimal. The zero value
// means "no handle".
type Handle uint64

// String returns the hexadecimal form used in DXF files.
func (h Handle) String() string {
	return strings.ToUpper(strconv.FormatUint(uint64(h), 16))
}

// IsZero reports whether h is unset.
func (h Handle) IsZero() bool {
	return h == 0
}

// ParseHandle parses a hexadecimal handle.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty handle")
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q", s)
	}
	return Handle(v), nil
}

// Object is anything addressable by handle.
type Object interface {
	ObjectHandle() Handle
}
