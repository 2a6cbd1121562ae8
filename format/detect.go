package format

import (
	"bytes"
	"io"
)

// Encoding is the physical representation of a DXF token stream.
type Encoding int

const (
	// ASCII is the line-oriented text encoding.
	ASCII Encoding = iota
	// Binary is the packed binary encoding.
	Binary
)

// String returns the string representation of the encoding.
func (e Encoding) String() string {
	switch e {
	case ASCII:
		return "ASCII"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// BinarySentinel opens every binary DXF file.
var BinarySentinel = []byte("AutoCAD Binary DXF\r\n\x1a\x00")

// DetectEncoding checks the leading bytes of a stream to determine its
// encoding. Anything that is not the binary sentinel is treated as ASCII;
// the lexer reports malformed text.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, BinarySentinel) {
		return Binary
	}
	return ASCII
}

// DetectFromReader reads the first bytes of r to determine the encoding.
func DetectFromReader(r io.ReaderAt) (Encoding, error) {
	magic := make([]byte, len(BinarySentinel))
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return ASCII, err
	}
	return DetectEncoding(magic[:n]), nil
}
