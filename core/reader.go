package core

import (
	"bufio"
	"io"

	"github.com/tsawler/dxf/format"
)

// TokenReader produces a finite token sequence from a DXF stream.
// ReadToken returns io.EOF at the end of the stream. Reset restarts the
// sequence from the first token when the source is seekable.
type TokenReader interface {
	ReadToken() (Token, error)
	Reset() error
	Encoding() format.Encoding
}

// NewReader sniffs the encoding of r and returns the matching reader.
func NewReader(r io.Reader) (TokenReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(format.BinarySentinel))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	if format.DetectEncoding(magic) == format.Binary {
		return newBinaryReader(r, br)
	}
	return newLexer(r, br), nil
}

// ReadAll drains a reader into a slice.
func ReadAll(tr TokenReader) ([]Token, error) {
	var tokens []Token
	for {
		tok, err := tr.ReadToken()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}
