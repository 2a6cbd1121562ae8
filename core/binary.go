package core

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tsawler/dxf/format"
)

// BinaryReader reads tokens from the binary encoding. R12 files use one
// byte group codes (255 escapes a following int16); R13 and later use
// little-endian int16 group codes. The width is detected from the first
// token.
type BinaryReader struct {
	src    io.Reader
	reader *bufio.Reader
	pos    int64
	wide   bool
}

// NewBinaryReader creates a binary reader and consumes the sentinel.
func NewBinaryReader(r io.Reader) (*BinaryReader, error) {
	return newBinaryReader(r, bufio.NewReader(r))
}

func newBinaryReader(src io.Reader, br *bufio.Reader) (*BinaryReader, error) {
	b := &BinaryReader{src: src, reader: br}
	if err := b.start(); err != nil {
		return nil, err
	}
	return b, nil
}

// Encoding returns format.Binary.
func (b *BinaryReader) Encoding() format.Encoding { return format.Binary }

// WideCodes reports whether group codes are stored as int16.
func (b *BinaryReader) WideCodes() bool { return b.wide }

func (b *BinaryReader) start() error {
	sentinel := make([]byte, len(format.BinarySentinel))
	n, err := io.ReadFull(b.reader, sentinel)
	b.pos += int64(n)
	if err != nil || !bytes.Equal(sentinel, format.BinarySentinel) {
		return &FormatError{Offset: 0, Msg: "unsupported encoding marker"}
	}

	// "0 SECTION" is 00 'S' with narrow codes and 00 00 'S' with wide codes
	peek, err := b.reader.Peek(2)
	if err == nil && len(peek) == 2 {
		b.wide = peek[1] == 0
	}
	return nil
}

// Reset rewinds to the first token. The source must implement io.Seeker.
func (b *BinaryReader) Reset() error {
	seeker, ok := b.src.(io.Seeker)
	if !ok {
		return errors.New("dxf: token source is not seekable")
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	b.reader.Reset(b.src)
	b.pos = 0
	return b.start()
}

// ReadToken returns the next token, or io.EOF at the end of the stream.
func (b *BinaryReader) ReadToken() (Token, error) {
	offset := b.pos
	code, err := b.readCode()
	if err != nil {
		return Token{}, err
	}

	tok := Token{Code: code, Kind: KindOf(code), Offset: offset}
	switch tok.Kind {
	case KindString, KindHandle:
		s, err := b.readCString(code)
		if err != nil {
			return Token{}, err
		}
		tok.Str = s
	case KindReal:
		buf, err := b.readN(8, code)
		if err != nil {
			return Token{}, err
		}
		tok.Real = math.Float64frombits(binary.LittleEndian.Uint64(buf))
	case KindInt16:
		buf, err := b.readN(2, code)
		if err != nil {
			return Token{}, err
		}
		tok.Int = int64(int16(binary.LittleEndian.Uint16(buf)))
	case KindInt32:
		buf, err := b.readN(4, code)
		if err != nil {
			return Token{}, err
		}
		tok.Int = int64(int32(binary.LittleEndian.Uint32(buf)))
	case KindInt64:
		buf, err := b.readN(8, code)
		if err != nil {
			return Token{}, err
		}
		tok.Int = int64(binary.LittleEndian.Uint64(buf))
	case KindBool:
		buf, err := b.readN(1, code)
		if err != nil {
			return Token{}, err
		}
		tok.Bool = buf[0] != 0
	case KindBinary:
		size, err := b.readN(1, code)
		if err != nil {
			return Token{}, err
		}
		data, err := b.readN(int(size[0]), code)
		if err != nil {
			return Token{}, err
		}
		tok.Bytes = append([]byte(nil), data...)
	}
	return tok, nil
}

func (b *BinaryReader) readCode() (int, error) {
	if b.wide {
		buf := make([]byte, 2)
		n, err := io.ReadFull(b.reader, buf)
		b.pos += int64(n)
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, b.truncated(err, -1)
		}
		return int(int16(binary.LittleEndian.Uint16(buf))), nil
	}

	c, err := b.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	b.pos++
	if c != 255 {
		return int(c), nil
	}
	buf, err := b.readN(2, -1)
	if err != nil {
		return 0, err
	}
	return int(int16(binary.LittleEndian.Uint16(buf))), nil
}

func (b *BinaryReader) readN(n int, code int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(b.reader, buf)
	b.pos += int64(read)
	if err != nil {
		return nil, b.truncated(err, code)
	}
	return buf, nil
}

func (b *BinaryReader) readCString(code int) (string, error) {
	s, err := b.reader.ReadBytes(0)
	b.pos += int64(len(s))
	if err != nil {
		return "", b.truncated(err, code)
	}
	return string(s[:len(s)-1]), nil
}

func (b *BinaryReader) truncated(err error, code int) error {
	if err != io.EOF && err != io.ErrUnexpectedEOF {
		return err
	}
	if code < 0 {
		return &FormatError{Offset: b.pos, Msg: "unexpected end of stream inside group code"}
	}
	return &FormatError{Offset: b.pos, Msg: fmt.Sprintf("unexpected end of stream in value of group code %d", code)}
}
