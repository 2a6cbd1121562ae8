package core

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tsawler/dxf/format"
)

// TokenWriter appends tokens to an output stream. Flush must be called
// after the last token.
type TokenWriter interface {
	WriteToken(tok Token) error
	Flush() error
}

// TextWriter writes the text encoding. Group codes are right aligned in a
// three character field, the way AutoCAD writes them.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter creates a text token writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// WriteToken writes a group-code line and a value line.
func (t *TextWriter) WriteToken(tok Token) error {
	value := tok.Value()
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("dxf: value of group code %d contains a line break", tok.Code)
	}
	code := strconv.Itoa(tok.Code)
	if len(code) < 3 {
		code = strings.Repeat(" ", 3-len(code)) + code
	}
	if _, err := t.w.WriteString(code + "\n" + value + "\n"); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Flush writes buffered data to the underlying writer.
func (t *TextWriter) Flush() error {
	return t.w.Flush()
}

// BinaryWriter writes the binary encoding. Wide writers emit int16 group
// codes (R13 and later); narrow writers emit the R12 one byte form.
type BinaryWriter struct {
	w       *bufio.Writer
	wide    bool
	started bool
	buf     [8]byte
}

// NewBinaryWriter creates a binary token writer. The sentinel is written
// with the first token.
func NewBinaryWriter(w io.Writer, wide bool) *BinaryWriter {
	return &BinaryWriter{w: bufio.NewWriter(w), wide: wide}
}

// WriteToken writes one group code and its packed value.
func (b *BinaryWriter) WriteToken(tok Token) error {
	if !b.started {
		if _, err := b.w.Write(format.BinarySentinel); err != nil {
			return fmt.Errorf("write sentinel: %w", err)
		}
		b.started = true
	}
	if err := b.writeCode(tok.Code); err != nil {
		return err
	}

	var err error
	switch tok.Kind {
	case KindString, KindHandle:
		if strings.IndexByte(tok.Str, 0) >= 0 {
			return fmt.Errorf("dxf: value of group code %d contains a NUL byte", tok.Code)
		}
		_, err = b.w.WriteString(tok.Str)
		if err == nil {
			err = b.w.WriteByte(0)
		}
	case KindReal:
		binary.LittleEndian.PutUint64(b.buf[:8], math.Float64bits(tok.Real))
		_, err = b.w.Write(b.buf[:8])
	case KindInt16:
		binary.LittleEndian.PutUint16(b.buf[:2], uint16(int16(tok.Int)))
		_, err = b.w.Write(b.buf[:2])
	case KindInt32:
		binary.LittleEndian.PutUint32(b.buf[:4], uint32(int32(tok.Int)))
		_, err = b.w.Write(b.buf[:4])
	case KindInt64:
		binary.LittleEndian.PutUint64(b.buf[:8], uint64(tok.Int))
		_, err = b.w.Write(b.buf[:8])
	case KindBool:
		var v byte
		if tok.Bool {
			v = 1
		}
		err = b.w.WriteByte(v)
	case KindBinary:
		if len(tok.Bytes) > 255 {
			return fmt.Errorf("dxf: binary chunk of %d bytes exceeds 255", len(tok.Bytes))
		}
		err = b.w.WriteByte(byte(len(tok.Bytes)))
		if err == nil {
			_, err = b.w.Write(tok.Bytes)
		}
	}
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (b *BinaryWriter) writeCode(code int) error {
	if !b.wide && code >= 0 && code < 255 {
		if err := b.w.WriteByte(byte(code)); err != nil {
			return fmt.Errorf("write group code: %w", err)
		}
		return nil
	}
	if !b.wide {
		if err := b.w.WriteByte(255); err != nil {
			return fmt.Errorf("write group code: %w", err)
		}
	}
	binary.LittleEndian.PutUint16(b.buf[:2], uint16(int16(code)))
	if _, err := b.w.Write(b.buf[:2]); err != nil {
		return fmt.Errorf("write group code: %w", err)
	}
	return nil
}

// Flush writes buffered data to the underlying writer.
func (b *BinaryWriter) Flush() error {
	return b.w.Flush()
}
