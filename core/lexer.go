package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tsawler/dxf/format"
)

var utf8BOM = "\xef\xbb\xbf"

// Lexer reads tokens from the text encoding: a group-code line followed by
// a value line, LF or CRLF terminated.
type Lexer struct {
	src    io.Reader
	reader *bufio.Reader
	pos    int64
	line   int
}

// NewLexer creates a new lexer
func NewLexer(r io.Reader) *Lexer {
	return newLexer(r, bufio.NewReader(r))
}

func newLexer(src io.Reader, br *bufio.Reader) *Lexer {
	return &Lexer{
		src:    src,
		reader: br,
		pos:    0,
		line:   0,
	}
}

// Encoding returns format.ASCII.
func (l *Lexer) Encoding() format.Encoding { return format.ASCII }

// ReadToken returns the next token, or io.EOF once the input is exhausted.
func (l *Lexer) ReadToken() (Token, error) {
	offset := l.pos
	codeLine, err := l.readLine()
	if err != nil {
		return Token{}, err
	}
	lineNo := l.line
	if lineNo == 1 {
		codeLine = strings.TrimPrefix(codeLine, utf8BOM)
	}

	trimmed := strings.TrimSpace(codeLine)
	if trimmed == "" {
		// Trailing blank lines after the last token are tolerated
		if _, err := l.reader.Peek(1); err == io.EOF {
			return Token{}, io.EOF
		}
		return Token{}, &FormatError{Offset: offset, Line: lineNo, Msg: "empty group code"}
	}

	code, err := strconv.Atoi(trimmed)
	if err != nil {
		return Token{}, &FormatError{Offset: offset, Line: lineNo, Msg: fmt.Sprintf("malformed group code %q", trimmed)}
	}

	value, err := l.readLine()
	if err == io.EOF {
		return Token{}, &FormatError{Offset: l.pos, Line: lineNo + 1, Msg: fmt.Sprintf("unexpected end of stream after group code %d", code)}
	}
	if err != nil {
		return Token{}, err
	}

	tok, err := ParseValue(code, value)
	if err != nil {
		return Token{}, &FormatError{Offset: offset, Line: lineNo + 1, Msg: "invalid value", Err: err}
	}
	tok.Line = lineNo
	tok.Offset = offset
	return tok, nil
}

// Reset rewinds the lexer to the start of its source. The source must
// implement io.Seeker.
func (l *Lexer) Reset() error {
	seeker, ok := l.src.(io.Seeker)
	if !ok {
		return errors.New("dxf: token source is not seekable")
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	l.reader.Reset(l.src)
	l.pos = 0
	l.line = 0
	return nil
}

// readLine reads one line without its line ending. A final line without a
// terminating newline is returned normally; io.EOF is returned only when no
// bytes remain.
func (l *Lexer) readLine() (string, error) {
	s, err := l.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == io.EOF && s == "" {
		return "", io.EOF
	}
	l.pos += int64(len(s))
	l.line++
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}
