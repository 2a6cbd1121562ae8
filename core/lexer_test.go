package core

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// TestLexerEOF tests EOF handling
func TestLexerEOF(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"trailing blank line", "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			_, err := lexer.ReadToken()
			if err != io.EOF {
				t.Fatalf("expected io.EOF, got %v", err)
			}
		})
	}
}

// TestLexerValueKinds tests that values are typed by group code
func TestLexerValueKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Token
	}{
		{"string", "  0\nSECTION\n", Str(0, "SECTION")},
		{"handle", "  5\n2A\n", Handle(5, "2A")},
		{"real", " 10\n1.5\n", Real(10, 1.5)},
		{"real integral", " 40\n3\n", Real(40, 3)},
		{"int16", " 70\n   64\n", Int(70, 64)},
		{"int32", " 90\n-7\n", Int(90, -7)},
		{"int64", "160\n9000000000\n", Int(160, 9000000000)},
		{"bool", "290\n1\n", Bool(290, true)},
		{"binary", "310\n0A0bFF\n", Binary(310, []byte{0x0a, 0x0b, 0xff})},
		{"crlf", "  8\r\nWALLS\r\n", Str(8, "WALLS")},
		{"string keeps spaces", "  1\n hello \n", Str(1, " hello ")},
		{"empty string", "  1\n\n", Str(1, "")},
		{"bom", "\xef\xbb\xbf  0\nEOF\n", Str(0, "EOF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			tok, err := lexer.ReadToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tok.Equal(tt.want) {
				t.Errorf("got %v (%s), want %v (%s)", tok, tok.Kind, tt.want, tt.want.Kind)
			}
		})
	}
}

// TestLexerPositions tests line and offset tracking
func TestLexerPositions(t *testing.T) {
	input := "  0\nSECTION\n  2\nHEADER\n"
	lexer := NewLexer(strings.NewReader(input))

	first, err := lexer.ReadToken()
	if err != nil {
		t.Fatal(err)
	}
	second, err := lexer.ReadToken()
	if err != nil {
		t.Fatal(err)
	}

	if first.Line != 1 || first.Offset != 0 {
		t.Errorf("first token at line %d offset %d, want 1/0", first.Line, first.Offset)
	}
	if second.Line != 3 || second.Offset != 12 {
		t.Errorf("second token at line %d offset %d, want 3/12", second.Line, second.Offset)
	}
}

// TestLexerErrors tests malformed input
func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"non-integer group code", "abc\nSECTION\n", 1},
		{"missing value", "  0\n", 2},
		{"bad real", " 10\n1.2.3\n", 2},
		{"bad int", " 70\nx\n", 2},
		{"int16 overflow", " 70\n70000\n", 2},
		{"bad hex", "310\nZZ\n", 2},
		{"odd hex", "310\nABC\n", 2},
		{"blank code mid stream", "\n  0\nEOF\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			_, err := lexer.ReadToken()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("expected format error, got %v", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormatError, got %T", err)
			}
			if fe.Line != tt.wantLine {
				t.Errorf("error at line %d, want %d", fe.Line, tt.wantLine)
			}
		})
	}
}

// TestLexerReset tests restarting from the beginning
func TestLexerReset(t *testing.T) {
	input := "  0\nSECTION\n  2\nENTITIES\n  0\nENDSEC\n  0\nEOF\n"
	lexer := NewLexer(strings.NewReader(input))

	first, err := ReadAll(lexer)
	if err != nil {
		t.Fatal(err)
	}
	if err := lexer.Reset(); err != nil {
		t.Fatal(err)
	}
	second, err := ReadAll(lexer)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != 4 || len(first) != len(second) {
		t.Fatalf("got %d and %d tokens, want 4", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) || first[i].Line != second[i].Line {
			t.Errorf("token %d differs after reset: %v vs %v", i, first[i], second[i])
		}
	}
}

// TestLexerResetNotSeekable tests that Reset fails on plain readers
func TestLexerResetNotSeekable(t *testing.T) {
	lexer := NewLexer(io.MultiReader(strings.NewReader("  0\nEOF\n")))
	if err := lexer.Reset(); err == nil {
		t.Error("expected error for non-seekable source")
	}
}
