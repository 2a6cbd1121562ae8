package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the value type carried by a token. It is determined by the
// group code alone.
type Kind int

const (
	KindString Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindReal
	KindBool
	KindHandle // Hex reference to another object
	KindBinary // Binary chunk, hex in the text encoding
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindReal:
		return "Real"
	case KindBool:
		return "Bool"
	case KindHandle:
		return "Handle"
	case KindBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// IsInt reports whether the kind is one of the integer kinds.
func (k Kind) IsInt() bool {
	return k == KindInt16 || k == KindInt32 || k == KindInt64
}

// KindOf returns the value kind for a group code. Codes outside the
// documented ranges are treated as strings.
func KindOf(code int) Kind {
	switch {
	case code == 5 || code == 105:
		return KindHandle
	case code >= 0 && code <= 9:
		return KindString
	case code >= 10 && code <= 59:
		return KindReal
	case code >= 60 && code <= 79:
		return KindInt16
	case code >= 90 && code <= 99:
		return KindInt32
	case code >= 100 && code <= 102:
		return KindString
	case code >= 110 && code <= 149:
		return KindReal
	case code >= 160 && code <= 169:
		return KindInt64
	case code >= 170 && code <= 179:
		return KindInt16
	case code >= 210 && code <= 239:
		return KindReal
	case code >= 270 && code <= 289:
		return KindInt16
	case code >= 290 && code <= 299:
		return KindBool
	case code >= 300 && code <= 309:
		return KindString
	case code >= 310 && code <= 319:
		return KindBinary
	case code >= 320 && code <= 369:
		return KindHandle
	case code >= 370 && code <= 389:
		return KindInt16
	case code >= 390 && code <= 399:
		return KindHandle
	case code >= 400 && code <= 409:
		return KindInt16
	case code >= 410 && code <= 419:
		return KindString
	case code >= 420 && code <= 429:
		return KindInt32
	case code >= 430 && code <= 439:
		return KindString
	case code >= 440 && code <= 459:
		return KindInt32
	case code >= 460 && code <= 469:
		return KindReal
	case code >= 470 && code <= 479:
		return KindString
	case code == 480 || code == 481:
		return KindHandle
	case code == 1004:
		return KindBinary
	case code == 1005:
		return KindHandle
	case code >= 1000 && code <= 1009:
		return KindString
	case code >= 1010 && code <= 1059:
		return KindReal
	case code >= 1060 && code <= 1070:
		return KindInt16
	case code == 1071:
		return KindInt32
	default:
		return KindString
	}
}

// Token is a group code paired with its typed value. Exactly one value
// field is meaningful, selected by Kind.
type Token struct {
	Code  int
	Kind  Kind
	Str   string  // KindString, KindHandle
	Int   int64   // KindInt16, KindInt32, KindInt64
	Real  float64 // KindReal
	Bool  bool    // KindBool
	Bytes []byte  // KindBinary

	Line   int   // Line of the group code (text encoding), 0 if unknown
	Offset int64 // Byte offset of the group code
}

// Str creates a string-valued token. Handle codes produce a handle token.
func Str(code int, s string) Token {
	if KindOf(code) == KindHandle {
		return Token{Code: code, Kind: KindHandle, Str: s}
	}
	return Token{Code: code, Kind: KindString, Str: s}
}

// Int creates an integer-valued token of the kind fixed by code.
func Int(code int, v int64) Token {
	kind := KindOf(code)
	if !kind.IsInt() {
		kind = KindInt32
	}
	return Token{Code: code, Kind: kind, Int: v}
}

// Real creates a real-valued token.
func Real(code int, v float64) Token {
	return Token{Code: code, Kind: KindReal, Real: v}
}

// Bool creates a boolean token.
func Bool(code int, v bool) Token {
	return Token{Code: code, Kind: KindBool, Bool: v}
}

// Handle creates a handle reference token from its hex form.
func Handle(code int, hex string) Token {
	return Token{Code: code, Kind: KindHandle, Str: hex}
}

// Binary creates a binary chunk token.
func Binary(code int, data []byte) Token {
	return Token{Code: code, Kind: KindBinary, Bytes: data}
}

// Is reports whether the token has the given code and string value.
// This is the common test for structure markers like (0, "SECTION").
func (t Token) Is(code int, value string) bool {
	return t.Code == code && (t.Kind == KindString || t.Kind == KindHandle) && t.Str == value
}

// Bare returns a copy of the token without position information.
func (t Token) Bare() Token {
	t.Line = 0
	t.Offset = 0
	return t
}

// Equal compares code and value, ignoring position.
func (t Token) Equal(o Token) bool {
	if t.Code != o.Code || t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindString, KindHandle:
		return t.Str == o.Str
	case KindReal:
		return t.Real == o.Real
	case KindBool:
		return t.Bool == o.Bool
	case KindBinary:
		return bytes.Equal(t.Bytes, o.Bytes)
	default:
		return t.Int == o.Int
	}
}

// AsFloat returns the numeric value of a real or integer token.
func (t Token) AsFloat() float64 {
	if t.Kind == KindReal {
		return t.Real
	}
	if t.Kind == KindBool {
		if t.Bool {
			return 1
		}
		return 0
	}
	return float64(t.Int)
}

// AsInt returns the integer value of an integer, bool or real token.
func (t Token) AsInt() int64 {
	switch t.Kind {
	case KindReal:
		return int64(t.Real)
	case KindBool:
		if t.Bool {
			return 1
		}
		return 0
	}
	return t.Int
}

// Value formats the value the way it appears on the value line of the
// text encoding.
func (t Token) Value() string {
	switch t.Kind {
	case KindString, KindHandle:
		return t.Str
	case KindReal:
		return FormatReal(t.Real)
	case KindBool:
		if t.Bool {
			return "1"
		}
		return "0"
	case KindBinary:
		return strings.ToUpper(fmt.Sprintf("%x", t.Bytes))
	default:
		return strconv.FormatInt(t.Int, 10)
	}
}

// String returns a debugging representation, e.g. "(10, 1.5)".
func (t Token) String() string {
	return fmt.Sprintf("(%d, %s)", t.Code, t.Value())
}

// FormatReal renders a real as the shortest decimal that parses back to the
// same float64. Integral values keep a ".0" suffix so reals stay
// distinguishable from integers when read by people.
func FormatReal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsAny(s, ".NI") {
		return s
	}
	return s + ".0"
}

// ParseValue converts the raw text of a value line into a token of the kind
// fixed by code.
func ParseValue(code int, raw string) (Token, error) {
	kind := KindOf(code)
	tok := Token{Code: code, Kind: kind}
	switch kind {
	case KindString:
		tok.Str = raw
	case KindHandle:
		tok.Str = strings.TrimSpace(raw)
	case KindReal:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Token{}, fmt.Errorf("invalid real %q for group code %d", raw, code)
		}
		tok.Real = v
	case KindBool:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 16)
		if err != nil {
			return Token{}, fmt.Errorf("invalid bool %q for group code %d", raw, code)
		}
		tok.Bool = v != 0
	case KindBinary:
		data, err := HexDecode([]byte(strings.TrimSpace(raw)))
		if err != nil {
			return Token{}, fmt.Errorf("invalid binary chunk for group code %d: %w", code, err)
		}
		tok.Bytes = data
	default:
		bits := 16
		switch kind {
		case KindInt32:
			bits = 32
		case KindInt64:
			bits = 64
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, bits)
		if err != nil {
			return Token{}, fmt.Errorf("invalid %s %q for group code %d", kind, raw, code)
		}
		tok.Int = v
	}
	return tok, nil
}

// HexDecode decodes the hex text of a binary chunk. Whitespace is ignored.
// An odd number of digits is an error: chunks always hold whole bytes.
func HexDecode(data []byte) ([]byte, error) {
	var result bytes.Buffer
	var pending byte
	half := false

	for _, c := range data {
		if c == ' ' || c == '\t' {
			continue
		}
		v, err := hexDigitToByte(c)
		if err != nil {
			return nil, err
		}
		if !half {
			pending = v << 4
			half = true
			continue
		}
		result.WriteByte(pending | v)
		half = false
	}
	if half {
		return nil, fmt.Errorf("odd number of hex digits")
	}
	return result.Bytes(), nil
}

func hexDigitToByte(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit: %c", c)
	}
}
