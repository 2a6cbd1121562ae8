package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{0, KindString},
		{2, KindString},
		{5, KindHandle},
		{8, KindString},
		{10, KindReal},
		{39, KindReal},
		{40, KindReal},
		{62, KindInt16},
		{70, KindInt16},
		{90, KindInt32},
		{100, KindString},
		{102, KindString},
		{105, KindHandle},
		{160, KindInt64},
		{210, KindReal},
		{280, KindInt16},
		{290, KindBool},
		{310, KindBinary},
		{330, KindHandle},
		{370, KindInt16},
		{390, KindHandle},
		{420, KindInt32},
		{440, KindInt32},
		{480, KindHandle},
		{999, KindString},
		{1000, KindString},
		{1001, KindString},
		{1004, KindBinary},
		{1005, KindHandle},
		{1010, KindReal},
		{1070, KindInt16},
		{1071, KindInt32},
		{5000, KindString},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.code), "group code %d", tt.code)
	}
}

func TestFormatReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{-2.5, "-2.5"},
		{0.1, "0.1"},
		{1e21, "1000000000000000000000.0"},
		{math.Pi, "3.141592653589793"},
		{math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatReal(tt.in))
	}
}

func TestParseValueRoundTrip(t *testing.T) {
	tokens := []Token{
		Str(1, "text"),
		Handle(330, "1F"),
		Real(20, -0.000125),
		Int(70, -3),
		Int(90, 123456),
		Int(160, -9000000000),
		Bool(290, false),
		Binary(310, []byte{0, 1, 2, 254}),
	}

	for _, tok := range tokens {
		got, err := ParseValue(tok.Code, tok.Value())
		assert.NoError(t, err)
		assert.True(t, tok.Equal(got), "%v != %v", tok, got)
	}
}

func TestTokenHelpers(t *testing.T) {
	tok := Str(0, "SECTION")
	assert.True(t, tok.Is(0, "SECTION"))
	assert.False(t, tok.Is(2, "SECTION"))
	assert.Equal(t, "(0, SECTION)", tok.String())

	positioned := Real(10, 2)
	positioned.Line = 7
	positioned.Offset = 99
	assert.Equal(t, Real(10, 2), positioned.Bare())
	assert.True(t, positioned.Equal(Real(10, 2)))

	assert.Equal(t, float64(5), Int(70, 5).AsFloat())
	assert.Equal(t, int64(2), Real(40, 2.9).AsInt())
	assert.Equal(t, int64(1), Bool(290, true).AsInt())

	// Str on a handle code yields a handle token
	assert.Equal(t, KindHandle, Str(5, "A").Kind)
	// Int on a non-integer code falls back to Int32
	assert.Equal(t, KindInt32, Int(1, 4).Kind)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err  error
		kind error
		text string
	}{
		{&FormatError{Line: 3, Msg: "bad"}, ErrFormat, "dxf: format error at line 3: bad"},
		{&FormatError{Offset: 40, Msg: "bad"}, ErrFormat, "dxf: format error at offset 40: bad"},
		{&StructuralError{Section: "ENTITIES", Line: 9, Msg: "missing ENDSEC"}, ErrStructure, "dxf: structural error in ENTITIES at line 9: missing ENDSEC"},
		{&ReferenceError{Handle: "2A", Table: "LAYER", Name: "WALLS", Msg: "not found"}, ErrReference, `dxf: reference error (handle 2A): LAYER "WALLS": not found`},
		{&ConversionError{Handle: "30", Entity: "SPLINE", Target: "R12", Msg: "approximation disabled"}, ErrConversion, "dxf: cannot convert SPLINE (handle 30) to R12: approximation disabled"},
	}

	for _, tt := range tests {
		assert.True(t, errors.Is(tt.err, tt.kind))
		assert.Equal(t, tt.text, tt.err.Error())
		for _, other := range []error{ErrFormat, ErrStructure, ErrReference, ErrConversion} {
			if other != tt.kind {
				assert.False(t, errors.Is(tt.err, other))
			}
		}
	}

	inner := errors.New("boom")
	fe := &FormatError{Line: 1, Msg: "invalid value", Err: inner}
	assert.ErrorIs(t, fe, inner)
}
