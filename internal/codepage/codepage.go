// Package codepage converts DXF strings between the drawing's code page
// and UTF-8.
//
// Files older than R2007 store text in the code page named by the
// $DWGCODEPAGE header variable; characters outside it are written as
// \U+XXXX escapes. Newer files are UTF-8 but may still contain escapes.
package codepage

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Default is the code page assumed when $DWGCODEPAGE is missing.
const Default = "ANSI_1252"

var encodings = map[string]encoding.Encoding{
	"ANSI_874":  charmap.Windows874,
	"ANSI_932":  japanese.ShiftJIS,
	"ANSI_936":  simplifiedchinese.GBK,
	"ANSI_949":  korean.EUCKR,
	"ANSI_950":  traditionalchinese.Big5,
	"ANSI_1250": charmap.Windows1250,
	"ANSI_1251": charmap.Windows1251,
	"ANSI_1252": charmap.Windows1252,
	"ANSI_1253": charmap.Windows1253,
	"ANSI_1254": charmap.Windows1254,
	"ANSI_1255": charmap.Windows1255,
	"ANSI_1256": charmap.Windows1256,
	"ANSI_1257": charmap.Windows1257,
	"ANSI_1258": charmap.Windows1258,
	"DOS437":    charmap.CodePage437,
	"DOS850":    charmap.CodePage850,
	"DOS852":    charmap.CodePage852,
	"DOS855":    charmap.CodePage855,
	"DOS860":    charmap.CodePage860,
	"DOS863":    charmap.CodePage863,
	"DOS865":    charmap.CodePage865,
	"DOS866":    charmap.CodePage866,
	"DOS932":    japanese.ShiftJIS,
	"ISO8859_1": charmap.ISO8859_1,
	"ISO8859_2": charmap.ISO8859_2,
	"ISO8859_3": charmap.ISO8859_3,
	"ISO8859_4": charmap.ISO8859_4,
	"ISO8859_5": charmap.ISO8859_5,
	"ISO8859_6": charmap.ISO8859_6,
	"ISO8859_7": charmap.ISO8859_7,
	"ISO8859_8": charmap.ISO8859_8,
	"ISO8859_9": charmap.ISO8859_9,
	"UTF8":      unicode.UTF8,
	"UTF-8":     unicode.UTF8,
}

// Codec converts strings of one code page.
type Codec struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

// UTF8 returns the codec used by R2007 and later.
func UTF8() *Codec {
	return &Codec{name: "UTF-8"}
}

// Lookup returns the codec for a $DWGCODEPAGE value. Names are matched
// case-insensitively; an empty name selects Default.
func Lookup(name string) (*Codec, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}
	enc, ok := encodings[key]
	if !ok {
		return nil, fmt.Errorf("unsupported code page %q", name)
	}
	if enc == unicode.UTF8 {
		return UTF8(), nil
	}
	return &Codec{name: key, enc: enc}, nil
}

// Name returns the code page name.
func (c *Codec) Name() string { return c.name }

// Decode converts a raw file string to UTF-8 and expands \U+XXXX escapes.
func (c *Codec) Decode(raw string) (string, error) {
	s := raw
	if c.enc != nil && !isASCII(raw) {
		var err error
		s, err = c.enc.NewDecoder().String(raw)
		if err != nil {
			return "", fmt.Errorf("failed to decode %s text: %w", c.name, err)
		}
	} else if c.enc == nil && !utf8.ValidString(raw) {
		s = strings.ToValidUTF8(raw, string(utf8.RuneError))
	}
	return Unescape(s), nil
}

// Encode converts a UTF-8 string to the code page. Characters the code
// page cannot represent are written as \U+XXXX escapes.
func (c *Codec) Encode(s string) string {
	if c.enc == nil || isASCII(s) {
		return s
	}
	enc := c.enc.NewEncoder()
	if out, err := enc.String(s); err == nil {
		return out
	}
	var b strings.Builder
	for _, r := range s {
		out, err := enc.String(string(r))
		if err != nil {
			fmt.Fprintf(&b, `\U+%04X`, r)
			continue
		}
		b.WriteString(out)
	}
	return b.String()
}

// Unescape expands \U+XXXX sequences. Malformed sequences are left as is.
func Unescape(s string) string {
	if !strings.Contains(s, `\U+`) && !strings.Contains(s, `\u+`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if i+7 <= len(s) && s[i] == '\\' && (s[i+1] == 'U' || s[i+1] == 'u') && s[i+2] == '+' {
			if v, err := strconv.ParseUint(s[i+3:i+7], 16, 32); err == nil {
				b.WriteRune(rune(v))
				i += 7
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
