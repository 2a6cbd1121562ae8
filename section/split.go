package section

import (
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/dxf/core"
)

// rawSection is one SECTION ... ENDSEC block as read from the stream.
type rawSection struct {
	name   string
	tokens []core.Token // between (2, name) and (0, ENDSEC)
	line   int
	offset int64
}

// splitSections reads the whole stream and checks the top-level grammar:
//
//	(0 SECTION 2 <name> ... 0 ENDSEC)* 0 EOF
//
// A stream that ends without (0, EOF) outside any section is accepted.
func splitSections(tr core.TokenReader) ([]rawSection, error) {
	var sections []rawSection
	var cur *rawSection
	expectName := false

	for {
		tok, err := tr.ReadToken()
		if errors.Is(err, io.EOF) {
			if cur != nil {
				return nil, &core.StructuralError{Section: cur.name, Line: cur.line, Offset: cur.offset, Msg: "unexpected end of file inside section"}
			}
			return sections, nil
		}
		if err != nil {
			return nil, err
		}

		if expectName {
			if tok.Code != 2 || tok.Str == "" {
				return nil, &core.StructuralError{Line: tok.Line, Offset: tok.Offset, Msg: fmt.Sprintf("expected section name, got %s", tok)}
			}
			cur.name = tok.Str
			expectName = false
			continue
		}

		if cur == nil {
			switch {
			case tok.Is(0, "SECTION"):
				cur = &rawSection{line: tok.Line, offset: tok.Offset}
				expectName = true
			case tok.Is(0, "EOF"):
				return sections, nil
			case tok.Is(0, "ENDSEC"):
				return nil, &core.StructuralError{Line: tok.Line, Offset: tok.Offset, Msg: "ENDSEC without SECTION"}
			case tok.Code == 999:
				// Comment
			default:
				return nil, &core.StructuralError{Line: tok.Line, Offset: tok.Offset, Msg: fmt.Sprintf("expected SECTION, got %s", tok)}
			}
			continue
		}

		switch {
		case tok.Is(0, "ENDSEC"):
			sections = append(sections, *cur)
			cur = nil
		case tok.Is(0, "SECTION"):
			return nil, &core.StructuralError{Section: cur.name, Line: tok.Line, Offset: tok.Offset, Msg: "nested SECTION"}
		case tok.Is(0, "EOF"):
			return nil, &core.StructuralError{Section: cur.name, Line: tok.Line, Offset: tok.Offset, Msg: "EOF inside section"}
		case tok.Code == 999:
		default:
			cur.tokens = append(cur.tokens, tok)
		}
	}
}

// splitObjects cuts a token list at every (0, X) token. Each group starts
// with its (0, X) token. Tokens before the first one are returned as lead.
func splitObjects(tokens []core.Token) (lead []core.Token, groups [][]core.Token) {
	for i, tok := range tokens {
		if tok.Code == 0 {
			if groups == nil && i > 0 {
				lead = tokens[:i]
			}
			groups = append(groups, []core.Token{tok})
			continue
		}
		if groups == nil {
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], tok)
	}
	if groups == nil {
		lead = tokens
	}
	return lead, groups
}

func bare(tokens []core.Token) []core.Token {
	if tokens == nil {
		return nil
	}
	out := make([]core.Token, len(tokens))
	for i, t := range tokens {
		out[i] = t.Bare()
	}
	return out
}
