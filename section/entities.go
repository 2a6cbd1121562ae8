package section

import (
	"fmt"
	"strings"

	"github.com/tsawler/dxf/core"
	"github.com/tsawler/dxf/model"
)

// parseEntities decodes entity groups. A POLYLINE group absorbs the VERTEX
// groups and the SEQEND group that follow it.
func (p *parser) parseEntities(section string, groups [][]core.Token) ([]model.Entity, error) {
	var out []model.Entity
	for i := 0; i < len(groups); i++ {
		e, err := p.decodeEntity(section, groups[i])
		if err != nil {
			return nil, err
		}
		if pl, ok := e.(*model.Polyline); ok {
			for i+1 < len(groups) && groups[i+1][0].Is(0, "VERTEX") {
				i++
				v, err := decodeVertex(groups[i])
				if err != nil {
					return nil, err
				}
				pl.Vertices = append(pl.Vertices, v)
			}
			if i+1 < len(groups) && groups[i+1][0].Is(0, "SEQEND") {
				i++
				for _, tok := range groups[i][1:] {
					if tok.Code == 5 {
						if pl.SeqEnd, err = parseHandle(tok); err != nil {
							return nil, err
						}
					}
				}
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeCommon walks the tokens of an entity. Shared properties are
// stored in common, kind specific codes are offered to field, and the
// rest is kept in common.Extra in file order.
func (p *parser) decodeCommon(g []core.Token, common *model.EntityCommon, field func(core.Token) bool) error {
	var layerName, ltName string
	owner, subclass := false, false

	for i := 1; i < len(g); i++ {
		tok := g[i]
		switch {
		case tok.Code == 5:
			h, err := parseHandle(tok)
			if err != nil {
				return err
			}
			common.Handle = h
			continue
		case tok.Code == 102 && strings.HasPrefix(tok.Str, "{"):
			group := []core.Token{tok.Bare()}
			for i+1 < len(g) {
				i++
				group = append(group, g[i].Bare())
				if g[i].Is(102, "}") {
					break
				}
			}
			common.AppData = append(common.AppData, group)
			continue
		case tok.Code == 100:
			subclass = true
			continue
		case tok.Code == 330 && !owner && !subclass:
			owner = true
			h, err := parseHandle(tok)
			if err != nil {
				return err
			}
			common.Owner = h
			continue
		case tok.Code == 8:
			layerName = tok.Str
			continue
		case tok.Code == 6:
			ltName = tok.Str
			continue
		case tok.Code == 62:
			common.Color = model.ColorFromACI(int(tok.AsInt()))
			continue
		case tok.Code == 370:
			common.LineWeight = int16(tok.AsInt())
			common.HasLineWeight = true
			continue
		case tok.Code == 420:
			common.TrueColor = int32(tok.AsInt())
			common.HasTrueColor = true
			continue
		}
		if tok.Code < 1000 && field(tok) {
			continue
		}
		common.Extra = append(common.Extra, tok.Bare())
	}

	var err error
	if common.Layer, err = p.doc.LayerHandle(layerName); err != nil {
		return err
	}
	if common.LineType, err = p.doc.LineTypeHandle(ltName); err != nil {
		return err
	}
	return nil
}

func (p *parser) decodeEntity(section string, g []core.Token) (model.Entity, error) {
	typ := g[0].Str
	e, err := p.decodeKind(typ, g)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s entity in %s: %w", typ, section, err)
	}
	return e, nil
}

func (p *parser) decodeKind(typ string, g []core.Token) (model.Entity, error) {
	switch model.ParseEntityKind(typ) {
	case model.KindLine:
		e := &model.Line{}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			return setCoord(&e.Start, tok, 10) || setCoord(&e.End, tok, 11)
		})
		return e, err

	case model.KindPoint:
		e := &model.Point{}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			return setCoord(&e.Location, tok, 10)
		})
		return e, err

	case model.KindCircle:
		e := &model.Circle{}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			if tok.Code == 40 {
				e.Radius = tok.AsFloat()
				return true
			}
			return setCoord(&e.Center, tok, 10)
		})
		return e, err

	case model.KindArc:
		e := &model.Arc{}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 40:
				e.Radius = tok.AsFloat()
			case 50:
				e.StartAngle = tok.AsFloat()
			case 51:
				e.EndAngle = tok.AsFloat()
			default:
				return setCoord(&e.Center, tok, 10)
			}
			return true
		})
		return e, err

	case model.KindEllipse:
		e := &model.Ellipse{}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 40:
				e.Ratio = tok.AsFloat()
			case 41:
				e.StartParam = tok.AsFloat()
			case 42:
				e.EndParam = tok.AsFloat()
			default:
				return setCoord(&e.Center, tok, 10) || setCoord(&e.MajorAxis, tok, 11)
			}
			return true
		})
		return e, err

	case model.KindText:
		e := &model.Text{}
		var style string
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 1:
				e.Value = tok.Str
			case 7:
				style = tok.Str
			case 40:
				e.Height = tok.AsFloat()
			case 50:
				e.Rotation = tok.AsFloat()
			case 72:
				e.HAlign = int(tok.AsInt())
			case 73:
				e.VAlign = int(tok.AsInt())
			default:
				if setCoord(&e.Alignment, tok, 11) {
					e.HasAlignment = true
					return true
				}
				return setCoord(&e.Insertion, tok, 10)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		e.Style, err = p.doc.StyleHandle(style)
		return e, err

	case model.KindMText:
		e := &model.MText{}
		var style, tail string
		var chunks []string
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 1:
				tail = tok.Str
			case 3:
				chunks = append(chunks, tok.Str)
			case 7:
				style = tok.Str
			case 40:
				e.Height = tok.AsFloat()
			case 41:
				e.Width = tok.AsFloat()
			case 50:
				e.Rotation = tok.AsFloat()
			case 71:
				e.Attachment = int(tok.AsInt())
			default:
				return setCoord(&e.Insertion, tok, 10)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		e.Value = strings.Join(chunks, "") + tail
		e.Style, err = p.doc.StyleHandle(style)
		return e, err

	case model.KindPolyline:
		e := &model.Polyline{}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 66, 10, 20:
				// Vertices-follow flag and the dummy point.
			case 30:
				e.Elevation = tok.AsFloat()
			case 70:
				e.Flags = int(tok.AsInt())
			default:
				return false
			}
			return true
		})
		return e, err

	case model.KindLWPolyline:
		e := &model.LWPolyline{}
		last := func() *model.LWVertex {
			if len(e.Vertices) == 0 {
				return nil
			}
			return &e.Vertices[len(e.Vertices)-1]
		}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 90, 91:
				// Vertex count and vertex ids are derived.
			case 70:
				e.Flags = int(tok.AsInt())
			case 43:
				e.Width = tok.AsFloat()
			case 38:
				e.Elevation = tok.AsFloat()
			case 10:
				e.Vertices = append(e.Vertices, model.LWVertex{X: tok.AsFloat()})
			case 20, 40, 41, 42:
				v := last()
				if v == nil {
					return false
				}
				switch tok.Code {
				case 20:
					v.Y = tok.AsFloat()
				case 40:
					v.StartWidth = tok.AsFloat()
				case 41:
					v.EndWidth = tok.AsFloat()
				case 42:
					v.Bulge = tok.AsFloat()
				}
			default:
				return false
			}
			return true
		})
		return e, err

	case model.KindSpline:
		e := &model.Spline{}
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 70:
				e.Flags = int(tok.AsInt())
			case 71:
				e.Degree = int(tok.AsInt())
			case 72, 73, 74:
				// Counts are derived from the lists.
			case 40:
				e.Knots = append(e.Knots, tok.AsFloat())
			case 41:
				e.Weights = append(e.Weights, tok.AsFloat())
			case 10:
				e.Control = append(e.Control, model.Vec3{X: tok.AsFloat()})
			case 20, 30:
				if len(e.Control) == 0 {
					return false
				}
				setCoord(&e.Control[len(e.Control)-1], tok, 10)
			case 11:
				e.FitPoints = append(e.FitPoints, model.Vec3{X: tok.AsFloat()})
			case 21, 31:
				if len(e.FitPoints) == 0 {
					return false
				}
				setCoord(&e.FitPoints[len(e.FitPoints)-1], tok, 11)
			default:
				return false
			}
			return true
		})
		return e, err

	case model.KindInsert:
		e := &model.Insert{Scale: model.Vec3{X: 1, Y: 1, Z: 1}}
		var name string
		err := p.decodeCommon(g, &e.EntityCommon, func(tok core.Token) bool {
			switch tok.Code {
			case 2:
				name = tok.Str
			case 41:
				e.Scale.X = tok.AsFloat()
			case 42:
				e.Scale.Y = tok.AsFloat()
			case 43:
				e.Scale.Z = tok.AsFloat()
			case 50:
				e.Rotation = tok.AsFloat()
			default:
				return setCoord(&e.Insertion, tok, 10)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		e.Block, err = p.doc.BlockHandle(name)
		return e, err
	}

	e := &model.Unknown{Type: typ, Tokens: bare(g[1:])}
	for _, tok := range g[1:] {
		if tok.Code == 5 {
			h, err := parseHandle(tok)
			if err != nil {
				return nil, err
			}
			e.Handle = h
			break
		}
	}
	return e, nil
}

// decodeVertex reads one VERTEX of a POLYLINE. Layer, owner and subclass
// codes repeat the polyline's and are dropped.
func decodeVertex(g []core.Token) (model.Vertex, error) {
	var v model.Vertex
	for _, tok := range g[1:] {
		switch tok.Code {
		case 5:
			h, err := parseHandle(tok)
			if err != nil {
				return v, err
			}
			v.Handle = h
		case 8, 100, 330:
		case 42:
			v.Bulge = tok.AsFloat()
		case 70:
			v.Flags = int(tok.AsInt())
		default:
			if !setCoord(&v.Location, tok, 10) {
				v.Extra = append(v.Extra, tok.Bare())
			}
		}
	}
	return v, nil
}
