package model

import "github.com/tsawler/dxf/core"

// paperSpaceFlag is the entity group marking paper space in files without
// layout blocks.
const paperSpaceFlag = 67

// InPaperSpace reports whether the entity carries the (67, 1) paper space
// flag.
func InPaperSpace(e Entity) bool {
	if u, ok := e.(*Unknown); ok {
		return hasFlag(u.Tokens)
	}
	return hasFlag(e.Base().Extra)
}

func hasFlag(tokens []core.Token) bool {
	for _, t := range tokens {
		if t.Code == paperSpaceFlag {
			return t.AsInt() == 1
		}
	}
	return false
}

// DropLayouts removes the model and paper space blocks, the R12 way of
// storing a drawing. Their entities move to the end of model space; those
// from paper space get the (67, 1) flag. Entity owners are cleared. It
// returns the number of blocks removed.
func (t *EntityTable) DropLayouts() int {
	var layouts []*Block
	for _, b := range t.Blocks.All() {
		if b.IsLayout() {
			layouts = append(layouts, b)
		}
	}
	for _, b := range layouts {
		paper := b.Name != ModelSpaceBlock
		for _, e := range b.Entities {
			if paper && !InPaperSpace(e) {
				if u, ok := e.(*Unknown); ok {
					u.Tokens = append(u.Tokens, core.Int(paperSpaceFlag, 1))
				} else {
					c := e.Base()
					c.Extra = append(c.Extra, core.Int(paperSpaceFlag, 1))
				}
			}
			t.entities = append(t.entities, e)
		}
		b.Entities = nil
		t.Blocks.remove(b.Name)
		t.release(b.Handle, b.BeginHandle, b.EndHandle)
	}
	for _, e := range t.AllEntities() {
		if _, ok := e.(*Unknown); !ok {
			e.Base().Owner = 0
		}
	}
	return len(layouts)
}

// EnsureLayouts creates the *Model_Space and *Paper_Space blocks when they
// are missing and gives every entity without an owner the block record
// that holds it: its block, or the model or paper space layout for top
// level entities.
func (t *EntityTable) EnsureLayouts() error {
	for _, name := range []string{ModelSpaceBlock, PaperSpaceBlock} {
		if t.Blocks.Has(name) {
			continue
		}
		if err := t.AddBlock(&Block{Name: name}); err != nil {
			return err
		}
	}
	ms, _ := t.Blocks.Get(ModelSpaceBlock)
	ps, _ := t.Blocks.Get(PaperSpaceBlock)
	for b, e := range t.AllEntities() {
		if _, ok := e.(*Unknown); ok {
			continue
		}
		c := e.Base()
		if c.Owner != 0 {
			continue
		}
		switch {
		case b != nil:
			c.Owner = b.Handle
		case InPaperSpace(e):
			c.Owner = ps.Handle
		default:
			c.Owner = ms.Handle
		}
	}
	return nil
}
