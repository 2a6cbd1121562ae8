package model

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/tsawler/dxf/core"
)

// EntityTable is the in-memory store of a drawing: symbol table records,
// block definitions and model space entities, all keyed by handle.
//
// Cross references are handles, never pointers. Every reference is checked
// when an object is inserted, according to the table's Options.
type EntityTable struct {
	opts    Options
	objects map[Handle]Object
	seed    Handle

	Layers    *RecordTable[*Layer]
	LineTypes *RecordTable[*LineType]
	Styles    *RecordTable[*TextStyle]
	Blocks    *RecordTable[*Block]

	entities []Entity
}

// NewEntityTable creates an empty table.
func NewEntityTable(opts Options) *EntityTable {
	return &EntityTable{
		opts:      opts,
		objects:   make(map[Handle]Object),
		seed:      1,
		Layers:    newRecordTable[*Layer](LayerRecord),
		LineTypes: newRecordTable[*LineType](LineTypeRecord),
		Styles:    newRecordTable[*TextStyle](StyleRecord),
		Blocks:    newRecordTable[*Block](BlockRecord),
	}
}

// Options returns the integrity options.
func (t *EntityTable) Options() Options { return t.opts }

// SetOptions replaces the integrity options. Existing objects are not
// re-checked.
func (t *EntityTable) SetOptions(opts Options) { t.opts = opts }

// Seed returns the next handle that will be allocated ($HANDSEED).
func (t *EntityTable) Seed() Handle { return t.seed }

// AdvanceSeed makes sure no handle below h is allocated in the future.
func (t *EntityTable) AdvanceSeed(h Handle) {
	if h > t.seed {
		t.seed = h
	}
}

// NewHandle allocates an unused handle.
func (t *EntityTable) NewHandle() Handle {
	for {
		h := t.seed
		t.seed++
		if _, taken := t.objects[h]; !taken {
			return h
		}
	}
}

// claim registers obj under each of the given handles, allocating zero
// ones. Nothing is registered if any non-zero handle is already taken.
func (t *EntityTable) claim(obj Object, handles ...*Handle) error {
	seen := make(map[Handle]bool, len(handles))
	for _, h := range handles {
		if *h == 0 {
			continue
		}
		if _, taken := t.objects[*h]; taken || seen[*h] {
			return &core.ReferenceError{Handle: h.String(), Msg: "duplicate handle"}
		}
		seen[*h] = true
	}
	for _, h := range handles {
		if *h == 0 {
			*h = t.NewHandle()
		}
		t.objects[*h] = obj
		if *h >= t.seed {
			t.seed = *h + 1
		}
	}
	return nil
}

func (t *EntityTable) release(handles ...Handle) {
	for _, h := range handles {
		delete(t.objects, h)
	}
}

// Resolve returns the object registered under h. Vertex and SEQEND handles
// resolve to their polyline; BLOCK and ENDBLK handles to their block.
func (t *EntityTable) Resolve(h Handle) (Object, error) {
	obj, ok := t.objects[h]
	if !ok {
		return nil, &core.ReferenceError{Handle: h.String(), Msg: "handle does not resolve"}
	}
	return obj, nil
}

// NameOf returns the record name for a record handle.
func (t *EntityTable) NameOf(h Handle) (string, bool) {
	if r, ok := t.objects[h].(Record); ok {
		return r.RecordName(), true
	}
	return "", false
}

// ============================================================================
// Records
// ============================================================================

func (t *EntityTable) checkName(kind RecordKind, name string, exists bool) error {
	if strings.TrimSpace(name) == "" {
		return &core.ReferenceError{Table: kind.TableName(), Msg: "record name is empty"}
	}
	if exists {
		return &core.ReferenceError{Table: kind.TableName(), Name: name, Msg: "duplicate record name"}
	}
	return nil
}

// AddLineType adds an LTYPE record.
func (t *EntityTable) AddLineType(lt *LineType) error {
	if err := t.checkName(LineTypeRecord, lt.Name, t.LineTypes.Has(lt.Name)); err != nil {
		return err
	}
	if err := t.claim(lt, &lt.Handle); err != nil {
		return err
	}
	t.LineTypes.add(lt)
	return nil
}

// AddLayer adds a LAYER record. A zero linetype means CONTINUOUS and a
// zero color means 7.
func (t *EntityTable) AddLayer(l *Layer) error {
	if err := t.checkName(LayerRecord, l.Name, t.Layers.Has(l.Name)); err != nil {
		return err
	}
	if l.Color == ColorByLayer || l.Color == ColorByBlock {
		l.Color = 7
	}
	if l.LineType == 0 {
		h, err := t.continuous()
		if err != nil {
			return err
		}
		l.LineType = h
	} else if _, ok := t.objects[l.LineType].(*LineType); !ok {
		if t.opts.References == Strict {
			return &core.ReferenceError{Handle: l.LineType.String(), Table: "LTYPE", Name: l.Name, Msg: "layer linetype does not resolve"}
		}
		h, err := t.continuous()
		if err != nil {
			return err
		}
		l.LineType = h
	}
	if err := t.claim(l, &l.Handle); err != nil {
		return err
	}
	t.Layers.add(l)
	return nil
}

// AddStyle adds a STYLE record. A zero width factor is stored as 1.
func (t *EntityTable) AddStyle(s *TextStyle) error {
	if err := t.checkName(StyleRecord, s.RecordName(), t.Styles.Has(s.RecordName())); err != nil {
		return err
	}
	if s.WidthFactor == 0 {
		s.WidthFactor = 1
	}
	if err := t.claim(s, &s.Handle); err != nil {
		return err
	}
	t.Styles.add(s)
	return nil
}

// AddBlock adds a block definition. Entities already attached to b are
// inserted into it in order; insertion stops at the first failing entity.
func (t *EntityTable) AddBlock(b *Block) error {
	if err := t.checkName(BlockRecord, b.Name, t.Blocks.Has(b.Name)); err != nil {
		return err
	}
	if b.Layer == 0 {
		h, err := t.defaultLayer()
		if err != nil {
			return err
		}
		b.Layer = h
	} else if _, ok := t.objects[b.Layer].(*Layer); !ok {
		if t.opts.References == Strict {
			return &core.ReferenceError{Handle: b.Layer.String(), Table: "LAYER", Name: b.Name, Msg: "block layer does not resolve"}
		}
		h, err := t.defaultLayer()
		if err != nil {
			return err
		}
		b.Layer = h
	}
	if err := t.claim(b, &b.Handle, &b.BeginHandle, &b.EndHandle); err != nil {
		return err
	}
	pending := b.Entities
	b.Entities = nil
	t.Blocks.add(b)
	for _, e := range pending {
		if err := t.insert(b, e); err != nil {
			return err
		}
	}
	return nil
}

func (t *EntityTable) defaultLayer() (Handle, error) {
	if l, ok := t.Layers.Get(DefaultLayer); ok {
		return l.Handle, nil
	}
	l := &Layer{Name: DefaultLayer, Color: 7}
	if err := t.AddLayer(l); err != nil {
		return 0, err
	}
	return l.Handle, nil
}

func (t *EntityTable) continuous() (Handle, error) {
	if lt, ok := t.LineTypes.Get(Continuous); ok {
		return lt.Handle, nil
	}
	lt := &LineType{Name: Continuous, Description: "Solid line"}
	if err := t.AddLineType(lt); err != nil {
		return 0, err
	}
	return lt.Handle, nil
}

func (t *EntityTable) defaultStyle() (Handle, error) {
	if s, ok := t.Styles.Get(StandardStyle); ok {
		return s.Handle, nil
	}
	s := &TextStyle{Name: StandardStyle, WidthFactor: 1, Font: "txt"}
	if err := t.AddStyle(s); err != nil {
		return 0, err
	}
	return s.Handle, nil
}

// LayerHandle resolves a layer name, creating the layer under AutoCreate.
// An empty name means the default layer "0".
func (t *EntityTable) LayerHandle(name string) (Handle, error) {
	if name == "" || name == DefaultLayer {
		return t.defaultLayer()
	}
	if l, ok := t.Layers.Get(name); ok {
		return l.Handle, nil
	}
	if t.opts.References == Strict {
		return 0, &core.ReferenceError{Table: "LAYER", Name: name, Msg: "layer not defined"}
	}
	l := &Layer{Name: name, Color: 7}
	if err := t.AddLayer(l); err != nil {
		return 0, err
	}
	return l.Handle, nil
}

// LineTypeHandle resolves a linetype name. An empty name, or BYLAYER
// without a BYLAYER record, resolves to the zero handle.
func (t *EntityTable) LineTypeHandle(name string) (Handle, error) {
	if lt, ok := t.LineTypes.Get(name); ok {
		return lt.Handle, nil
	}
	if name == "" || strings.EqualFold(name, ByLayer) {
		return 0, nil
	}
	if strings.EqualFold(name, Continuous) {
		return t.continuous()
	}
	if t.opts.References == Strict {
		return 0, &core.ReferenceError{Table: "LTYPE", Name: name, Msg: "linetype not defined"}
	}
	lt := &LineType{Name: name}
	if err := t.AddLineType(lt); err != nil {
		return 0, err
	}
	return lt.Handle, nil
}

// StyleHandle resolves a text style name. An empty name means Standard.
func (t *EntityTable) StyleHandle(name string) (Handle, error) {
	if name == "" || strings.EqualFold(name, StandardStyle) {
		return t.defaultStyle()
	}
	if s, ok := t.Styles.Get(name); ok {
		return s.Handle, nil
	}
	if t.opts.References == Strict {
		return 0, &core.ReferenceError{Table: "STYLE", Name: name, Msg: "text style not defined"}
	}
	s := &TextStyle{Name: name, WidthFactor: 1, Font: "txt"}
	if err := t.AddStyle(s); err != nil {
		return 0, err
	}
	return s.Handle, nil
}

// BlockHandle resolves a block name. Under AutoCreate a missing block is
// created empty.
func (t *EntityTable) BlockHandle(name string) (Handle, error) {
	if b, ok := t.Blocks.Get(name); ok {
		return b.Handle, nil
	}
	if name == "" || t.opts.References == Strict {
		return 0, &core.ReferenceError{Table: "BLOCK", Name: name, Msg: "block not defined"}
	}
	b := &Block{Name: name}
	if err := t.AddBlock(b); err != nil {
		return 0, err
	}
	return b.Handle, nil
}

// ModelSpace returns the *Model_Space block, or nil for R12 drawings.
func (t *EntityTable) ModelSpace() *Block {
	b, _ := t.Blocks.Get(ModelSpaceBlock)
	return b
}

// ============================================================================
// Entities
// ============================================================================

// Insert adds an entity to model space. Its handle is allocated when zero
// and its references are checked against the table's policy.
func (t *EntityTable) Insert(e Entity) error {
	return t.insert(nil, e)
}

// InsertInto adds an entity to the named block definition.
func (t *EntityTable) InsertInto(block string, e Entity) error {
	b, ok := t.Blocks.Get(block)
	if !ok {
		return &core.ReferenceError{Table: "BLOCK", Name: block, Msg: "block not defined"}
	}
	return t.insert(b, e)
}

func (t *EntityTable) insert(b *Block, e Entity) error {
	if e == nil {
		return fmt.Errorf("dxf: nil entity")
	}
	if err := t.resolveRefs(e); err != nil {
		return err
	}

	common := e.Base()
	if common.Owner == 0 {
		switch {
		case b != nil && !b.Handle.IsZero():
			common.Owner = b.Handle
		case b == nil:
			if ms := t.ModelSpace(); ms != nil {
				common.Owner = ms.Handle
			}
		}
	}

	handles := []*Handle{&common.Handle}
	if pl, ok := e.(*Polyline); ok {
		for i := range pl.Vertices {
			handles = append(handles, &pl.Vertices[i].Handle)
		}
		handles = append(handles, &pl.SeqEnd)
	}
	if err := t.claim(e, handles...); err != nil {
		return err
	}

	if b != nil {
		b.Entities = append(b.Entities, e)
	} else {
		t.entities = append(t.entities, e)
	}
	return nil
}

func (t *EntityTable) resolveRefs(e Entity) error {
	if _, ok := e.(*Unknown); ok {
		return nil
	}
	common := e.Base()
	where := common.Handle.String()

	if common.Layer == 0 {
		h, err := t.defaultLayer()
		if err != nil {
			return err
		}
		common.Layer = h
	} else if _, ok := t.objects[common.Layer].(*Layer); !ok {
		if t.opts.References == Strict {
			return &core.ReferenceError{Handle: where, Table: "LAYER", Msg: fmt.Sprintf("layer handle %s does not resolve", common.Layer)}
		}
		h, err := t.defaultLayer()
		if err != nil {
			return err
		}
		common.Layer = h
	}

	if common.LineType != 0 {
		if _, ok := t.objects[common.LineType].(*LineType); !ok {
			if t.opts.References == Strict {
				return &core.ReferenceError{Handle: where, Table: "LTYPE", Msg: fmt.Sprintf("linetype handle %s does not resolve", common.LineType)}
			}
			common.LineType = 0
		}
	}

	switch v := e.(type) {
	case *Text:
		return t.resolveStyle(&v.Style, where)
	case *MText:
		return t.resolveStyle(&v.Style, where)
	case *Insert:
		if v.Scale.IsZero() {
			v.Scale = Vec3{1, 1, 1}
		}
		if _, ok := t.objects[v.Block].(*Block); !ok {
			return &core.ReferenceError{Handle: where, Table: "BLOCK", Msg: fmt.Sprintf("block handle %s does not resolve", v.Block)}
		}
	}
	return nil
}

func (t *EntityTable) resolveStyle(style *Handle, where string) error {
	if *style != 0 {
		if _, ok := t.objects[*style].(*TextStyle); ok {
			return nil
		}
		if t.opts.References == Strict {
			return &core.ReferenceError{Handle: where, Table: "STYLE", Msg: fmt.Sprintf("style handle %s does not resolve", *style)}
		}
	}
	h, err := t.defaultStyle()
	if err != nil {
		return err
	}
	*style = h
	return nil
}

// Entities returns the model space entities in drawing order.
func (t *EntityTable) Entities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, e := range t.entities {
			if !yield(e) {
				return
			}
		}
	}
}

// AllEntities returns every entity with the block that contains it; model
// space entities come first with a nil block.
func (t *EntityTable) AllEntities() iter.Seq2[*Block, Entity] {
	return func(yield func(*Block, Entity) bool) {
		for _, e := range t.entities {
			if !yield(nil, e) {
				return
			}
		}
		for _, b := range t.Blocks.All() {
			for _, e := range b.Entities {
				if !yield(b, e) {
					return
				}
			}
		}
	}
}

// ForEachEntity calls fn for every entity, model space first, stopping at
// the first error.
func (t *EntityTable) ForEachEntity(fn func(Entity) error) error {
	for _, e := range t.AllEntities() {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// EntityCount returns the number of model space entities.
func (t *EntityTable) EntityCount() int {
	return len(t.entities)
}

// Remove deletes an entity from model space or from the block holding it.
func (t *EntityTable) Remove(h Handle) error {
	e, ok := t.objects[h].(Entity)
	if !ok {
		return &core.ReferenceError{Handle: h.String(), Msg: "no entity with this handle"}
	}
	t.removeEntity(e)
	return nil
}

func (t *EntityTable) removeEntity(e Entity) {
	match := func(x Entity) bool { return x == e }
	t.entities = slices.DeleteFunc(t.entities, match)
	for _, b := range t.Blocks.All() {
		b.Entities = slices.DeleteFunc(b.Entities, match)
	}
	t.release(entityHandles(e)...)
}

func entityHandles(e Entity) []Handle {
	handles := []Handle{e.ObjectHandle()}
	if pl, ok := e.(*Polyline); ok {
		for _, v := range pl.Vertices {
			handles = append(handles, v.Handle)
		}
		handles = append(handles, pl.SeqEnd)
	}
	return handles
}

// ============================================================================
// Record removal
// ============================================================================

func (t *EntityTable) entitiesWhere(match func(Entity) bool) []Entity {
	var out []Entity
	for _, e := range t.AllEntities() {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (t *EntityTable) rejectReferenced(kind RecordKind, name string, count int) error {
	return &core.ReferenceError{
		Table: kind.TableName(),
		Name:  name,
		Msg:   fmt.Sprintf("record is still referenced by %d object(s)", count),
	}
}

// RemoveLayer removes a layer. Under Cascade the entities on the layer are
// removed and blocks defined on it move to layer "0".
func (t *EntityTable) RemoveLayer(name string) error {
	l, ok := t.Layers.Get(name)
	if !ok {
		return &core.ReferenceError{Table: "LAYER", Name: name, Msg: "layer not defined"}
	}
	if l.Name == DefaultLayer {
		return &core.ReferenceError{Table: "LAYER", Name: name, Msg: "the default layer cannot be removed"}
	}

	users := t.entitiesWhere(func(e Entity) bool { return e.Base().Layer == l.Handle })
	var blocks []*Block
	for _, b := range t.Blocks.All() {
		if b.Layer == l.Handle {
			blocks = append(blocks, b)
		}
	}
	if n := len(users) + len(blocks); n > 0 {
		if t.opts.Removal == Reject {
			return t.rejectReferenced(LayerRecord, name, n)
		}
		def, err := t.defaultLayer()
		if err != nil {
			return err
		}
		for _, e := range users {
			t.removeEntity(e)
		}
		for _, b := range blocks {
			b.Layer = def
		}
	}

	t.Layers.remove(name)
	t.release(l.Handle)
	return nil
}

// RemoveLineType removes a linetype. Under Cascade references from
// entities reset to BYLAYER and references from layers to CONTINUOUS.
func (t *EntityTable) RemoveLineType(name string) error {
	lt, ok := t.LineTypes.Get(name)
	if !ok {
		return &core.ReferenceError{Table: "LTYPE", Name: name, Msg: "linetype not defined"}
	}
	if strings.EqualFold(lt.Name, Continuous) {
		return &core.ReferenceError{Table: "LTYPE", Name: name, Msg: "the default linetype cannot be removed"}
	}

	users := t.entitiesWhere(func(e Entity) bool { return e.Base().LineType == lt.Handle })
	var layers []*Layer
	for _, l := range t.Layers.All() {
		if l.LineType == lt.Handle {
			layers = append(layers, l)
		}
	}
	if n := len(users) + len(layers); n > 0 {
		if t.opts.Removal == Reject {
			return t.rejectReferenced(LineTypeRecord, name, n)
		}
		cont, err := t.continuous()
		if err != nil {
			return err
		}
		for _, e := range users {
			e.Base().LineType = 0
		}
		for _, l := range layers {
			l.LineType = cont
		}
	}

	t.LineTypes.remove(name)
	t.release(lt.Handle)
	return nil
}

// RemoveStyle removes a text style. Under Cascade referencing text moves
// to the Standard style.
func (t *EntityTable) RemoveStyle(name string) error {
	s, ok := t.Styles.Get(name)
	if !ok {
		return &core.ReferenceError{Table: "STYLE", Name: name, Msg: "text style not defined"}
	}
	if strings.EqualFold(s.Name, StandardStyle) {
		return &core.ReferenceError{Table: "STYLE", Name: name, Msg: "the default text style cannot be removed"}
	}

	users := t.entitiesWhere(func(e Entity) bool {
		switch v := e.(type) {
		case *Text:
			return v.Style == s.Handle
		case *MText:
			return v.Style == s.Handle
		}
		return false
	})
	if len(users) > 0 {
		if t.opts.Removal == Reject {
			return t.rejectReferenced(StyleRecord, name, len(users))
		}
		def, err := t.defaultStyle()
		if err != nil {
			return err
		}
		for _, e := range users {
			switch v := e.(type) {
			case *Text:
				v.Style = def
			case *MText:
				v.Style = def
			}
		}
	}

	t.Styles.remove(name)
	t.release(s.Handle)
	return nil
}

// RemoveBlock removes a block definition and its entities. Under Cascade
// the inserts referencing it are removed too. Layout blocks cannot be
// removed.
func (t *EntityTable) RemoveBlock(name string) error {
	b, ok := t.Blocks.Get(name)
	if !ok {
		return &core.ReferenceError{Table: "BLOCK", Name: name, Msg: "block not defined"}
	}
	if b.IsLayout() {
		return &core.ReferenceError{Table: "BLOCK", Name: name, Msg: "layout blocks cannot be removed"}
	}

	users := t.entitiesWhere(func(e Entity) bool {
		ins, ok := e.(*Insert)
		return ok && ins.Block == b.Handle
	})
	if len(users) > 0 {
		if t.opts.Removal == Reject {
			return t.rejectReferenced(BlockRecord, name, len(users))
		}
		for _, e := range users {
			t.removeEntity(e)
		}
	}

	for _, e := range b.Entities {
		t.release(entityHandles(e)...)
	}
	t.Blocks.remove(name)
	t.release(b.Handle, b.BeginHandle, b.EndHandle)
	return nil
}

// ============================================================================
// Integrity
// ============================================================================

// Validate checks that every reference resolves. All problems are joined
// into the returned error.
func (t *EntityTable) Validate() error {
	var errs []error
	check := func(where string, h Handle, table string, ok bool) {
		if !ok {
			errs = append(errs, &core.ReferenceError{Handle: where, Table: table, Msg: fmt.Sprintf("handle %s does not resolve", h)})
		}
	}
	isLayer := func(h Handle) bool { _, ok := t.objects[h].(*Layer); return ok }
	isLineType := func(h Handle) bool { _, ok := t.objects[h].(*LineType); return ok }
	isStyle := func(h Handle) bool { _, ok := t.objects[h].(*TextStyle); return ok }
	isBlock := func(h Handle) bool { _, ok := t.objects[h].(*Block); return ok }

	for _, l := range t.Layers.All() {
		check(l.Handle.String(), l.LineType, "LTYPE", isLineType(l.LineType))
	}
	for _, b := range t.Blocks.All() {
		check(b.Handle.String(), b.Layer, "LAYER", isLayer(b.Layer))
	}
	for _, e := range t.AllEntities() {
		if _, ok := e.(*Unknown); ok {
			continue
		}
		c := e.Base()
		where := c.Handle.String()
		check(where, c.Layer, "LAYER", isLayer(c.Layer))
		if c.LineType != 0 {
			check(where, c.LineType, "LTYPE", isLineType(c.LineType))
		}
		switch v := e.(type) {
		case *Text:
			check(where, v.Style, "STYLE", isStyle(v.Style))
		case *MText:
			check(where, v.Style, "STYLE", isStyle(v.Style))
		case *Insert:
			check(where, v.Block, "BLOCK", isBlock(v.Block))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy with identical handles.
func (t *EntityTable) Clone() *EntityTable {
	c := NewEntityTable(t.opts)
	c.seed = t.seed
	for _, lt := range t.LineTypes.All() {
		cl := lt.clone()
		c.LineTypes.add(cl)
		c.objects[cl.Handle] = cl
	}
	for _, l := range t.Layers.All() {
		cl := l.clone()
		c.Layers.add(cl)
		c.objects[cl.Handle] = cl
	}
	for _, s := range t.Styles.All() {
		cs := s.clone()
		c.Styles.add(cs)
		c.objects[cs.Handle] = cs
	}
	for _, b := range t.Blocks.All() {
		cb := b.clone()
		c.Blocks.add(cb)
		c.register(cb, cb.Handle, cb.BeginHandle, cb.EndHandle)
		for _, e := range cb.Entities {
			c.register(e, entityHandles(e)...)
		}
	}
	for _, e := range t.entities {
		ce := e.Clone()
		c.entities = append(c.entities, ce)
		c.register(ce, entityHandles(ce)...)
	}
	return c
}

func (t *EntityTable) register(obj Object, handles ...Handle) {
	for _, h := range handles {
		if h != 0 {
			t.objects[h] = obj
		}
	}
}

// Replace swaps an entity for one or more others in place, keeping its
// position in model space or its block. The replacements' handles must be
// unused or zero; the old entity's handles are released first. Nothing
// changes when an error is returned.
func (t *EntityTable) Replace(old Entity, repls ...Entity) error {
	var list *[]Entity
	if slices.Contains(t.entities, old) {
		list = &t.entities
	} else {
		for _, b := range t.Blocks.All() {
			if slices.Contains(b.Entities, old) {
				list = &b.Entities
				break
			}
		}
	}
	if list == nil {
		return &core.ReferenceError{Handle: old.ObjectHandle().String(), Msg: "entity is not part of this table"}
	}

	oldHandles := entityHandles(old)
	t.release(oldHandles...)
	var claimed []Entity
	undo := func() {
		for _, e := range claimed {
			t.release(entityHandles(e)...)
		}
		t.register(old, oldHandles...)
	}
	for _, repl := range repls {
		if err := t.resolveRefs(repl); err != nil {
			undo()
			return err
		}
		handles := []*Handle{&repl.Base().Handle}
		if pl, ok := repl.(*Polyline); ok {
			for i := range pl.Vertices {
				handles = append(handles, &pl.Vertices[i].Handle)
			}
			handles = append(handles, &pl.SeqEnd)
		}
		if err := t.claim(repl, handles...); err != nil {
			undo()
			return err
		}
		claimed = append(claimed, repl)
	}
	i := slices.Index(*list, old)
	*list = slices.Replace(*list, i, i+1, repls...)
	return nil
}
