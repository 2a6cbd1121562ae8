// Package report produces an HTML inventory of a drawing: version and
// extents, entity counts per type, the layer and block tables, data kept
// verbatim, and an inline SVG preview of model space.
//
// The page is assembled as an x/net/html node tree and rendered in one
// pass, so every name from the drawing is escaped by the renderer.
//
//	f, _ := os.Create("plan.html")
//	defer f.Close()
//	err := report.Write(f, doc, report.Options{Title: "plan.dxf"})
package report

import (
	"sort"

	"github.com/tsawler/dxf/format"
	"github.com/tsawler/dxf/geom"
	"github.com/tsawler/dxf/model"
)

// LayerRow describes one layer.
type LayerRow struct {
	Name     string
	Color    int
	LineType string
	Off      bool
	Frozen   bool
	Entities int
}

// BlockRow describes one block definition.
type BlockRow struct {
	Name     string
	Entities int
	Inserts  int
}

// KindCount is the number of model space entities of one type.
type KindCount struct {
	Type  string
	Count int
}

// Summary is the inventory shown in a report.
type Summary struct {
	Version   format.Version
	Entities  int // Model space entities
	Counts    []KindCount
	Layers    []LayerRow
	Blocks    []BlockRow
	Extents   geom.BBox
	Sections  []string // Sections kept verbatim
	Tables    []string // Tables kept verbatim
	Thumbnail bool
}

// Summarize collects the inventory of doc. Layout blocks are left out of
// the block list.
func Summarize(doc *model.Document) Summary {
	s := Summary{
		Version:   doc.Version,
		Entities:  doc.EntityCount(),
		Extents:   geom.Extents(doc.EntityTable),
		Thumbnail: len(doc.Thumbnail) > 0,
	}

	counts := make(map[string]int)
	for e := range doc.Entities() {
		counts[model.TypeName(e)]++
	}
	for typ, n := range counts {
		s.Counts = append(s.Counts, KindCount{Type: typ, Count: n})
	}
	sort.Slice(s.Counts, func(i, j int) bool { return s.Counts[i].Type < s.Counts[j].Type })

	perLayer := make(map[model.Handle]int)
	inserts := make(map[model.Handle]int)
	for _, e := range doc.AllEntities() {
		if _, ok := e.(*model.Unknown); ok {
			continue
		}
		perLayer[e.Base().Layer]++
		if ins, ok := e.(*model.Insert); ok {
			inserts[ins.Block]++
		}
	}

	for _, l := range doc.Layers.All() {
		lt, _ := doc.NameOf(l.LineType)
		s.Layers = append(s.Layers, LayerRow{
			Name:     l.Name,
			Color:    l.Color.ACI(),
			LineType: lt,
			Off:      l.Off,
			Frozen:   l.Frozen(),
			Entities: perLayer[l.Handle],
		})
	}
	for _, b := range doc.Blocks.All() {
		if b.IsLayout() {
			continue
		}
		s.Blocks = append(s.Blocks, BlockRow{Name: b.Name, Entities: len(b.Entities), Inserts: inserts[b.Handle]})
	}
	for _, sec := range doc.Sections {
		s.Sections = append(s.Sections, sec.Name)
	}
	for _, t := range doc.Tables {
		s.Tables = append(s.Tables, t.Name)
	}
	return s
}
