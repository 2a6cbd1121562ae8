package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/dxf/geom"
	"github.com/tsawler/dxf/model"
)

const stylesheet = `body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse;margin-bottom:1.5em}
th,td{border:1px solid #ccc;padding:2px 8px;text-align:left}
svg{border:1px solid #ccc;background:#fff}`

// Options configures a report.
type Options struct {
	Title         string
	PreviewWidth  int // Pixels; zero selects 480
	PreviewHeight int // Pixels; zero selects 360

	// Notes is Markdown shown under its own heading. Raw HTML in it is
	// dropped.
	Notes string
}

// Write renders the report of doc as an HTML page.
func Write(w io.Writer, doc *model.Document, opts Options) error {
	if err := html.Render(w, Build(doc, opts)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Build returns the report of doc as an HTML document node.
func Build(doc *model.Document, opts Options) *html.Node {
	if opts.Title == "" {
		opts.Title = "Drawing report"
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = 480
	}
	if opts.PreviewHeight <= 0 {
		opts.PreviewHeight = 360
	}
	s := Summarize(doc)

	head := appendAll(elem(atom.Head),
		appendAll(elem(atom.Meta, "charset", "utf-8")),
		appendAll(elem(atom.Title), text(opts.Title)),
		appendAll(elem(atom.Style), text(stylesheet)),
	)
	body := appendAll(elem(atom.Body),
		appendAll(elem(atom.H1), text(opts.Title)),
		table("summary", []string{"Property", "Value"}, [][]string{
			{"Version", fmt.Sprintf("%s (%s)", s.Version, s.Version.Label())},
			{"Model space entities", strconv.Itoa(s.Entities)},
			{"Layers", strconv.Itoa(len(s.Layers))},
			{"Blocks", strconv.Itoa(len(s.Blocks))},
			{"Extents", extents(s.Extents)},
			{"Thumbnail", yesNo(s.Thumbnail)},
		}),
		appendAll(elem(atom.H2), text("Preview")),
		SVG(doc.EntityTable, opts.PreviewWidth, opts.PreviewHeight),
		appendAll(elem(atom.H2), text("Entities")),
	)

	rows := make([][]string, 0, len(s.Counts))
	for _, c := range s.Counts {
		rows = append(rows, []string{c.Type, strconv.Itoa(c.Count)})
	}
	appendAll(body, table("entities", []string{"Type", "Count"}, rows))

	rows = rows[:0:0]
	for _, l := range s.Layers {
		var state []string
		if l.Off {
			state = append(state, "off")
		}
		if l.Frozen {
			state = append(state, "frozen")
		}
		if len(state) == 0 {
			state = append(state, "on")
		}
		rows = append(rows, []string{l.Name, strconv.Itoa(l.Color), l.LineType, strings.Join(state, ", "), strconv.Itoa(l.Entities)})
	}
	appendAll(body,
		appendAll(elem(atom.H2), text("Layers")),
		table("layers", []string{"Name", "Color", "Linetype", "State", "Entities"}, rows),
	)

	rows = rows[:0:0]
	for _, b := range s.Blocks {
		rows = append(rows, []string{b.Name, strconv.Itoa(b.Entities), strconv.Itoa(b.Inserts)})
	}
	appendAll(body,
		appendAll(elem(atom.H2), text("Blocks")),
		table("blocks", []string{"Name", "Entities", "Inserts"}, rows),
	)

	if len(s.Sections)+len(s.Tables) > 0 {
		list := elem(atom.Ul, "id", "preserved")
		for _, name := range s.Sections {
			appendAll(list, appendAll(elem(atom.Li), text(name+" section")))
		}
		for _, name := range s.Tables {
			appendAll(list, appendAll(elem(atom.Li), text(name+" table")))
		}
		appendAll(body, appendAll(elem(atom.H2), text("Preserved data")), list)
	}

	if strings.TrimSpace(opts.Notes) != "" {
		appendAll(body, appendAll(elem(atom.H2), text("Notes")), notes(opts.Notes))
	}

	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root.AppendChild(appendAll(elem(atom.Html, "lang", "en"), head, body))
	return root
}

// notes converts Markdown into a div. Text that fails to convert is shown
// preformatted.
func notes(md string) *html.Node {
	div := elem(atom.Div, "id", "notes")
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err == nil {
		if nodes, err := html.ParseFragment(&buf, div); err == nil {
			return appendAll(div, nodes...)
		}
	}
	return appendAll(div, appendAll(elem(atom.Pre), text(md)))
}

// SVG draws model space as an inline SVG element. The view box is in
// drawing units with the Y axis flipped.
func SVG(table *model.EntityTable, width, height int) *html.Node {
	path := geom.NewFlattener(table).ModelSpace()
	box := path.Bounds()

	svg := svgElem(atom.Svg,
		"xmlns", "http://www.w3.org/2000/svg",
		"width", strconv.Itoa(width),
		"height", strconv.Itoa(height),
	)
	if box.IsEmpty() {
		return svg
	}
	box = box.Expand(math.Max(box.Width(), box.Height()) * 0.02)
	svg.Attr = append(svg.Attr, html.Attribute{
		Key: "viewBox",
		Val: strings.Join([]string{num(box.Min.X), num(-box.Max.Y), num(box.Width()), num(box.Height())}, " "),
	})

	var d strings.Builder
	for _, sub := range path.Subpaths() {
		for i, p := range sub {
			if i == 0 {
				d.WriteString("M")
			} else {
				d.WriteString(" L")
			}
			d.WriteString(num(p.X) + " " + num(-p.Y))
		}
		d.WriteString(" ")
	}
	svg.AppendChild(svgElem(atom.Path,
		"d", strings.TrimSpace(d.String()),
		"fill", "none",
		"stroke", "black",
		"stroke-width", "1",
		"vector-effect", "non-scaling-stroke",
	))
	return svg
}

func table(id string, header []string, rows [][]string) *html.Node {
	tr := elem(atom.Tr)
	for _, h := range header {
		appendAll(tr, appendAll(elem(atom.Th), text(h)))
	}
	tbody := elem(atom.Tbody)
	for _, row := range rows {
		r := elem(atom.Tr)
		for _, cell := range row {
			appendAll(r, appendAll(elem(atom.Td), text(cell)))
		}
		appendAll(tbody, r)
	}
	return appendAll(elem(atom.Table, "id", id), appendAll(elem(atom.Thead), tr), tbody)
}

func elem(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func svgElem(a atom.Atom, attrs ...string) *html.Node {
	n := elem(a, attrs...)
	n.Namespace = "svg"
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendAll(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

func extents(b geom.BBox) string {
	if b.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("(%s, %s) - (%s, %s)", num(b.Min.X), num(b.Min.Y), num(b.Max.X), num(b.Max.Y))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// num formats a coordinate with at most four decimals.
func num(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		v = 0 // no negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
