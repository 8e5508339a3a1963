// Package docx binds the OOXML word-processing format to the render
// document tree using github.com/fumiama/go-docx.
package docx

import (
	"bytes"

	godocx "github.com/fumiama/go-docx"
	"github.com/rotisserie/eris"

	"github.com/amz-risk/docflow-cli/internal/render"
)

// Open parses docx bytes into a mutable render.Document.
func Open(data []byte) (render.Document, error) {
	inner, err := godocx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "docx: parse")
	}
	return &document{inner: inner}, nil
}

type document struct {
	inner *godocx.Docx
}

func (d *document) Body() render.Part {
	return itemsPart{items: d.inner.Document.Body.Items}
}

// Headers and Footers are not exposed by the format library; documents are
// rendered body-and-tables only.
func (d *document) Headers() []render.Part { return nil }

func (d *document) Footers() []render.Part { return nil }

func (d *document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.inner.WriteTo(&buf); err != nil {
		return nil, eris.Wrap(err, "docx: serialize")
	}
	return buf.Bytes(), nil
}

// itemsPart adapts a list of body or cell items (paragraphs and tables).
type itemsPart struct {
	items []any
}

func (p itemsPart) Paragraphs() []render.Paragraph {
	var out []render.Paragraph
	for _, it := range p.items {
		if para, ok := it.(*godocx.Paragraph); ok {
			out = append(out, paragraph{p: para})
		}
	}
	return out
}

func (p itemsPart) Tables() []render.Table {
	var out []render.Table
	for _, it := range p.items {
		if tbl, ok := it.(*godocx.Table); ok {
			out = append(out, table{t: tbl})
		}
	}
	return out
}

type paragraph struct {
	p *godocx.Paragraph
}

// texts collects the text nodes of the paragraph's runs in document order.
func (w paragraph) texts() []*godocx.Text {
	var out []*godocx.Text
	for _, child := range w.p.Children {
		run, ok := child.(*godocx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if txt, ok := rc.(*godocx.Text); ok {
				out = append(out, txt)
			}
		}
	}
	return out
}

func (w paragraph) Fragments() []string {
	ts := w.texts()
	frags := make([]string, len(ts))
	for i, t := range ts {
		frags[i] = t.Text
	}
	return frags
}

func (w paragraph) SetFragment(i int, text string) {
	ts := w.texts()
	if i >= 0 && i < len(ts) {
		ts[i].Text = text
	}
}

type table struct {
	t *godocx.Table
}

func (w table) Rows() []render.Row {
	out := make([]render.Row, len(w.t.TableRows))
	for i, r := range w.t.TableRows {
		out[i] = row{r: r}
	}
	return out
}

type row struct {
	r *godocx.WTableRow
}

func (w row) Cells() []render.Cell {
	out := make([]render.Cell, len(w.r.TableCells))
	for i, c := range w.r.TableCells {
		out[i] = cell{c: c}
	}
	return out
}

type cell struct {
	c *godocx.WTableCell
}

func (w cell) Paragraphs() []render.Paragraph {
	out := make([]render.Paragraph, len(w.c.Paragraphs))
	for i, p := range w.c.Paragraphs {
		out[i] = paragraph{p: p}
	}
	return out
}

// Tables: the format library flattens cell content to paragraphs.
func (w cell) Tables() []render.Table { return nil }
