// Package render fills token-delimited placeholders in a structured document.
//
// The renderer works against an abstract document tree so the concrete file
// format binding (pkg/docx) and test fakes share one substitution algorithm.
package render

// Part is a region of a document that holds paragraphs and tables: the body,
// a header, a footer, or a table cell.
type Part interface {
	Paragraphs() []Paragraph
	Tables() []Table
}

// Paragraph is one logical text block. Authoring tools split a paragraph's
// text into multiple fragments (runs), and a placeholder may straddle a
// fragment boundary, so substitution must operate on the joined text.
type Paragraph interface {
	// Fragments returns the text of each fragment in document order.
	Fragments() []string
	// SetFragment replaces the text of fragment i.
	SetFragment(i int, text string)
}

// Table is a grid of rows; cells nest full parts, to arbitrary depth.
type Table interface {
	Rows() []Row
}

// Row is one table row.
type Row interface {
	Cells() []Cell
}

// Cell is a table cell; it is itself a Part (paragraphs plus nested tables).
type Cell interface {
	Part
}

// Document is an opened, mutable document.
type Document interface {
	Body() Part
	// Headers and Footers return the document's header/footer parts, when
	// the underlying format binding exposes them.
	Headers() []Part
	Footers() []Part
	// Bytes serializes the document back to its file format.
	Bytes() ([]byte, error)
}
