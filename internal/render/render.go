package render

import "strings"

// Apply substitutes every "{token}" occurrence for which fields has a key,
// across the document body, all tables (at any nesting depth), and any
// header/footer parts. Tokens without a matching key are left verbatim.
// Returns the number of paragraphs that were modified.
//
// Apply mutates the document in place and is idempotent on its own output:
// substituted text contains no remaining known tokens.
func Apply(doc Document, fields map[string]string) int {
	changed := applyPart(doc.Body(), fields)
	for _, h := range doc.Headers() {
		changed += applyPart(h, fields)
	}
	for _, f := range doc.Footers() {
		changed += applyPart(f, fields)
	}
	return changed
}

func applyPart(p Part, fields map[string]string) int {
	changed := 0
	for _, para := range p.Paragraphs() {
		if applyParagraph(para, fields) {
			changed++
		}
	}
	for _, tbl := range p.Tables() {
		for _, row := range tbl.Rows() {
			for _, cell := range row.Cells() {
				changed += applyPart(cell, fields)
			}
		}
	}
	return changed
}

// applyParagraph joins the paragraph's fragments, performs literal token
// replacement on the joined text, and on any change writes the result back
// into the first fragment while blanking the rest. The first fragment keeps
// the paragraph's formatting anchor; blanking avoids duplicated text.
func applyParagraph(para Paragraph, fields map[string]string) bool {
	frags := para.Fragments()
	if len(frags) == 0 {
		return false
	}

	joined := strings.Join(frags, "")
	replaced := joined
	for key, val := range fields {
		replaced = strings.ReplaceAll(replaced, "{"+key+"}", val)
	}
	if replaced == joined {
		return false
	}

	para.SetFragment(0, replaced)
	for i := 1; i < len(frags); i++ {
		para.SetFragment(i, "")
	}
	return true
}
