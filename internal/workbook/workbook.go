// Package workbook merges CRM records into the tabular workbook kept in
// the clients folder, one sheet per object type.
package workbook

import (
	"bytes"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// SheetSpec describes one object type's sheet.
type SheetSpec struct {
	// Name is the sheet name.
	Name string
	// UniqueKey is the column matched to decide update vs. append.
	UniqueKey string
	// Columns is the ordered header used when the sheet does not exist
	// yet. An existing sheet keeps its own column order.
	Columns []string
}

// Workbook wraps an xlsx file being merged in memory.
type Workbook struct {
	f *xlsx.File
}

// Open parses workbook bytes. Empty input starts a fresh workbook.
func Open(data []byte) (*Workbook, error) {
	if len(data) == 0 {
		return &Workbook{f: xlsx.NewFile()}, nil
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open")
	}
	return &Workbook{f: f}, nil
}

// Bytes serializes the workbook.
func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "workbook: serialize")
	}
	return buf.Bytes(), nil
}

// MergeSheet merges records into the named sheet by unique key: a record
// whose key matches an existing row overwrites that row (last write wins),
// everything else is appended. When the existing sheet lacks the unique
// column all records are appended.
func (w *Workbook) MergeSheet(spec SheetSpec, records []map[string]string) error {
	sheet, ok := w.f.Sheet[spec.Name]
	if !ok {
		var err error
		sheet, err = w.f.AddSheet(spec.Name)
		if err != nil {
			return eris.Wrapf(err, "workbook: add sheet %q", spec.Name)
		}
		header := sheet.AddRow()
		for _, col := range spec.Columns {
			header.AddCell().SetString(col)
		}
	}

	if len(sheet.Rows) == 0 {
		header := sheet.AddRow()
		for _, col := range spec.Columns {
			header.AddCell().SetString(col)
		}
	}

	header := rowStrings(sheet.Rows[0])
	keyIdx := -1
	for i, col := range header {
		if strings.EqualFold(col, spec.UniqueKey) {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		zap.L().Warn("workbook: unique column missing, appending all rows",
			zap.String("sheet", spec.Name),
			zap.String("column", spec.UniqueKey),
		)
	}

	// Index existing rows by key value.
	byKey := make(map[string]*xlsx.Row)
	if keyIdx >= 0 {
		for _, row := range sheet.Rows[1:] {
			cells := rowStrings(row)
			if keyIdx < len(cells) && cells[keyIdx] != "" {
				byKey[cells[keyIdx]] = row
			}
		}
	}

	for _, rec := range records {
		var target *xlsx.Row
		if keyIdx >= 0 {
			if key := rec[spec.UniqueKey]; key != "" {
				target = byKey[key]
			}
		}
		if target == nil {
			target = sheet.AddRow()
			if keyIdx >= 0 {
				if key := rec[spec.UniqueKey]; key != "" {
					byKey[key] = target
				}
			}
		}
		setRow(target, header, rec)
	}
	return nil
}

func rowStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = c.String()
	}
	return out
}

func setRow(row *xlsx.Row, header []string, rec map[string]string) {
	for len(row.Cells) < len(header) {
		row.AddCell()
	}
	for i, col := range header {
		row.Cells[i].SetString(rec[col])
	}
}
