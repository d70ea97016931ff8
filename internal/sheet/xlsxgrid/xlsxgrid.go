// Package xlsxgrid implements the sheet.Grid port over an Excel workbook on
// disk. The workbook is the system of record: every operation reopens the
// file, applies its change, and saves, so edits made out-of-band (a
// technician opening the file directly) are picked up on the next load.
//
// Row 1 of the sheet is the structural header row written on first open; it
// is never updated or deleted through the port.
package xlsxgrid

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/go-heating-backend/internal/domain"
	"github.com/tbourn/go-heating-backend/internal/sheet"
)

// Grid is an xlsx-backed implementation of sheet.Grid.
//
// A process-local mutex serializes file access; the deployment model is a
// single technician per instance, so no cross-process locking is attempted.
type Grid struct {
	path      string
	sheetName string
	mu        sync.Mutex
}

// Open returns a Grid over the workbook at path. A missing workbook is
// created with the canonical header row; an existing one is used as-is.
func Open(path, sheetName string) (*Grid, error) {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Clients"
	}
	g := &Grid{path: path, sheetName: sheetName}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := g.create(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", sheet.ErrUnavailable, path, err)
	}
	return g, nil
}

// create writes a fresh workbook containing only the bold header row.
func (g *Grid) create() error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(g.sheetName)
	if err != nil {
		return fmt.Errorf("%w: create sheet %s: %v", sheet.ErrUnavailable, g.sheetName, err)
	}
	if g.sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}
	f.SetActiveSheet(idx)

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%w: header style: %v", sheet.ErrUnavailable, err)
	}
	for col, header := range sheet.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("%w: header cell: %v", sheet.ErrUnavailable, err)
		}
		if err := f.SetCellStr(g.sheetName, cell, header); err != nil {
			return fmt.Errorf("%w: write header %s: %v", sheet.ErrUnavailable, header, err)
		}
		if err := f.SetCellStyle(g.sheetName, cell, cell, style); err != nil {
			return fmt.Errorf("%w: style header %s: %v", sheet.ErrUnavailable, header, err)
		}
	}
	if err := f.SaveAs(g.path); err != nil {
		return fmt.Errorf("%w: save %s: %v", sheet.ErrUnavailable, g.path, err)
	}
	return nil
}

// withWorkbook opens the workbook, runs fn, and saves when fn reports a
// mutation. The context is honored between file operations only; excelize
// itself has no cancellation points.
func (g *Grid) withWorkbook(ctx context.Context, fn func(f *excelize.File) (mutated bool, err error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := excelize.OpenFile(g.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", sheet.ErrUnavailable, g.path, err)
	}
	defer f.Close()

	mutated, err := fn(f)
	if err != nil {
		return err
	}
	if mutated {
		if err := f.Save(); err != nil {
			return fmt.Errorf("%w: save %s: %v", sheet.ErrUnavailable, g.path, err)
		}
	}
	return nil
}

// dataRows returns the raw cell grid below the header, each row padded to
// the canonical width. excelize trims trailing empty cells, so padding keeps
// column positions stable.
func dataRows(f *excelize.File, sheetName string) ([][]string, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", sheet.ErrUnavailable, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	out := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		padded := make([]string, sheet.NumColumns)
		copy(padded, r)
		out = append(out, padded)
	}
	return out, nil
}

// FetchRows implements sheet.Grid.
func (g *Grid) FetchRows(ctx context.Context) ([]sheet.Row, error) {
	var out []sheet.Row
	err := g.withWorkbook(ctx, func(f *excelize.File) (bool, error) {
		raw, err := dataRows(f, g.sheetName)
		if err != nil {
			return false, err
		}
		out = make([]sheet.Row, 0, len(raw))
		for _, cells := range raw {
			row := make(sheet.Row, sheet.NumColumns)
			for col, header := range sheet.Headers {
				row[header] = cells[col]
			}
			out = append(out, row)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppendRow implements sheet.Grid.
func (g *Grid) AppendRow(ctx context.Context, values []string) error {
	if len(values) != sheet.NumColumns {
		return fmt.Errorf("append row: got %d values, want %d", len(values), sheet.NumColumns)
	}
	return g.withWorkbook(ctx, func(f *excelize.File) (bool, error) {
		rows, err := f.GetRows(g.sheetName)
		if err != nil {
			return false, fmt.Errorf("%w: read rows: %v", sheet.ErrUnavailable, err)
		}
		next := len(rows) + 1
		if next < 2 {
			next = 2 // never land on the header position
		}
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return false, fmt.Errorf("%w: row cell: %v", sheet.ErrUnavailable, err)
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		if err := f.SetSheetRow(g.sheetName, cell, &cells); err != nil {
			return false, fmt.Errorf("%w: write row %d: %v", sheet.ErrUnavailable, next, err)
		}
		return true, nil
	})
}

// FindRow implements sheet.Grid. It anchors on the derived composite key and
// refuses ambiguous matches.
func (g *Grid) FindRow(ctx context.Context, lastName, firstName string) (sheet.RowRef, error) {
	key := domain.ClientKey(lastName, firstName)
	if key == "" {
		return 0, sheet.ErrRowNotFound
	}
	var ref sheet.RowRef
	err := g.withWorkbook(ctx, func(f *excelize.File) (bool, error) {
		raw, err := dataRows(f, g.sheetName)
		if err != nil {
			return false, err
		}
		found := 0
		for i, cells := range raw {
			if domain.ClientKey(cells[sheet.ColLastName], cells[sheet.ColFirstName]) == key {
				found++
				ref = sheet.RowRef(i + 2) // header occupies row 1
			}
		}
		switch found {
		case 0:
			return false, sheet.ErrRowNotFound
		case 1:
			return false, nil
		default:
			return false, fmt.Errorf("%w: %q matches %d rows", sheet.ErrAmbiguousKey, key, found)
		}
	})
	if err != nil {
		return 0, err
	}
	return ref, nil
}

// UpdateCell implements sheet.Grid.
func (g *Grid) UpdateCell(ctx context.Context, ref sheet.RowRef, col int, value string) error {
	if ref < 2 {
		return sheet.ErrHeaderRow
	}
	if col < 0 || col >= sheet.NumColumns {
		return fmt.Errorf("update cell: column %d outside canonical layout", col)
	}
	return g.withWorkbook(ctx, func(f *excelize.File) (bool, error) {
		cell, err := excelize.CoordinatesToCellName(col+1, int(ref))
		if err != nil {
			return false, fmt.Errorf("%w: cell name: %v", sheet.ErrUnavailable, err)
		}
		if err := f.SetCellStr(g.sheetName, cell, value); err != nil {
			return false, fmt.Errorf("%w: write cell %s: %v", sheet.ErrUnavailable, cell, err)
		}
		return true, nil
	})
}

// DeleteRow implements sheet.Grid.
func (g *Grid) DeleteRow(ctx context.Context, ref sheet.RowRef) error {
	if ref < 2 {
		return sheet.ErrHeaderRow
	}
	return g.withWorkbook(ctx, func(f *excelize.File) (bool, error) {
		if err := f.RemoveRow(g.sheetName, int(ref)); err != nil {
			return false, fmt.Errorf("%w: remove row %d: %v", sheet.ErrUnavailable, ref, err)
		}
		return true, nil
	})
}

var _ sheet.Grid = (*Grid)(nil)
