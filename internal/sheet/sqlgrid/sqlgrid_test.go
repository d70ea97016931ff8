package sqlgrid

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-heating-backend/internal/sheet"
)

func openTempGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "clients.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func rowValues(last, first string) []string {
	v := make([]string, sheet.NumColumns)
	v[sheet.ColLastName] = last
	v[sheet.ColFirstName] = first
	v[sheet.ColHistory] = "[]"
	return v
}

func TestOpen_MissingParentDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db"))
	if !errors.Is(err, sheet.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestAppendAndFetchRows_InsertionOrder(t *testing.T) {
	g := openTempGrid(t)
	ctx := context.Background()

	if err := g.AppendRow(ctx, rowValues("Martin", "Paul")); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := g.AppendRow(ctx, rowValues("Durand", "Alice")); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}

	rows, err := g.FetchRows(ctx)
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["last_name"] != "Martin" || rows[1]["last_name"] != "Durand" {
		t.Fatalf("insertion order not preserved: %v", rows)
	}
	if rows[0]["history_json"] != "[]" {
		t.Fatalf("history cell = %q, want []", rows[0]["history_json"])
	}
}

func TestAppendRow_RejectsWrongWidth(t *testing.T) {
	g := openTempGrid(t)
	if err := g.AppendRow(context.Background(), []string{"short"}); err == nil {
		t.Fatalf("expected error for wrong value count")
	}
}

func TestFindRow_RefsAndAmbiguity(t *testing.T) {
	g := openTempGrid(t)
	ctx := context.Background()

	_ = g.AppendRow(ctx, rowValues("Martin", "Paul"))
	_ = g.AppendRow(ctx, rowValues("Durand", "Alice"))

	ref, err := g.FindRow(ctx, "Durand", "Alice")
	if err != nil {
		t.Fatalf("FindRow: %v", err)
	}
	if ref != 3 {
		t.Fatalf("ref = %d, want 3 (virtual header is row 1)", ref)
	}

	if _, err := g.FindRow(ctx, "", ""); !errors.Is(err, sheet.ErrRowNotFound) {
		t.Fatalf("empty key: err = %v, want ErrRowNotFound", err)
	}
	if _, err := g.FindRow(ctx, "Nobody", "X"); !errors.Is(err, sheet.ErrRowNotFound) {
		t.Fatalf("missing: err = %v, want ErrRowNotFound", err)
	}

	_ = g.AppendRow(ctx, rowValues("Martin", "Paul"))
	if _, err := g.FindRow(ctx, "Martin", "Paul"); !errors.Is(err, sheet.ErrAmbiguousKey) {
		t.Fatalf("duplicate key: err = %v, want ErrAmbiguousKey", err)
	}
}

func TestUpdateCell(t *testing.T) {
	g := openTempGrid(t)
	ctx := context.Background()

	_ = g.AppendRow(ctx, rowValues("Martin", "Paul"))
	ref, err := g.FindRow(ctx, "Martin", "Paul")
	if err != nil {
		t.Fatalf("FindRow: %v", err)
	}
	if err := g.UpdateCell(ctx, ref, sheet.ColPhone, "06 11 22 33 44"); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	rows, _ := g.FetchRows(ctx)
	if rows[0]["phone"] != "06 11 22 33 44" {
		t.Fatalf("phone = %q", rows[0]["phone"])
	}

	if err := g.UpdateCell(ctx, 1, sheet.ColPhone, "x"); !errors.Is(err, sheet.ErrHeaderRow) {
		t.Fatalf("header ref: err = %v, want ErrHeaderRow", err)
	}
	if err := g.UpdateCell(ctx, 99, sheet.ColPhone, "x"); !errors.Is(err, sheet.ErrRowNotFound) {
		t.Fatalf("stale ref: err = %v, want ErrRowNotFound", err)
	}
	if err := g.UpdateCell(ctx, ref, sheet.NumColumns, "x"); err == nil {
		t.Fatalf("expected error for column outside canonical layout")
	}
}

func TestDeleteRow_ShiftsFollowingRefs(t *testing.T) {
	g := openTempGrid(t)
	ctx := context.Background()

	_ = g.AppendRow(ctx, rowValues("Martin", "Paul"))
	_ = g.AppendRow(ctx, rowValues("Durand", "Alice"))

	ref, _ := g.FindRow(ctx, "Martin", "Paul")
	if err := g.DeleteRow(ctx, ref); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}

	rows, err := g.FetchRows(ctx)
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if len(rows) != 1 || rows[0]["last_name"] != "Durand" {
		t.Fatalf("unexpected rows after delete: %v", rows)
	}
	ref2, err := g.FindRow(ctx, "Durand", "Alice")
	if err != nil {
		t.Fatalf("FindRow after delete: %v", err)
	}
	if ref2 != 2 {
		t.Fatalf("ref after shift = %d, want 2", ref2)
	}

	if err := g.DeleteRow(ctx, 1); !errors.Is(err, sheet.ErrHeaderRow) {
		t.Fatalf("header ref: err = %v, want ErrHeaderRow", err)
	}
	if err := g.DeleteRow(ctx, 99); !errors.Is(err, sheet.ErrRowNotFound) {
		t.Fatalf("stale ref: err = %v, want ErrRowNotFound", err)
	}
}

func TestPersistence_AcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.db")

	g, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	_ = g.AppendRow(ctx, rowValues("Martin", "Paul"))
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	g2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer g2.Close()
	rows, err := g2.FetchRows(ctx)
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if len(rows) != 1 || rows[0]["last_name"] != "Martin" {
		t.Fatalf("rows after reopen: %v", rows)
	}
}
