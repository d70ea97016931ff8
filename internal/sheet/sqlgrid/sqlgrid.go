// Package sqlgrid implements the sheet.Grid port over a SQLite table,
// backed by GORM with the pure Go driver. It exists for local and offline
// setups where no workbook is shared; the table mimics the sheet layout
// one column per canonical header, with insertion order standing in for
// physical row order.
//
// Row references follow the port convention: the (virtual) header is row 1,
// so the first data row is ref 2. Refs are resolved against the current
// insertion order at call time.
package sqlgrid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-heating-backend/internal/domain"
	"github.com/tbourn/go-heating-backend/internal/sheet"
)

// GridRow is one data row of the emulated sheet. Column names match the
// canonical headers so the table reads naturally in any SQLite browser.
type GridRow struct {
	ID            uint   `gorm:"primaryKey"`
	LastName      string `gorm:"column:last_name;type:text;not null;default:''"`
	FirstName     string `gorm:"column:first_name;type:text;not null;default:''"`
	StreetAddress string `gorm:"column:street_address;type:text;not null;default:''"`
	City          string `gorm:"column:city;type:text;not null;default:''"`
	PostalCode    string `gorm:"column:postal_code;type:text;not null;default:''"`
	Phone         string `gorm:"column:phone;type:text;not null;default:''"`
	Email         string `gorm:"column:email;type:text;not null;default:''"`
	Equipment     string `gorm:"column:equipment_description;type:text;not null;default:''"`
	History       string `gorm:"column:history_json;type:text;not null;default:'[]'"`
	FileLinks     string `gorm:"column:client_file_links;type:text;not null;default:''"`
}

// TableName returns the database table name for GridRow.
func (GridRow) TableName() string { return "grid_rows" }

// values returns the row cells in canonical column order.
func (r GridRow) values() []string {
	return []string{
		r.LastName, r.FirstName, r.StreetAddress, r.City, r.PostalCode,
		r.Phone, r.Email, r.Equipment, r.History, r.FileLinks,
	}
}

// Grid is a SQLite-backed implementation of sheet.Grid.
type Grid struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path, applies PRAGMAs and
// pool settings, migrates the grid table, and registers OpenTelemetry
// tracing for the GORM handle.
func Open(path string) (*Grid, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("%w: %v", sheet.ErrUnavailable, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", sheet.ErrUnavailable, path, err)
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("%w: register tracing: %v", sheet.ErrUnavailable, err)
	}
	if err := db.AutoMigrate(&GridRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %v", sheet.ErrUnavailable, err)
	}
	return &Grid{db: db}, nil
}

// ordered returns every row in insertion order.
func (g *Grid) ordered(ctx context.Context) ([]GridRow, error) {
	var rows []GridRow
	if err := g.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", sheet.ErrUnavailable, err)
	}
	return rows, nil
}

// rowAt resolves a port row reference to the stored row it denotes.
func (g *Grid) rowAt(ctx context.Context, ref sheet.RowRef) (*GridRow, error) {
	rows, err := g.ordered(ctx)
	if err != nil {
		return nil, err
	}
	i := int(ref) - 2
	if i < 0 || i >= len(rows) {
		return nil, sheet.ErrRowNotFound
	}
	return &rows[i], nil
}

// FetchRows implements sheet.Grid.
func (g *Grid) FetchRows(ctx context.Context) ([]sheet.Row, error) {
	rows, err := g.ordered(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]sheet.Row, 0, len(rows))
	for _, r := range rows {
		cells := r.values()
		row := make(sheet.Row, sheet.NumColumns)
		for col, header := range sheet.Headers {
			row[header] = cells[col]
		}
		out = append(out, row)
	}
	return out, nil
}

// AppendRow implements sheet.Grid.
func (g *Grid) AppendRow(ctx context.Context, values []string) error {
	if len(values) != sheet.NumColumns {
		return fmt.Errorf("append row: got %d values, want %d", len(values), sheet.NumColumns)
	}
	row := GridRow{
		LastName:      values[sheet.ColLastName],
		FirstName:     values[sheet.ColFirstName],
		StreetAddress: values[sheet.ColStreetAddress],
		City:          values[sheet.ColCity],
		PostalCode:    values[sheet.ColPostalCode],
		Phone:         values[sheet.ColPhone],
		Email:         values[sheet.ColEmail],
		Equipment:     values[sheet.ColEquipment],
		History:       values[sheet.ColHistory],
		FileLinks:     values[sheet.ColFileLinks],
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: %v", sheet.ErrUnavailable, err)
	}
	return nil
}

// FindRow implements sheet.Grid.
func (g *Grid) FindRow(ctx context.Context, lastName, firstName string) (sheet.RowRef, error) {
	key := domain.ClientKey(lastName, firstName)
	if key == "" {
		return 0, sheet.ErrRowNotFound
	}
	rows, err := g.ordered(ctx)
	if err != nil {
		return 0, err
	}
	var ref sheet.RowRef
	found := 0
	for i, r := range rows {
		if domain.ClientKey(r.LastName, r.FirstName) == key {
			found++
			ref = sheet.RowRef(i + 2)
		}
	}
	switch found {
	case 0:
		return 0, sheet.ErrRowNotFound
	case 1:
		return ref, nil
	default:
		return 0, fmt.Errorf("%w: %q matches %d rows", sheet.ErrAmbiguousKey, key, found)
	}
}

// UpdateCell implements sheet.Grid.
func (g *Grid) UpdateCell(ctx context.Context, ref sheet.RowRef, col int, value string) error {
	if ref < 2 {
		return sheet.ErrHeaderRow
	}
	if col < 0 || col >= sheet.NumColumns {
		return fmt.Errorf("update cell: column %d outside canonical layout", col)
	}
	row, err := g.rowAt(ctx, ref)
	if err != nil {
		return err
	}
	res := g.db.WithContext(ctx).
		Model(&GridRow{}).
		Where("id = ?", row.ID).
		Update(sheet.Headers[col], value)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", sheet.ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return sheet.ErrRowNotFound
	}
	return nil
}

// DeleteRow implements sheet.Grid.
func (g *Grid) DeleteRow(ctx context.Context, ref sheet.RowRef) error {
	if ref < 2 {
		return sheet.ErrHeaderRow
	}
	row, err := g.rowAt(ctx, ref)
	if err != nil {
		return err
	}
	res := g.db.WithContext(ctx).Delete(&GridRow{}, row.ID)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", sheet.ErrUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return sheet.ErrRowNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (g *Grid) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ sheet.Grid = (*Grid)(nil)
