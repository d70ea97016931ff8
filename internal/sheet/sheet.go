// Package sheet defines the narrow persistence port through which the record
// store talks to the backing tabular store, along with the one canonical
// column layout every reader and writer must agree on.
//
// The backing store is the system of record and may be edited out-of-band,
// so the port is deliberately primitive: whole-row reads, append-only row
// creation, key-anchored row lookup, single-cell updates, and whole-row
// deletion. Anything smarter (snapshots, history codecs, search) lives above
// the port in internal/store.
//
// Implementations:
//   - internal/sheet/xlsxgrid: an Excel workbook on disk (excelize)
//   - internal/sheet/sqlgrid:  a SQLite table (GORM), for local setups
package sheet

import (
	"context"
	"errors"
)

// Column indices of the canonical layout. The same order is used by the
// header row, by AppendRow values, and by UpdateCell targets; once a dataset
// exists, changing this layout is a migration, not a code edit.
const (
	ColLastName = iota
	ColFirstName
	ColStreetAddress
	ColCity
	ColPostalCode
	ColPhone
	ColEmail
	ColEquipment
	ColHistory
	ColFileLinks

	// NumColumns is the width of a data row.
	NumColumns
)

// Headers is the canonical header row, indexed by the Col* constants.
var Headers = [NumColumns]string{
	"last_name",
	"first_name",
	"street_address",
	"city",
	"postal_code",
	"phone",
	"email",
	"equipment_description",
	"history_json",
	"client_file_links",
}

// ColumnIndex resolves a canonical header name to its column index.
// The second result is false for unknown names.
func ColumnIndex(header string) (int, bool) {
	for i, h := range Headers {
		if h == header {
			return i, true
		}
	}
	return 0, false
}

// Row is one data row keyed by column header. Adapters must populate every
// canonical header, mapping absent cells to "" rather than omitting keys.
type Row map[string]string

// RowRef is an opaque handle to a physical row. For both adapters it is the
// 1-based row position with the header at position 1, so the first data row
// is 2. Refs are only valid until the next mutation of the backing store.
type RowRef int

// Port error values. The record store translates these into its own error
// taxonomy; adapters must not let backend-specific errors escape unwrapped.
var (
	// ErrUnavailable reports that the backing store cannot be reached,
	// opened, or written. Fatal to the current interaction, never retried.
	ErrUnavailable = errors.New("backing store unavailable")

	// ErrRowNotFound reports that no data row matches the requested key.
	ErrRowNotFound = errors.New("row not found")

	// ErrAmbiguousKey reports that more than one data row matches the
	// requested key. Lookups refuse to guess rather than pick the first.
	ErrAmbiguousKey = errors.New("multiple rows match key")

	// ErrHeaderRow reports an attempt to update or delete the structural
	// header row, which is never a deletable record.
	ErrHeaderRow = errors.New("refusing to modify the header row")
)

// Grid is the persistence port consumed by the record store.
//
// FindRow anchors on the derived composite client key: a data row matches
// when its trimmed last-name and first-name cells derive the same key as the
// given pair. Implementations must return ErrAmbiguousKey when several rows
// match instead of silently choosing one.
type Grid interface {
	// FetchRows returns every data row (header excluded) in storage order.
	FetchRows(ctx context.Context) ([]Row, error)

	// AppendRow appends one row of values in canonical column order.
	// Callers must supply exactly NumColumns values.
	AppendRow(ctx context.Context, values []string) error

	// FindRow locates the single data row whose name cells derive the
	// composite key of the given pair.
	FindRow(ctx context.Context, lastName, firstName string) (RowRef, error)

	// UpdateCell writes value into the cell at (ref, col).
	UpdateCell(ctx context.Context, ref RowRef, col int, value string) error

	// DeleteRow removes the row at ref entirely.
	DeleteRow(ctx context.Context, ref RowRef) error
}
