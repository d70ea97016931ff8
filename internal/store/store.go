// Record store operations.
//
// Every operation runs one synchronous round trip against the backing store
// through the sheet.Grid port. There is no caching across interactions: the
// snapshot a mutation was validated against is discarded afterwards and the
// caller reloads. History mutations rewrite the whole serialized list, which
// makes concurrent writers a last-writer-wins hazard; that model is kept
// deliberately for the single-technician deployment this system targets.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/go-heating-backend/internal/domain"
	"github.com/tbourn/go-heating-backend/internal/sheet"
)

// Store mediates between domain records and the tabular backing store.
type Store struct {
	grid sheet.Grid
}

// New returns a Store over the given grid.
func New(grid sheet.Grid) *Store { return &Store{grid: grid} }

// LoadAll reads every data row and builds the key to record snapshot.
//
// Rows whose derived key is empty are skipped as blank or structural rows,
// not reported as errors. A malformed history cell degrades to an empty
// history for that record only. When two rows derive the same key the later
// row wins, matching mapping semantics of the source dataset.
func (s *Store) LoadAll(ctx context.Context) (*Snapshot, error) {
	rows, err := s.grid.FetchRows(ctx)
	if err != nil {
		return nil, translate(err)
	}
	snap := &Snapshot{records: make(map[string]domain.ClientRecord, len(rows))}
	for _, row := range rows {
		rec := recordFromRow(row)
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, seen := snap.records[key]; !seen {
			snap.order = append(snap.order, key)
		}
		snap.records[key] = rec
	}
	return snap, nil
}

// InsertClient appends a new client row with an empty history.
//
// The key derived from the record's name pair must be non-empty and must
// not exist in the provided snapshot; on ErrAlreadyExists nothing is
// written and the caller must not retry with the same input.
func (s *Store) InsertClient(ctx context.Context, snap *Snapshot, rec domain.ClientRecord) error {
	key := rec.Key()
	if key == "" {
		return fmt.Errorf("%w: client name is empty", domain.ErrValidation)
	}
	if _, exists := snap.Get(key); exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, key)
	}
	values := make([]string, sheet.NumColumns)
	values[sheet.ColLastName] = rec.LastName
	values[sheet.ColFirstName] = rec.FirstName
	values[sheet.ColStreetAddress] = rec.StreetAddress
	values[sheet.ColCity] = rec.City
	values[sheet.ColPostalCode] = rec.PostalCode
	values[sheet.ColPhone] = rec.Phone
	values[sheet.ColEmail] = rec.Email
	values[sheet.ColEquipment] = rec.Equipment
	values[sheet.ColHistory] = domain.EmptyHistory
	values[sheet.ColFileLinks] = rec.FileLinks
	if err := s.grid.AppendRow(ctx, values); err != nil {
		return translate(err)
	}
	return nil
}

// UpdateClientField writes a single field of the client identified by key.
//
// The field name must be a canonical column header other than the history
// column; history is only writable through the intervention operations so
// the serialized list can never be half-edited.
func (s *Store) UpdateClientField(ctx context.Context, snap *Snapshot, key, field, value string) error {
	col, ok := sheet.ColumnIndex(field)
	if !ok || col == sheet.ColHistory {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	rec, ok := snap.Get(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	ref, err := s.grid.FindRow(ctx, rec.LastName, rec.FirstName)
	if err != nil {
		return translate(err)
	}
	if err := s.grid.UpdateCell(ctx, ref, col, value); err != nil {
		return translate(err)
	}
	return nil
}

// AppendIntervention validates iv, appends it to the client's history from
// the snapshot, and rewrites the serialized list.
func (s *Store) AppendIntervention(ctx context.Context, snap *Snapshot, key string, iv domain.Intervention) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	rec, ok := snap.Get(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return s.writeHistory(ctx, rec, append(append([]domain.Intervention{}, rec.History...), iv))
}

// ReplaceIntervention validates iv and replaces the history entry at pos
// (0-based storage position), leaving every other entry and their order
// untouched.
func (s *Store) ReplaceIntervention(ctx context.Context, snap *Snapshot, key string, pos int, iv domain.Intervention) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	rec, hist, err := s.historyAt(snap, key, pos)
	if err != nil {
		return err
	}
	hist[pos] = iv
	return s.writeHistory(ctx, rec, hist)
}

// DeleteIntervention removes the history entry at pos and rewrites the
// remaining list in its original relative order.
func (s *Store) DeleteIntervention(ctx context.Context, snap *Snapshot, key string, pos int) error {
	rec, hist, err := s.historyAt(snap, key, pos)
	if err != nil {
		return err
	}
	return s.writeHistory(ctx, rec, append(hist[:pos], hist[pos+1:]...))
}

// DeleteClient removes the client's entire row. The port guards the header
// row, so the first structural row can never be treated as a record.
func (s *Store) DeleteClient(ctx context.Context, snap *Snapshot, key string) error {
	rec, ok := snap.Get(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	ref, err := s.grid.FindRow(ctx, rec.LastName, rec.FirstName)
	if err != nil {
		return translate(err)
	}
	if err := s.grid.DeleteRow(ctx, ref); err != nil {
		return translate(err)
	}
	return nil
}

// historyAt fetches the record and a mutable copy of its history, bounds
// checking pos against the snapshot's view.
func (s *Store) historyAt(snap *Snapshot, key string, pos int) (domain.ClientRecord, []domain.Intervention, error) {
	rec, ok := snap.Get(key)
	if !ok {
		return domain.ClientRecord{}, nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if pos < 0 || pos >= len(rec.History) {
		return domain.ClientRecord{}, nil, fmt.Errorf("%w: position %d of %d entries", ErrIndexOutOfRange, pos, len(rec.History))
	}
	hist := append([]domain.Intervention{}, rec.History...)
	return rec, hist, nil
}

// writeHistory serializes the full list and writes it into the client's
// history cell. The whole list is always rewritten, never patched, which
// keeps the cell auditable but makes concurrent sessions last-writer-wins.
func (s *Store) writeHistory(ctx context.Context, rec domain.ClientRecord, hist []domain.Intervention) error {
	cell, err := domain.EncodeHistory(hist)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	ref, err := s.grid.FindRow(ctx, rec.LastName, rec.FirstName)
	if err != nil {
		return translate(err)
	}
	if err := s.grid.UpdateCell(ctx, ref, sheet.ColHistory, cell); err != nil {
		return translate(err)
	}
	return nil
}

// recordFromRow maps a port row onto a typed record. Absent columns read as
// empty fields; the history cell decodes leniently.
func recordFromRow(row sheet.Row) domain.ClientRecord {
	return domain.ClientRecord{
		LastName:      row[sheet.Headers[sheet.ColLastName]],
		FirstName:     row[sheet.Headers[sheet.ColFirstName]],
		StreetAddress: row[sheet.Headers[sheet.ColStreetAddress]],
		City:          row[sheet.Headers[sheet.ColCity]],
		PostalCode:    row[sheet.Headers[sheet.ColPostalCode]],
		Phone:         row[sheet.Headers[sheet.ColPhone]],
		Email:         row[sheet.Headers[sheet.ColEmail]],
		Equipment:     row[sheet.Headers[sheet.ColEquipment]],
		FileLinks:     row[sheet.Headers[sheet.ColFileLinks]],
		History:       domain.DecodeHistory(row[sheet.Headers[sheet.ColHistory]]),
	}
}

// translate maps port errors onto the store taxonomy. Anything unrecognized
// is treated as the backing store being unavailable.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sheet.ErrRowNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, sheet.ErrAmbiguousKey):
		return fmt.Errorf("%w: %v", ErrAmbiguousKey, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
