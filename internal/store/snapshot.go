// Snapshot of one load cycle.
package store

import "github.com/tbourn/go-heating-backend/internal/domain"

// Snapshot is the client mapping produced by one LoadAll. It is immutable
// by convention: mutations go to the backing store and the caller reloads,
// so a snapshot is only ever valid for the interaction that loaded it. The
// backing store may be edited out-of-band between cycles.
type Snapshot struct {
	records map[string]domain.ClientRecord
	order   []string
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int { return len(s.records) }

// Get returns the record stored under key.
func (s *Snapshot) Get(key string) (domain.ClientRecord, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// Keys returns the client keys in backing-row order. Row order is not a
// presentation contract; consumers sort keys themselves when displaying.
func (s *Snapshot) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Records returns a shallow copy of the key to record mapping.
func (s *Snapshot) Records() map[string]domain.ClientRecord {
	out := make(map[string]domain.ClientRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}
