// Package search provides the derived free-text index over client records
// and substring matching against it. It is intentionally small and
// dependency-free: no logging, no persistence, no ranking.
//
// The index is a pure projection of a record's field values. It is rebuilt
// from every snapshot load and discarded with it, so it can never go stale
// relative to the data it was derived from.
//
// Matching contract:
//   - Both the index text and the query go through the same normalization:
//     lowercase, then drop every character that is not an ASCII letter,
//     digit, or whitespace.
//   - An empty query matches every record. A query that normalizes to the
//     empty string (e.g. pure punctuation) also matches every record; that
//     degenerate behavior is part of the documented contract, not an
//     accident to be fixed silently.
//   - Otherwise a record matches when its index contains the normalized
//     query as a plain substring. No tokenization, no fuzzy matching.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/tbourn/go-heating-backend/internal/domain"
)

// Index maps a client key to its normalized search text for one load cycle.
type Index map[string]string

// BuildIndex derives the normalized search text for a single record: the
// textual fields joined with single spaces (empty fields skipped), then
// normalized. The history is not indexed; search targets the roster, not
// individual interventions.
func BuildIndex(rec domain.ClientRecord) string {
	fields := []string{
		rec.LastName,
		rec.FirstName,
		rec.StreetAddress,
		rec.City,
		rec.PostalCode,
		rec.Phone,
		rec.Email,
		rec.Equipment,
		rec.FileLinks,
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return Normalize(strings.Join(parts, " "))
}

// Build derives the index for a whole snapshot mapping.
func Build(records map[string]domain.ClientRecord) Index {
	ix := make(Index, len(records))
	for key, rec := range records {
		ix[key] = BuildIndex(rec)
	}
	return ix
}

// Query returns the keys whose index contains the normalized term, sorted
// for deterministic output. A term that is empty, or that normalizes to the
// empty string, returns every key.
func (ix Index) Query(term string) []string {
	norm := Normalize(term)
	keys := make([]string, 0, len(ix))
	for key, text := range ix {
		if norm == "" || strings.Contains(text, norm) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Normalize lowercases s and strips every character that is not an ASCII
// letter, an ASCII digit, or whitespace. Whitespace is preserved as-is so
// multi-word terms can match across field boundaries.
func Normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
