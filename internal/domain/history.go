// History cell codec.
//
// The intervention history of a client lives in a single cell of the backing
// tabular store as a JSON array; an empty history is the literal "[]".
// Decoding is deliberately lenient: one corrupt cell must never block the
// rest of the dataset, so malformed JSON degrades to an empty history.
package domain

import (
	"encoding/json"
	"strings"
)

// EmptyHistory is the stored representation of a history with no entries.
const EmptyHistory = "[]"

// DecodeHistory parses a history cell into an intervention list.
//
// Blank cells and malformed JSON both yield an empty (non-nil) list; the
// error is swallowed by contract so a single corrupt record degrades to
// "no history" instead of failing a whole load cycle.
func DecodeHistory(cell string) []Intervention {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return []Intervention{}
	}
	var out []Intervention
	if err := json.Unmarshal([]byte(cell), &out); err != nil || out == nil {
		return []Intervention{}
	}
	return out
}

// EncodeHistory serializes the full intervention list for storage. The list
// is always rewritten whole, never patched incrementally, so the cell is a
// self-contained audit of the client's history.
func EncodeHistory(history []Intervention) (string, error) {
	if len(history) == 0 {
		return EmptyHistory, nil
	}
	b, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
