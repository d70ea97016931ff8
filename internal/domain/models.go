// Package domain defines the core entities of the client roster: client
// records, their embedded intervention history, and the validation rules an
// intervention must satisfy before it may be persisted.
//
// A ClientRecord is keyed by its derived full name (last name + first name,
// trimmed). The history of a client is an ordered-by-insertion list of
// Intervention values serialized as a JSON array into a single cell of the
// backing tabular store (see internal/sheet for the storage contract).
package domain

import "strings"

// ClientRecord is one client of the roster. All fields are optional free
// text except the name pair, which must derive into a non-empty key.
//
// Fields:
//   - LastName / FirstName: name pair the record key is derived from.
//   - StreetAddress / City / PostalCode: postal address, free text.
//   - Phone / Email: contact details, free text.
//   - Equipment: description of the installed heating equipment.
//   - FileLinks: newline- or comma-separated URIs or labels; attachments are
//     represented purely as opaque link strings.
//   - History: interventions in insertion order, as stored.
type ClientRecord struct {
	LastName      string         `json:"last_name"`
	FirstName     string         `json:"first_name"`
	StreetAddress string         `json:"street_address"`
	City          string         `json:"city"`
	PostalCode    string         `json:"postal_code"`
	Phone         string         `json:"phone"`
	Email         string         `json:"email"`
	Equipment     string         `json:"equipment_description"`
	FileLinks     string         `json:"client_file_links"`
	History       []Intervention `json:"history,omitempty"`
}

// Key returns the derived client key for this record.
func (c ClientRecord) Key() string {
	return ClientKey(c.LastName, c.FirstName)
}

// ClientKey derives the composite client key from a name pair: both parts
// trimmed, joined with a single space, and the result trimmed again so a
// missing first name yields the bare last name. An empty result means the
// record is not addressable (blank or header row).
func ClientKey(lastName, firstName string) string {
	last := strings.TrimSpace(lastName)
	first := strings.TrimSpace(firstName)
	return strings.TrimSpace(last + " " + first)
}
