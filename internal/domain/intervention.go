// Intervention model and validation.
//
// Interventions are embedded in a client record and serialized as a JSON
// array into a single history cell. The wire format uses the canonical keys
// date/type/desc/price/technicians/file_links; decoding also accepts the
// legacy French spellings (prix, techniciens, fichiers_inter) found in older
// datasets, while encoding always emits the canonical form.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation is the root of the validation error class. Every error
// returned by Intervention.Validate wraps it, so callers can classify with
// errors.Is(err, domain.ErrValidation).
var ErrValidation = errors.New("invalid intervention")

// Known intervention types. The stored type is either one of these values or
// the free-text label the user supplied after choosing "Other". The literal
// "Other" alone is rejected: choosing it requires spelling out what was done.
const (
	TypeAnnualMaintenance = "Annual Maintenance"
	TypeRepair            = "Repair"
	TypeInstallation      = "Installation"
	TypeQuote             = "Quote"
	TypeTechnicalVisit    = "Technical Visit"
	TypeOther             = "Other"
)

// InterventionTypes returns the fixed selectable type set, "Other" last.
func InterventionTypes() []string {
	return []string{
		TypeAnnualMaintenance,
		TypeRepair,
		TypeInstallation,
		TypeQuote,
		TypeTechnicalVisit,
		TypeOther,
	}
}

// dateLayout is the on-wire calendar date format (ISO 8601 date).
const dateLayout = "2006-01-02"

// Intervention is one service entry in a client's history.
//
// Price is carried as a decimal so values survive the JSON round trip
// exactly (no binary floating point drift between write and reload).
type Intervention struct {
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Description string          `json:"desc"`
	Price       decimal.Decimal `json:"price"`
	Technicians []string        `json:"technicians"`
	FileLinks   string          `json:"file_links,omitempty"`
}

// Validate checks the invariants an intervention must satisfy before any
// mutation touches storage:
//
//   - Date parses as an ISO 8601 calendar date (YYYY-MM-DD).
//   - Type is non-empty and not the bare "Other" placeholder.
//   - At least one non-blank technician is assigned.
//   - Price is not negative.
//
// All failures wrap ErrValidation.
func (iv Intervention) Validate() error {
	if _, err := time.Parse(dateLayout, iv.Date); err != nil {
		return fmt.Errorf("%w: date %q is not a YYYY-MM-DD calendar date", ErrValidation, iv.Date)
	}
	switch typ := strings.TrimSpace(iv.Type); {
	case typ == "":
		return fmt.Errorf("%w: type is empty", ErrValidation)
	case strings.EqualFold(typ, TypeOther):
		return fmt.Errorf("%w: type %q requires a free-text specification", ErrValidation, TypeOther)
	}
	assigned := false
	for _, t := range iv.Technicians {
		if strings.TrimSpace(t) != "" {
			assigned = true
			break
		}
	}
	if !assigned {
		return fmt.Errorf("%w: at least one technician must be assigned", ErrValidation)
	}
	if iv.Price.IsNegative() {
		return fmt.Errorf("%w: price %s is negative", ErrValidation, iv.Price)
	}
	return nil
}

// interventionWire mirrors Intervention on the canonical wire keys. Price is
// emitted as a raw JSON number (the history cell stores numeric prices, not
// quoted strings).
type interventionWire struct {
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Description string          `json:"desc"`
	Price       json.RawMessage `json:"price"`
	Technicians []string        `json:"technicians"`
	FileLinks   string          `json:"file_links,omitempty"`
}

// MarshalJSON encodes the intervention with canonical keys and a numeric
// price.
func (iv Intervention) MarshalJSON() ([]byte, error) {
	return json.Marshal(interventionWire{
		Date:        iv.Date,
		Type:        iv.Type,
		Description: iv.Description,
		Price:       json.RawMessage(iv.Price.String()),
		Technicians: iv.Technicians,
		FileLinks:   iv.FileLinks,
	})
}

// UnmarshalJSON decodes an intervention, accepting both the canonical keys
// and the legacy spellings written by earlier schema generations.
func (iv *Intervention) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date        string           `json:"date"`
		Type        string           `json:"type"`
		Description string           `json:"desc"`
		Price       *decimal.Decimal `json:"price"`
		Prix        *decimal.Decimal `json:"prix"`
		Technicians []string         `json:"technicians"`
		Techniciens []string         `json:"techniciens"`
		FileLinks   string           `json:"file_links"`
		Fichiers    string           `json:"fichiers_inter"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	iv.Date = raw.Date
	iv.Type = raw.Type
	iv.Description = raw.Description
	switch {
	case raw.Price != nil:
		iv.Price = *raw.Price
	case raw.Prix != nil:
		iv.Price = *raw.Prix
	default:
		iv.Price = decimal.Zero
	}
	iv.Technicians = raw.Technicians
	if iv.Technicians == nil {
		iv.Technicians = raw.Techniciens
	}
	iv.FileLinks = raw.FileLinks
	if iv.FileLinks == "" {
		iv.FileLinks = raw.Fichiers
	}
	return nil
}
