package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func isValidation(err error) bool { return errors.Is(err, ErrValidation) }

func TestClientKey(t *testing.T) {
	cases := []struct {
		name  string
		last  string
		first string
		want  string
	}{
		{"both parts", "Martin", "Paul", "Martin Paul"},
		{"last only", "Martin", "", "Martin"},
		{"first only", "", "Paul", "Paul"},
		{"whitespace trimmed", "  Martin ", "  Paul  ", "Martin Paul"},
		{"blank row", "   ", "  ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientKey(tc.last, tc.first); got != tc.want {
				t.Fatalf("ClientKey(%q, %q) = %q, want %q", tc.last, tc.first, got, tc.want)
			}
		})
	}
}

func TestRecordKeyMatchesClientKey(t *testing.T) {
	rec := ClientRecord{LastName: "Durand", FirstName: "Sophie"}
	if rec.Key() != ClientKey(rec.LastName, rec.FirstName) {
		t.Fatalf("Key() = %q, want %q", rec.Key(), ClientKey(rec.LastName, rec.FirstName))
	}
}

func validIntervention() Intervention {
	return Intervention{
		Date:        "2024-03-01",
		Type:        TypeRepair,
		Description: "replaced circulator pump",
		Price:       decimal.NewFromFloat(120.0),
		Technicians: []string{"Seb"},
	}
}

func TestInterventionValidateOK(t *testing.T) {
	if err := validIntervention().Validate(); err != nil {
		t.Fatalf("valid intervention rejected: %v", err)
	}
}

func TestInterventionValidateFreeTextType(t *testing.T) {
	iv := validIntervention()
	iv.Type = "Chimney sweep" // "Other" resolved into free text upstream
	if err := iv.Validate(); err != nil {
		t.Fatalf("free-text type rejected: %v", err)
	}
}

func TestInterventionValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Intervention)
	}{
		{"bad date", func(iv *Intervention) { iv.Date = "03/01/2024" }},
		{"empty date", func(iv *Intervention) { iv.Date = "" }},
		{"empty type", func(iv *Intervention) { iv.Type = "  " }},
		{"bare Other", func(iv *Intervention) { iv.Type = "Other" }},
		{"bare other lowercase", func(iv *Intervention) { iv.Type = "other" }},
		{"no technicians", func(iv *Intervention) { iv.Technicians = nil }},
		{"blank technicians", func(iv *Intervention) { iv.Technicians = []string{"  ", ""} }},
		{"negative price", func(iv *Intervention) { iv.Price = decimal.NewFromInt(-5) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			iv := validIntervention()
			tc.mutate(&iv)
			err := iv.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !isValidation(err) {
				t.Fatalf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestInterventionTypesContainsOtherLast(t *testing.T) {
	types := InterventionTypes()
	if len(types) == 0 || types[len(types)-1] != TypeOther {
		t.Fatalf("expected %q last, got %v", TypeOther, types)
	}
}
