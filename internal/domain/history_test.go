package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEncodeHistoryEmpty(t *testing.T) {
	for _, hist := range [][]Intervention{nil, {}} {
		got, err := EncodeHistory(hist)
		if err != nil {
			t.Fatalf("EncodeHistory: %v", err)
		}
		if got != EmptyHistory {
			t.Fatalf("EncodeHistory(empty) = %q, want %q", got, EmptyHistory)
		}
	}
}

func TestHistoryRoundTripPreservesOrderAndPrice(t *testing.T) {
	hist := []Intervention{
		{Date: "2024-03-01", Type: TypeRepair, Description: "pump", Price: decimal.NewFromFloat(120.0), Technicians: []string{"Seb"}},
		{Date: "2024-05-12", Type: TypeAnnualMaintenance, Description: "yearly check", Price: decimal.RequireFromString("89.90"), Technicians: []string{"Marc", "Seb"}, FileLinks: "https://files.example/report.pdf"},
		{Date: "2025-01-07", Type: "Chimney sweep", Description: "", Price: decimal.Zero, Technicians: []string{"Julien"}},
	}
	cell, err := EncodeHistory(hist)
	if err != nil {
		t.Fatalf("EncodeHistory: %v", err)
	}

	got := DecodeHistory(cell)
	if len(got) != len(hist) {
		t.Fatalf("round trip length = %d, want %d", len(got), len(hist))
	}
	for i := range hist {
		if got[i].Date != hist[i].Date || got[i].Type != hist[i].Type || got[i].Description != hist[i].Description {
			t.Fatalf("entry %d changed: %+v != %+v", i, got[i], hist[i])
		}
		if !got[i].Price.Equal(hist[i].Price) {
			t.Fatalf("entry %d price drifted: %s != %s", i, got[i].Price, hist[i].Price)
		}
		if len(got[i].Technicians) != len(hist[i].Technicians) {
			t.Fatalf("entry %d technicians changed: %v != %v", i, got[i].Technicians, hist[i].Technicians)
		}
		if got[i].FileLinks != hist[i].FileLinks {
			t.Fatalf("entry %d file links changed: %q != %q", i, got[i].FileLinks, hist[i].FileLinks)
		}
	}
}

func TestEncodeHistoryEmitsNumericPrice(t *testing.T) {
	cell, err := EncodeHistory([]Intervention{{
		Date: "2024-03-01", Type: TypeRepair, Price: decimal.RequireFromString("120"), Technicians: []string{"Seb"},
	}})
	if err != nil {
		t.Fatalf("EncodeHistory: %v", err)
	}
	if strings.Contains(cell, `"price":"`) {
		t.Fatalf("price encoded as a quoted string: %s", cell)
	}
	if !strings.Contains(cell, `"price":120`) {
		t.Fatalf("price missing from %s", cell)
	}
}

func TestDecodeHistoryLegacyKeys(t *testing.T) {
	cell := `[{"date":"2023-11-02","type":"Repair","desc":"thermostat","prix":75.5,"techniciens":["Seb"],"fichiers_inter":"photo.jpg"}]`
	got := DecodeHistory(cell)
	if len(got) != 1 {
		t.Fatalf("decoded %d entries, want 1", len(got))
	}
	iv := got[0]
	if !iv.Price.Equal(decimal.RequireFromString("75.5")) {
		t.Fatalf("legacy prix not decoded: %s", iv.Price)
	}
	if len(iv.Technicians) != 1 || iv.Technicians[0] != "Seb" {
		t.Fatalf("legacy techniciens not decoded: %v", iv.Technicians)
	}
	if iv.FileLinks != "photo.jpg" {
		t.Fatalf("legacy fichiers_inter not decoded: %q", iv.FileLinks)
	}
}

func TestDecodeHistoryDegradesOnGarbage(t *testing.T) {
	for _, cell := range []string{"", "   ", "[]", "not json", `{"date":"x"}`, "null"} {
		got := DecodeHistory(cell)
		if got == nil {
			t.Fatalf("DecodeHistory(%q) returned nil, want empty list", cell)
		}
		if len(got) != 0 {
			t.Fatalf("DecodeHistory(%q) = %v, want empty", cell, got)
		}
	}
}
