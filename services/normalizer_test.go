package services

import (
	"testing"

	"ceni-cache/models"
	"ceni-cache/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger(false) }

func TestStripCurrency(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"45 ден", "45"},
		{"45,00 ден", "45,00"},
		{"45,00 ден.", "45,00"},
		{"129 ДЕН", "129"},
		{"60 den", "60"},
		{"60 мкд", "60"},
		{"  75  ", "75"},
		{"85", "85"},
		{"ден", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := StripCurrency(tt.raw)
		if got != tt.want {
			t.Errorf("StripCurrency(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStripCurrencyIdempotent(t *testing.T) {
	inputs := []string{"45,00 ден", "45,00", "129 ден.", "", "ден"}
	for _, in := range inputs {
		once := StripCurrency(in)
		twice := StripCurrency(once)
		if once != twice {
			t.Errorf("StripCurrency not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeDiscards(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	m := models.Market{Brand: "Tinex", ID: "3", Name: "ТИНЕКС Центар"}

	tests := []struct {
		name    string
		raw     models.RawRecord
		discard bool
	}{
		{"complete record", models.RawRecord{Name: "Леб бел", Unit: "500г", Price: "45 ден"}, false},
		{"empty name", models.RawRecord{Name: "  ", Unit: "500г", Price: "45 ден"}, true},
		{"price is only a currency token", models.RawRecord{Name: "Леб бел", Unit: "500г", Price: "ден"}, true},
		{"empty price", models.RawRecord{Name: "Леб бел", Unit: "500г", Price: ""}, true},
		{"missing unit kept", models.RawRecord{Name: "Леб бел", Unit: "", Price: "45"}, false},
	}

	for _, tt := range tests {
		rec := n.Normalize(tt.raw, m, "2025-04-20")
		if tt.discard && rec != nil {
			t.Errorf("%s: expected discard, got %+v", tt.name, rec)
		}
		if !tt.discard && rec == nil {
			t.Errorf("%s: expected a record, got discard", tt.name)
		}
	}
}

func TestNormalizeFields(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	m := models.Market{Brand: "Vero", ID: "89_1", Name: "ВЕРО 1"}

	rec := n.Normalize(models.RawRecord{
		Name:  "  Јогурт  ",
		Unit:  " 1л ",
		Price: " 62,50 ден ",
	}, m, "2025-04-20")

	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Name != "Јогурт" || rec.Unit != "1л" || rec.Price != "62,50" {
		t.Errorf("fields not trimmed/stripped: %+v", rec)
	}
	if rec.MarketID != "89_1" || rec.MarketName != "ВЕРО 1" || rec.Brand != "Vero" || rec.Date != "2025-04-20" {
		t.Errorf("market fields: %+v", rec)
	}
}

func TestNormalizeAlreadyNormalizedIsStable(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	m := models.Market{Brand: "Tinex", ID: "3", Name: "ТИНЕКС Центар"}

	first := n.Normalize(models.RawRecord{Name: "Леб бел", Unit: "500г", Price: "45,00 ден"}, m, "2025-04-20")
	if first == nil {
		t.Fatal("expected a record")
	}
	second := n.Normalize(models.RawRecord{Name: first.Name, Unit: first.Unit, Price: first.Price}, m, "2025-04-20")
	if second == nil {
		t.Fatal("expected a record on the second pass")
	}
	if *first != *second {
		t.Errorf("normalization not idempotent: %+v != %+v", first, second)
	}
}

func TestNormalizeAllDropsOnlyInvalid(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	m := models.Market{Brand: "KAM", ID: "14", Name: "КАМ Аеродром"}

	raw := []models.RawRecord{
		{Name: "Леб бел", Unit: "500г", Price: "45 ден"},
		{Name: "", Unit: "1л", Price: "60 ден"},
		{Name: "Млеко", Unit: "1л", Price: "60 ден"},
	}

	records := n.NormalizeAll(raw, m, "2025-04-20")
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
}
