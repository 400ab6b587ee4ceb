package pdfextract

import (
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"

	"ceni-cache/models"
	"ceni-cache/utils"
)

func newTestChain() *Chain { return New(utils.NewLogger(false)) }

func TestDisabledReportsUnavailable(t *testing.T) {
	records, err := Disabled{}.Extract([]byte("%PDF-1.4"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if records != nil {
		t.Errorf("expected no records alongside the unavailable signal, got %d", len(records))
	}
}

func TestChainShortCircuits(t *testing.T) {
	c := newTestChain()
	var calls []string

	fakes := []strategy{
		{"first", func(*pdf.Reader) []models.RawRecord {
			calls = append(calls, "first")
			return nil
		}},
		{"second", func(*pdf.Reader) []models.RawRecord {
			calls = append(calls, "second")
			return []models.RawRecord{{Name: "Леб бел", Unit: "500г", Price: "45"}}
		}},
		{"third", func(*pdf.Reader) []models.RawRecord {
			calls = append(calls, "third")
			t.Error("third strategy must not run after the second yielded records")
			return nil
		}},
	}

	records := c.runChain(nil, fakes)
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("strategy order: got %v", calls)
	}
}

func TestChainRecoversFromStrategyPanic(t *testing.T) {
	c := newTestChain()

	fakes := []strategy{
		{"panicky", func(*pdf.Reader) []models.RawRecord {
			panic("malformed xref")
		}},
		{"fallback", func(*pdf.Reader) []models.RawRecord {
			return []models.RawRecord{{Name: "Млеко", Unit: "1л", Price: "60"}}
		}},
	}

	records := c.runChain(nil, fakes)
	if len(records) != 1 || records[0].Name != "Млеко" {
		t.Fatalf("expected fallback records after panic, got %+v", records)
	}
}

func TestRecordsFromText(t *testing.T) {
	c := newTestChain()

	text := "Артикл    Е.М    Цена\n" + // header vocabulary line
		"кус\n" + // shorter than 5 runes
		"Леб бел  500г   45 ден\n" +
		"Јогурт без двојни празнини 45 ден\n" + // no multi-space split
		"Сирење бело  кутија   245,50 ден.\n"

	records := c.recordsFromText(text)
	if len(records) != 2 {
		t.Fatalf("records: got %d (%+v), want 2", len(records), records)
	}

	want := models.RawRecord{Name: "Леб бел", Unit: "500г", Price: "45"}
	if records[0] != want {
		t.Errorf("record 0: got %+v, want %+v", records[0], want)
	}
	if records[1].Price != "245,50" {
		t.Errorf("record 1 price: got %q, want %q", records[1].Price, "245,50")
	}
}

func TestTolerantRecordsFromText(t *testing.T) {
	c := newTestChain()

	tests := []struct {
		line string
		want *models.RawRecord
	}{
		{"Кисела вода Горска 1.5л 42,00 ден.", &models.RawRecord{Name: "Кисела вода Горска", Unit: "1.5л", Price: "42.00"}},
		{"Сок портокал  1x250  55 ден", &models.RawRecord{Name: "Сок портокал", Unit: "1x250", Price: "55"}},
		{"цени во маркети 2025 45 ден", nil}, // boilerplate term
		{"12345 99 ден", nil},                // numeric name
		{"ab 30 ден", nil},                   // name too short
		{"Нема цена на линијава", nil},
	}

	for _, tt := range tests {
		records := c.tolerantRecordsFromText(tt.line)
		if tt.want == nil {
			if len(records) != 0 {
				t.Errorf("%q: expected discard, got %+v", tt.line, records)
			}
			continue
		}
		if len(records) != 1 {
			t.Errorf("%q: got %d records, want 1", tt.line, len(records))
			continue
		}
		if records[0] != *tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.line, records[0], *tt.want)
		}
	}
}

func TestRecordFromCells(t *testing.T) {
	c := newTestChain()

	tests := []struct {
		name  string
		cells []string
		want  *models.RawRecord
	}{
		{
			name:  "positional data row",
			cells: []string{"Леб бел", "500г", "45"},
			want:  &models.RawRecord{Name: "Леб бел", Unit: "500г", Price: "45"},
		},
		{
			name:  "header row rejected",
			cells: []string{"Артикл", "Единица мерка", "Цена"},
			want:  nil,
		},
		{
			name:  "empty price rejected",
			cells: []string{"Леб бел", "500г", "  "},
			want:  nil,
		},
		{
			name:  "extra cells ignored",
			cells: []string{"Јогурт", "1л", "62", "забелешка"},
			want:  &models.RawRecord{Name: "Јогурт", Unit: "1л", Price: "62"},
		},
	}

	for _, tt := range tests {
		got, ok := c.recordFromCells(tt.cells)
		if tt.want == nil {
			if ok {
				t.Errorf("%s: expected rejection, got %+v", tt.name, got)
			}
			continue
		}
		if !ok {
			t.Errorf("%s: expected a record, got rejection", tt.name)
			continue
		}
		if got != *tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, *tt.want)
		}
	}
}

func TestClusterCells(t *testing.T) {
	row := pdf.TextHorizontal{
		{X: 10, W: 20, S: "Леб"},
		{X: 33, W: 18, S: "бел"}, // small gap: same cell, word break
		{X: 120, W: 25, S: "500г"},
		{X: 240, W: 15, S: "45"},
	}

	cells := clusterCells(row)
	want := []string{"Леб бел", "500г", "45"}
	if len(cells) != len(want) {
		t.Fatalf("cells: got %v, want %v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d: got %q, want %q", i, cells[i], want[i])
		}
	}
}
