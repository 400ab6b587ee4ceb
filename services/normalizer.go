package services

import (
	"strings"

	"ceni-cache/models"
	"ceni-cache/utils"
)

// currencySuffixes are the denomination tokens stripped from price fields, in
// both scripts. Longer variants come first so "ден." is removed before "ден".
var currencySuffixes = []string{"ден.", "ден", "den.", "den", "мкд", "mkd"}

// Normalizer maps raw extracted records onto canonical price records.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize turns one raw record into a canonical record. Records whose name
// or price is empty after trimming are discarded (nil), never emitted.
func (n *Normalizer) Normalize(raw models.RawRecord, m models.Market, date string) *models.PriceRecord {
	name := strings.TrimSpace(raw.Name)
	price := StripCurrency(raw.Price)
	if name == "" || price == "" {
		return nil
	}

	return &models.PriceRecord{
		MarketID:   m.ID,
		MarketName: m.Name,
		Brand:      m.Brand,
		Name:       name,
		Unit:       strings.TrimSpace(raw.Unit),
		Price:      price,
		Date:       date,
	}
}

// NormalizeAll normalizes a market's raw records, dropping the discards.
func (n *Normalizer) NormalizeAll(raw []models.RawRecord, m models.Market, date string) []*models.PriceRecord {
	out := make([]*models.PriceRecord, 0, len(raw))
	for _, r := range raw {
		if rec := n.Normalize(r, m, date); rec != nil {
			out = append(out, rec)
		}
	}
	if dropped := len(raw) - len(out); dropped > 0 {
		n.logger.Debug("[normalizer] %s %s: dropped %d of %d records",
			m.Brand, m.Name, dropped, len(raw))
	}
	return out
}

// StripCurrency removes trailing denomination tokens and surrounding
// whitespace from a price string. Idempotent.
func StripCurrency(price string) string {
	s := strings.TrimSpace(price)
	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(s)
		for _, suffix := range currencySuffixes {
			if strings.HasSuffix(lower, suffix) {
				s = strings.TrimSpace(s[:len(s)-len(suffix)])
				changed = true
				break
			}
		}
	}
	return s
}
