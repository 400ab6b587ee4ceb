package pdfextract

import (
	"regexp"
	"strings"
)

// Vocabulary holds the keyword tables driving column identification, header
// rejection and unit detection. Sources with different header wording can be
// added by swapping these lists, without touching the extraction logic.
type Vocabulary struct {
	// NameHeaders mark a cell or line as the article/product column.
	NameHeaders []string
	// UnitHeaders mark the unit-of-measure column.
	UnitHeaders []string
	// PriceHeaders identify the price column. Includes currency tokens so a
	// data cell like "45 ден" still points at the right column.
	PriceHeaders []string
	// PriceRejects are the header-only price words used to throw away header
	// rows. Deliberately excludes currency tokens.
	PriceRejects []string
	// Currency tokens that may trail a price ("45 ден", "45 den").
	Currency []string
	// Units are measure abbreviations, longest variants first.
	Units []string
	// SkipTerms mark boilerplate lines (titles, footers, validity ranges).
	SkipTerms []string
}

// DefaultVocabulary covers the Macedonian price sheets currently scraped.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		NameHeaders:  []string{"артикл", "производ", "име"},
		UnitHeaders:  []string{"единица", "мерка", "е.м", "ем"},
		PriceHeaders: []string{"цена", "ден", "денари"},
		PriceRejects: []string{"цена", "ценa"},
		Currency:     []string{"ден", "den", "мкд", "mkd"},
		Units:        []string{"кг", "kg", "мл", "ml", "бр", "br", "пар", "пак", "г", "g", "л", "l"},
		SkipTerms:    []string{"артикл", "производ", "име", "цена", "страна", "стр.", "цени во маркети", "важи до"},
	}
}

// priceRegexp matches a numeric price followed by a currency token, e.g.
// "45 ден", "45,00 ден." or "45.00 den". Group 1 is the numeric part.
func (v Vocabulary) priceRegexp() *regexp.Regexp {
	return regexp.MustCompile(`(?i)(\d+[.,]?\d*)\s*(?:` + alternation(v.Currency) + `)\.?`)
}

// unitRegexp matches a measure like "500г", "1 kg" or "6 пак" at a token
// boundary. Group 1 is the whole measure.
func (v Vocabulary) unitRegexp() *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|\s)(\d*[.,]?\d*\s?(?:` + alternation(v.Units) + `)\.?)(?:\s|$)`)
}

func alternation(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
