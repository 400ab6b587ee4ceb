package pdfextract

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"ceni-cache/models"
)

// cellGap is the horizontal distance (points) beyond which two text fragments
// on the same row belong to different table cells.
const cellGap = 12.0

// structuredRows is the first strategy: table detection on the PDF's visual
// layout. Text fragments are grouped by row, clustered into cells by X gaps,
// and mapped onto (name, unit, price) via the header vocabulary.
func (c *Chain) structuredRows(r *pdf.Reader) []models.RawRecord {
	var out []models.RawRecord
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			cells := clusterCells(row.Content)
			if len(cells) < 3 {
				continue
			}
			if rec, ok := c.recordFromCells(cells); ok {
				out = append(out, rec)
			}
		}
	}
	return out
}

// clusterCells joins horizontally adjacent fragments and starts a new cell
// whenever the gap to the previous fragment exceeds cellGap.
func clusterCells(texts pdf.TextHorizontal) []string {
	var cells []string
	var cur strings.Builder
	var prevEnd float64

	for i, t := range texts {
		if i > 0 {
			gap := t.X - prevEnd
			if gap > cellGap {
				cells = append(cells, strings.TrimSpace(cur.String()))
				cur.Reset()
			} else if gap > 1 {
				cur.WriteString(" ")
			}
		}
		cur.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	if cur.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cur.String()))
	}
	return cells
}

// recordFromCells locates the name/unit/price cells by header keywords and
// falls back to positional mapping (0, 1, 2) when nothing matches. Rows whose
// own values look like headers are rejected: those are the header rows.
func (c *Chain) recordFromCells(cells []string) (models.RawRecord, bool) {
	nameIdx, unitIdx, priceIdx := -1, -1, -1
	for i, cell := range cells {
		lc := strings.ToLower(strings.TrimSpace(cell))
		if utf8.RuneCountInString(lc) < 2 {
			continue
		}
		switch {
		case nameIdx == -1 && containsAny(lc, c.vocab.NameHeaders):
			nameIdx = i
		case unitIdx == -1 && containsAny(lc, c.vocab.UnitHeaders):
			unitIdx = i
		case priceIdx == -1 && containsAny(lc, c.vocab.PriceHeaders):
			priceIdx = i
		}
	}

	if nameIdx == -1 {
		nameIdx, unitIdx, priceIdx = 0, 1, 2
	}
	if unitIdx == -1 || priceIdx == -1 ||
		nameIdx >= len(cells) || unitIdx >= len(cells) || priceIdx >= len(cells) {
		return models.RawRecord{}, false
	}

	name := strings.TrimSpace(cells[nameIdx])
	unit := strings.TrimSpace(cells[unitIdx])
	price := strings.TrimSpace(cells[priceIdx])
	if name == "" || unit == "" || price == "" {
		return models.RawRecord{}, false
	}
	if containsAny(strings.ToLower(name), c.vocab.NameHeaders) ||
		containsAny(strings.ToLower(unit), c.vocab.UnitHeaders) ||
		containsAny(strings.ToLower(price), c.vocab.PriceRejects) {
		return models.RawRecord{}, false
	}

	return models.RawRecord{Name: name, Unit: unit, Price: price}, true
}

// plainTextLines is the second strategy: raw text split into lines, each
// scanned for a trailing price pattern, with the prefix split on runs of two
// or more whitespace characters into name and unit candidates.
func (c *Chain) plainTextLines(r *pdf.Reader) []models.RawRecord {
	return c.recordsFromText(readPlainText(r))
}

func (c *Chain) recordsFromText(text string) []models.RawRecord {
	var out []models.RawRecord
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < 5 {
			continue
		}

		lc := strings.ToLower(line)
		if containsAny(lc, c.vocab.NameHeaders) || containsAny(lc, c.vocab.UnitHeaders) {
			continue
		}

		loc := c.priceRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		price := line[loc[2]:loc[3]]

		prefix := strings.TrimSpace(line[:loc[0]])
		parts := c.multiSpaceRe.Split(prefix, -1)
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		unit := strings.TrimSpace(parts[1])
		if name == "" {
			continue
		}

		out = append(out, models.RawRecord{Name: name, Unit: unit, Price: price})
	}
	return out
}

// tolerantLines is the last strategy, for compressed layouts whose text comes
// out with collapsed spacing. Units are searched anywhere in the prefix via
// the measure abbreviations; failing that, the last whitespace-delimited
// token counts as the unit only when it contains a digit.
func (c *Chain) tolerantLines(r *pdf.Reader) []models.RawRecord {
	return c.tolerantRecordsFromText(readPlainText(r))
}

func (c *Chain) tolerantRecordsFromText(text string) []models.RawRecord {
	var out []models.RawRecord
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if containsAny(strings.ToLower(line), c.vocab.SkipTerms) {
			continue
		}

		loc := c.priceRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		price := strings.ReplaceAll(line[loc[2]:loc[3]], ",", ".")
		prefix := strings.TrimSpace(line[:loc[0]])

		name := prefix
		unit := ""
		if m := c.unitRe.FindStringSubmatchIndex(prefix); m != nil {
			unit = strings.TrimSpace(prefix[m[2]:m[3]])
			name = strings.TrimSpace(prefix[:m[2]])
		} else {
			parts := c.multiSpaceRe.Split(prefix, -1)
			if len(parts) >= 2 {
				last := strings.TrimSpace(parts[len(parts)-1])
				if strings.ContainsFunc(last, unicode.IsDigit) {
					unit = last
					name = strings.TrimSpace(strings.Join(parts[:len(parts)-1], " "))
				}
			}
		}

		if name == "" || isNumeric(name) || utf8.RuneCountInString(name) <= 2 {
			continue
		}
		out = append(out, models.RawRecord{Name: name, Unit: unit, Price: price})
	}
	return out
}

func readPlainText(r *pdf.Reader) string {
	br, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	b, err := io.ReadAll(br)
	if err != nil {
		return ""
	}
	return string(b)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
