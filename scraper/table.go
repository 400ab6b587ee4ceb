package scraper

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ceni-cache/fetch"
	"ceni-cache/models"
	"ceni-cache/utils"
)

// totalHintRe matches the "of N" part of a pagination summary such as
// "Прикажани 1 до 100 од 1371".
var totalHintRe = regexp.MustCompile(`(?i)(?:од|of)\s+(\d+)`)

// nextControlSelectors are tried in order to find a usable next-page control.
var nextControlSelectors = []string{
	`.pagination .page-item:not(.disabled) a[aria-label='Next']`,
	`.pagination .page-item:not(.disabled) a.page-link[aria-label='Next']`,
	`.pagination .page-item:not(.disabled) a[aria-label='Следна']`,
}

// ExtractRows pulls raw records out of the first row selector that matches
// anything. Selectors are a fallback chain from the source's decorated markup
// down to bare table rows; results from different selectors are never merged.
func ExtractRows(doc *goquery.Document, selectors []string, skipHeader bool) []models.RawRecord {
	for _, sel := range selectors {
		rows := doc.Find(sel)
		if rows.Length() == 0 {
			continue
		}

		var out []models.RawRecord
		rows.Each(func(i int, row *goquery.Selection) {
			if skipHeader && i == 0 {
				return
			}
			if rec, ok := RecordFromRow(row); ok {
				out = append(out, rec)
			}
		})
		return out
	}
	return nil
}

// RecordFromRow maps the first three cells of a table row onto a RawRecord.
// Rows with fewer than three cells are skipped; extra cells are ignored.
func RecordFromRow(row *goquery.Selection) (models.RawRecord, bool) {
	cells := row.Find("td")
	if cells.Length() < 3 {
		return models.RawRecord{}, false
	}
	return models.RawRecord{
		Name:  strings.TrimSpace(cells.Eq(0).Text()),
		Unit:  strings.TrimSpace(cells.Eq(1).Text()),
		Price: strings.TrimSpace(cells.Eq(2).Text()),
	}, true
}

// TotalHint reads the total item count from the pagination summary, if the
// page exposes one.
func TotalHint(doc *goquery.Document) (int, bool) {
	info := doc.Find(".pagination-info").First()
	if info.Length() == 0 {
		return 0, false
	}
	m := totalHintRe.FindStringSubmatch(info.Text())
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// HasNextControl reports whether the page links a further page: first via the
// known non-disabled next-button variants, then via any anchor whose href
// carries page=<nextPage>.
func HasNextControl(doc *goquery.Document, nextPage int) bool {
	for _, sel := range nextControlSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}

	next := strconv.Itoa(nextPage)
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		if u.Query().Get("page") == next {
			found = true
			return false
		}
		return true
	})
	return found
}

// Paginator walks a paginated price table page by page and accumulates raw
// records until the listing is exhausted.
//
// Termination precedence after a page yields records: a satisfied total-count
// hint stops, then a missing next-page control stops. A page with zero
// qualifying records always stops, even when a next control is present —
// uncooperative sites ship off-by-one pagination links. Fetch failures stop
// pagination and keep whatever was accumulated.
type Paginator struct {
	Fetch    Fetcher
	Logger   *utils.Logger
	MaxPages int
	// PageURL builds the listing URL for a 1-based page number.
	PageURL func(page int) string
	// Selectors is the row-selector fallback chain for this source.
	Selectors []string
	// SkipHeader drops the first row of the matched table (sources whose
	// header row is made of td cells).
	SkipHeader bool
	// NextControl decides whether a further page is linked. Nil means
	// paginate until an empty page or a fetch failure ends the sequence.
	NextControl func(doc *goquery.Document, nextPage int) bool
}

// Run fetches pages starting at 1 and returns every raw record found. It
// never returns an error: partial results are valid results.
func (p *Paginator) Run(label string) []models.RawRecord {
	var records []models.RawRecord

	for page := 1; page <= p.MaxPages; page++ {
		pageURL := p.PageURL(page)
		body, err := p.Fetch.Text(pageURL)
		if err != nil {
			if errors.Is(err, fetch.ErrNotFound) {
				p.Logger.Info("[%s] reached end of pages at page %d", label, page)
			} else {
				p.Logger.Warn("[%s] page %d fetch failed, keeping %d records: %v",
					label, page, len(records), err)
			}
			return records
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			p.Logger.Warn("[%s] page %d parse failed, keeping %d records: %v",
				label, page, len(records), err)
			return records
		}

		pageRecords := ExtractRows(doc, p.Selectors, p.SkipHeader)
		if len(pageRecords) == 0 {
			p.Logger.Info("[%s] page %d is empty — listing exhausted", label, page)
			return records
		}
		records = append(records, pageRecords...)
		p.Logger.Debug("[%s] page %d yielded %d records (%d total)",
			label, page, len(pageRecords), len(records))

		if total, ok := TotalHint(doc); ok && len(records) >= total {
			p.Logger.Info("[%s] reached all %d listed records", label, total)
			return records
		}
		if p.NextControl != nil && !p.NextControl(doc, page+1) {
			p.Logger.Info("[%s] no next-page control after page %d", label, page)
			return records
		}
	}

	p.Logger.Warn("[%s] reached page ceiling (%d) — returning partial results",
		label, p.MaxPages)
	return records
}
