// Package kam scrapes KAM market prices. The market pages sometimes carry an
// HTML price table, but most of the time the price list is only published as
// a downloadable PDF, so this source falls back to PDF discovery and the PDF
// extraction chain.
package kam

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ceni-cache/models"
	"ceni-cache/pdfextract"
	"ceni-cache/scraper"
)

const (
	rootURL = "https://kam.com.mk/ceni-vo-marketi/"
	siteURL = "https://kam.com.mk"
	brand   = "KAM"
)

var (
	pdfLinkRe     = regexp.MustCompile(`/?pdf/(\d+)\.pdf`)
	trailingNumRe = regexp.MustCompile(`/(\d+)/?$`)
)

// Source implements scraper.Source for KAM.
type Source struct {
	deps scraper.Deps
}

// New creates a ready-to-use KAM source.
func New(deps scraper.Deps) *Source {
	return &Source{deps: deps}
}

func (s *Source) Name() string { return brand }

// Markets parses the market cards on the root page: an h2 with the market
// name, a p with the address and an anchor whose trailing path segment is the
// market id.
func (s *Source) Markets() ([]models.Market, error) {
	body, err := s.deps.Fetch.Text(rootURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var markets []models.Market
	doc.Find(".markets_wrap").Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find("h2").First().Text())
		href, _ := card.Find("a").First().Attr("href")
		if name == "" || href == "" {
			return
		}

		trimmed := strings.TrimRight(href, "/")
		id := trimmed[strings.LastIndex(trimmed, "/")+1:]

		markets = append(markets, models.Market{
			Brand:   brand,
			ID:      id,
			Name:    name,
			Address: strings.TrimSpace(card.Find("p").First().Text()),
			URL:     href,
		})
	})

	if len(markets) == 0 {
		s.deps.Logger.Error("[kam] no market cards found on root page")
	}
	return markets, nil
}

// Prices reads the market page's HTML price table when present and falls back
// to discovering and extracting the PDF price sheet.
func (s *Source) Prices(m models.Market) ([]models.RawRecord, error) {
	body, err := s.deps.Fetch.Text(m.URL)
	if err != nil {
		s.deps.Logger.Warn("[kam] %s page fetch failed: %v", m.Name, err)
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	records := s.tableRecords(doc)
	if len(records) > 0 {
		s.deps.Logger.Info("[kam] %s: %d prices in HTML table", m.Name, len(records))
		return records, nil
	}

	pdfURL := s.findPDFURL(doc, m, body)
	if pdfURL == "" {
		s.deps.Logger.Info("[kam] %s: no PDF price list found", m.Name)
		return nil, nil
	}

	s.deps.Logger.Info("[kam] %s has PDF price list: %s", m.Name, pdfURL)
	data, err := s.deps.Fetch.Bytes(pdfURL)
	if err != nil {
		s.deps.Logger.Warn("[kam] %s: PDF download failed: %v", m.Name, err)
		return nil, nil
	}

	records, err = s.deps.PDF.Extract(data)
	if err != nil {
		if errors.Is(err, pdfextract.ErrUnavailable) {
			return nil, fmt.Errorf("kam %s: %w", m.Name, err)
		}
		s.deps.Logger.Warn("[kam] %s: PDF extraction failed: %v", m.Name, err)
		return nil, nil
	}
	return records, nil
}

// tableRecords pulls records out of every decorated price table on the page.
// The first row of each table is a header row.
func (s *Source) tableRecords(doc *goquery.Document) []models.RawRecord {
	var out []models.RawRecord
	doc.Find(".ceni_table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			if rec, ok := scraper.RecordFromRow(row); ok {
				out = append(out, rec)
			}
		})
	})
	return out
}

// findPDFURL hunts for the market's PDF price sheet: anchors matching the
// /pdf/<id>.pdf pattern, then a probe built from the numeric tail of the
// market URL, then the same pattern anywhere in the page markup, and finally
// any .pdf anchor at all.
func (s *Source) findPDFURL(doc *goquery.Document, m models.Market, body string) string {
	var candidate string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if pdfLinkRe.MatchString(href) {
			candidate = href
			return false
		}
		return true
	})
	if candidate != "" {
		return absolutize(candidate)
	}

	if nums := trailingNumRe.FindStringSubmatch(m.URL); nums != nil {
		if url := s.probe(siteURL + "/pdf/" + nums[1] + ".pdf"); url != "" {
			return url
		}
	}

	if nums := pdfLinkRe.FindStringSubmatch(body); nums != nil {
		if url := s.probe(siteURL + "/pdf/" + nums[1] + ".pdf"); url != "" {
			return url
		}
	}

	doc.Find(`a[href$=".pdf"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href != "" {
			candidate = href
			return false
		}
		return true
	})
	if candidate != "" {
		s.deps.Logger.Warn("[kam] %s: falling back to generic PDF link %s", m.Name, candidate)
		return absolutize(candidate)
	}
	return ""
}

// probe checks a guessed PDF URL with a HEAD request.
func (s *Source) probe(url string) string {
	status, err := s.deps.Fetch.Head(url)
	if err != nil {
		s.deps.Logger.Debug("[kam] probe %s failed: %v", url, err)
		return ""
	}
	if status != http.StatusOK {
		s.deps.Logger.Debug("[kam] probe %s returned status %d", url, status)
		return ""
	}
	return url
}

func absolutize(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if strings.HasPrefix(url, "/") {
		return siteURL + url
	}
	return siteURL + "/" + url
}
