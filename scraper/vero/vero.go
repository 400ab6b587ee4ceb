// Package vero scrapes the Vero price list site: a root page of anchors named
// by numeric prefix, with per-market pages numbered <id>_<page>.html. There is
// no pagination control; the sequence ends at a 404 or a header-only table.
package vero

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"ceni-cache/models"
	"ceni-cache/scraper"
)

const (
	rootURL = "https://pricelist.vero.com.mk/"
	brand   = "Vero"
)

// Source implements scraper.Source for Vero.
type Source struct {
	deps scraper.Deps
}

// New creates a ready-to-use Vero source.
func New(deps scraper.Deps) *Source {
	return &Source{deps: deps}
}

func (s *Source) Name() string { return brand }

// Markets collects the digit-prefixed .html anchors on the root page, one per
// market. A market id like "89_1" carries the listing base "89".
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
	doc.Find(`a[href$=".html"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || !unicode.IsDigit(rune(href[0])) {
			return
		}
		markets = append(markets, models.Market{
			Brand: brand,
			ID:    strings.TrimSuffix(href, ".html"),
			Name:  strings.TrimSpace(a.Text()),
			URL:   rootURL + href,
		})
	})

	if len(markets) == 0 {
		s.deps.Logger.Error("[vero] no market links found on root page")
	}
	return markets, nil
}

// Prices walks the numbered page sequence for one market. The first table row
// is a header row built from td cells, so it is skipped explicitly.
func (s *Source) Prices(m models.Market) ([]models.RawRecord, error) {
	base := m.ID
	if i := strings.Index(base, "_"); i >= 0 {
		base = base[:i]
	}

	pager := &scraper.Paginator{
		Fetch:    s.deps.Fetch,
		Logger:   s.deps.Logger,
		MaxPages: s.deps.Cfg.MaxPages,
		PageURL: func(page int) string {
			return fmt.Sprintf("%s%s_%d.html", rootURL, base, page)
		},
		Selectors:  []string{"table tr"},
		SkipHeader: true,
	}
	return pager.Run("vero "+m.Name), nil
}
