// Package tinex scrapes the Tinex price portal: a dropdown of market
// locations, each with a paginated price table.
package tinex

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ceni-cache/models"
	"ceni-cache/scraper"
)

const (
	rootURL = "http://ceni.tinex.mk/"
	brand   = "Tinex"
)

var rowSelectors = []string{"table.table tbody tr", "table tbody tr", "table tr"}

// Source implements scraper.Source for Tinex.
type Source struct {
	deps scraper.Deps
}

// New creates a ready-to-use Tinex source.
func New(deps scraper.Deps) *Source {
	return &Source{deps: deps}
}

func (s *Source) Name() string { return brand }

// Markets parses the org dropdown on the root page into market locations.
func (s *Source) Markets() ([]models.Market, error) {
	body, err := s.deps.Fetch.Text(rootURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	sel := doc.Find("select[name='org']")
	if sel.Length() == 0 {
		s.deps.Logger.Error("[tinex] could not find market selector on root page")
		return nil, nil
	}

	var markets []models.Market
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		val, _ := opt.Attr("value")
		if val == "" {
			return
		}
		markets = append(markets, models.Market{
			Brand: brand,
			ID:    val,
			Name:  strings.TrimSpace(opt.Text()),
			URL:   fmt.Sprintf("%s?org=%s&perPage=%d", rootURL, val, s.deps.Cfg.PerPage),
		})
	})
	return markets, nil
}

// Prices walks the market's paginated price table.
func (s *Source) Prices(m models.Market) ([]models.RawRecord, error) {
	pager := &scraper.Paginator{
		Fetch:    s.deps.Fetch,
		Logger:   s.deps.Logger,
		MaxPages: s.deps.Cfg.MaxPages,
		PageURL: func(page int) string {
			return fmt.Sprintf("%s?org=%s&page=%d&perPage=%d", rootURL, m.ID, page, s.deps.Cfg.PerPage)
		},
		Selectors:   rowSelectors,
		NextControl: scraper.HasNextControl,
	}
	return pager.Run("tinex "+m.Name), nil
}
