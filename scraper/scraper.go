package scraper

import (
	"ceni-cache/config"
	"ceni-cache/models"
	"ceni-cache/pdfextract"
	"ceni-cache/utils"
)

// Fetcher is the HTTP collaborator consumed by every source. Retries, timeout
// and politeness are its concern; sources never retry on their own.
type Fetcher interface {
	Text(url string) (string, error)
	Bytes(url string) ([]byte, error)
	Head(url string) (int, error)
}

// Source is one supermarket chain's pricing website.
type Source interface {
	// Name returns the brand name used for filtering and snapshot keys.
	Name() string
	// Markets locates the sellable locations for this source. A missing or
	// reshaped root page yields an empty slice, not an error.
	Markets() ([]models.Market, error)
	// Prices extracts all raw price records for one market.
	Prices(m models.Market) ([]models.RawRecord, error)
}

// Deps carries the shared collaborators handed to every source at
// construction. The logger is the run's diagnostic sink; there is no
// package-level state.
type Deps struct {
	Cfg    *config.Config
	Logger *utils.Logger
	Fetch  Fetcher
	PDF    pdfextract.Extractor
}

// AllMarkets aggregates market locations across sources. One source failing
// to locate its markets never affects the others; duplicate listing URLs are
// dropped.
func AllMarkets(sources []Source, logger *utils.Logger) []models.Market {
	seen := utils.NewURLSet()
	var all []models.Market

	for _, src := range sources {
		markets, err := src.Markets()
		if err != nil {
			logger.Error("[%s] failed to fetch markets: %v", src.Name(), err)
			continue
		}
		added := 0
		for _, m := range markets {
			if !seen.Add(m.URL) {
				continue
			}
			all = append(all, m)
			added++
		}
		logger.Info("[%s] found %d markets", src.Name(), added)
	}
	return all
}
