package main

import (
	"os"
	"strings"
	"sync"
	"time"

	"ceni-cache/config"
	"ceni-cache/fetch"
	"ceni-cache/models"
	"ceni-cache/pdfextract"
	"ceni-cache/scraper"
	"ceni-cache/scraper/kam"
	"ceni-cache/scraper/stokomak"
	"ceni-cache/scraper/tinex"
	"ceni-cache/scraper/vero"
	"ceni-cache/services"
	"ceni-cache/storage"
	"ceni-cache/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Verbose)
	date := time.Now().Format("2006-01-02")

	logger.Info("=== ceni-cache snapshot run for %s ===", date)
	logger.Info("Config — workers: %d | politeness: %dms | retries: %d | page ceiling: %d",
		cfg.MaxConcurrency, cfg.PolitenessMs, cfg.MaxRetries, cfg.MaxPages)
	if cfg.BrandFilter != "" {
		logger.Info("Filtering for brand: %s", cfg.BrandFilter)
	}
	if cfg.MarketID != "" {
		logger.Info("Filtering for market ID: %s", cfg.MarketID)
	}
	if cfg.TestMode {
		logger.Info("Running in TEST MODE — one market per brand")
	}

	var pdf pdfextract.Extractor = pdfextract.New(logger)
	if !cfg.PDFSupport {
		logger.Warn("PDF support disabled — PDF price lists will be skipped")
		pdf = pdfextract.Disabled{}
	}

	deps := scraper.Deps{
		Cfg:    cfg,
		Logger: logger,
		Fetch:  fetch.NewClient(cfg, logger),
		PDF:    pdf,
	}

	sources := []scraper.Source{
		tinex.New(deps),
		kam.New(deps),
		vero.New(deps),
		stokomak.New(deps),
	}
	bySource := make(map[string]scraper.Source, len(sources))
	for _, src := range sources {
		bySource[strings.ToLower(src.Name())] = src
	}

	markets := scraper.AllMarkets(sources, logger)
	markets = filterMarkets(markets, cfg, logger)
	if len(markets) == 0 {
		logger.Warn("No markets found after applying filters")
		return
	}

	records := fetchAllPrices(markets, bySource, cfg, logger, date)
	if len(records) == 0 {
		logger.Warn("No price data collected")
		return
	}

	writers := buildWriters(cfg, logger)
	defer func() {
		for _, w := range writers {
			_ = w.Close()
		}
	}()

	writeSnapshots(writers, date, records, logger)

	report := services.NewReportService(logger, cfg.LowCountThreshold)
	report.Print(report.Generate(records, markets))

	logger.Info("=== Run completed: %d prices from %d markets ===", len(records), len(markets))
}

// fetchAllPrices fans markets out over the worker pool, one unit of work per
// market. A failed market logs and yields nothing; it never aborts the run.
func fetchAllPrices(markets []models.Market, bySource map[string]scraper.Source,
	cfg *config.Config, logger *utils.Logger, date string) []*models.PriceRecord {

	normalizer := services.NewNormalizer(logger)
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.PolitenessMs)

	var mu sync.Mutex
	var all []*models.PriceRecord

	for _, m := range markets {
		m := m
		src, ok := bySource[strings.ToLower(m.Brand)]
		if !ok {
			logger.Warn("Unknown brand: %s", m.Brand)
			continue
		}
		pool.Submit(func() {
			raw, err := src.Prices(m)
			if err != nil {
				logger.Error("[%s] %s: %v", m.Brand, m.Name, err)
				return
			}
			records := normalizer.NormalizeAll(raw, m, date)

			mu.Lock()
			all = append(all, records...)
			mu.Unlock()

			logger.Info("Completed %s — %s: %d prices", m.Brand, m.Name, len(records))
		})
	}
	pool.Wait()

	return all
}

func filterMarkets(markets []models.Market, cfg *config.Config, logger *utils.Logger) []models.Market {
	if cfg.BrandFilter != "" {
		var kept []models.Market
		for _, m := range markets {
			if strings.EqualFold(m.Brand, cfg.BrandFilter) {
				kept = append(kept, m)
			}
		}
		markets = kept
		logger.Info("Filtered to %d %s markets", len(markets), cfg.BrandFilter)
	}

	if cfg.MarketID != "" {
		var kept []models.Market
		for _, m := range markets {
			if m.ID == cfg.MarketID {
				kept = append(kept, m)
			}
		}
		markets = kept
		logger.Info("Filtered to market ID %s: %d markets", cfg.MarketID, len(markets))
	}

	if cfg.TestMode {
		var kept []models.Market
		seen := make(map[string]struct{})
		for _, m := range markets {
			if _, ok := seen[m.Brand]; ok {
				continue
			}
			seen[m.Brand] = struct{}{}
			kept = append(kept, m)
		}
		markets = kept
		logger.Info("TEST MODE: limited to %d markets (one per brand)", len(markets))
	}

	return markets
}

func buildWriters(cfg *config.Config, logger *utils.Logger) []storage.SnapshotWriter {
	var writers []storage.SnapshotWriter

	csvWriter, err := storage.NewCSVWriter(cfg.CacheDir)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	writers = append(writers, csvWriter)

	jsonWriter, err := storage.NewJSONWriter(cfg.CacheDir)
	if err != nil {
		logger.Error("Failed to create JSON writer: %v", err)
		os.Exit(1)
	}
	writers = append(writers, jsonWriter)

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL, continuing without it: %v", err)
		} else {
			writers = append(writers, pgWriter)
		}
	}

	return writers
}

// writeSnapshots persists the combined snapshot plus one subset per brand.
func writeSnapshots(writers []storage.SnapshotWriter, date string,
	records []*models.PriceRecord, logger *utils.Logger) {

	byBrand := make(map[string][]*models.PriceRecord)
	for _, r := range records {
		byBrand[r.Brand] = append(byBrand[r.Brand], r)
	}

	for _, w := range writers {
		if err := w.Write(date, "", records); err != nil {
			logger.Error("Combined snapshot write failed: %v", err)
			continue
		}
		for brand, subset := range byBrand {
			if err := w.Write(date, brand, subset); err != nil {
				logger.Error("%s snapshot write failed: %v", brand, err)
			}
		}
	}
	logger.Info("Saved %d records (%d brand subsets) to %s-dated snapshots",
		len(records), len(byBrand), date)
}
