package services

import (
	"fmt"
	"sort"
	"strings"

	"ceni-cache/models"
	"ceni-cache/utils"
)

// RunReport summarizes one snapshot run: how much each market yielded and
// which markets look suspicious. It is a post-run diagnostic only and never
// blocks persistence.
type RunReport struct {
	TotalRecords   int
	TotalMarkets   int
	RecordsByBrand map[string]int
	CountByMarket  map[string]int
	// LowCount lists markets that yielded fewer records than the threshold,
	// including those that yielded nothing at all.
	LowCount []string
}

// ReportService builds and prints run reports.
type ReportService struct {
	logger    *utils.Logger
	threshold int
}

// NewReportService creates a ReportService. Markets below threshold records
// are flagged as data-quality shortfalls.
func NewReportService(logger *utils.Logger, threshold int) *ReportService {
	return &ReportService{logger: logger, threshold: threshold}
}

// Generate computes the run report over the collected records and the full
// market list (so silent markets show up too).
func (s *ReportService) Generate(records []*models.PriceRecord, markets []models.Market) *RunReport {
	report := &RunReport{
		TotalRecords:   len(records),
		TotalMarkets:   len(markets),
		RecordsByBrand: make(map[string]int),
		CountByMarket:  make(map[string]int),
	}

	for _, r := range records {
		report.RecordsByBrand[r.Brand]++
		report.CountByMarket[marketKey(r.Brand, r.MarketName)]++
	}

	for _, m := range markets {
		key := marketKey(m.Brand, m.Name)
		if report.CountByMarket[key] < s.threshold {
			report.LowCount = append(report.LowCount, key)
		}
	}
	sort.Strings(report.LowCount)

	return report
}

// Print logs the report through the run's diagnostic sink.
func (s *ReportService) Print(r *RunReport) {
	s.logger.Info("=== Run summary: %d records from %d markets ===",
		r.TotalRecords, r.TotalMarkets)

	brands := make([]string, 0, len(r.RecordsByBrand))
	for b := range r.RecordsByBrand {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	for _, b := range brands {
		s.logger.Info("  %-10s %d records", b, r.RecordsByBrand[b])
	}

	for _, key := range r.LowCount {
		s.logger.Warn("  low record count (< %d): %s [%d]",
			s.threshold, key, r.CountByMarket[key])
	}
	if len(r.LowCount) == 0 {
		s.logger.Info("  no data-quality shortfalls")
	}
}

func marketKey(brand, name string) string {
	return fmt.Sprintf("%s/%s", brand, strings.TrimSpace(name))
}
