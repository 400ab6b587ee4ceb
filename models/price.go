package models

// Market is one physical store/branch exposing its own price listing.
// It lives only for the duration of a run.
type Market struct {
	Brand   string
	ID      string
	Name    string
	Address string
	URL     string
}

// RawRecord holds unvalidated strings taken straight from a table row or a
// PDF line, before any normalization.
type RawRecord struct {
	Name  string
	Unit  string
	Price string
}

// PriceRecord is the normalized record ready for persistence. Price keeps the
// source's decimal formatting with the currency suffix stripped.
type PriceRecord struct {
	MarketID   string `json:"market_id"`
	MarketName string `json:"market_name"`
	Brand      string `json:"brand"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
	Price      string `json:"price"`
	Date       string `json:"date"`
}
