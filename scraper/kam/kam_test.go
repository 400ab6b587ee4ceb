package kam

import (
	"errors"
	"fmt"
	"testing"

	"ceni-cache/config"
	"ceni-cache/fetch"
	"ceni-cache/models"
	"ceni-cache/pdfextract"
	"ceni-cache/scraper"
	"ceni-cache/utils"
)

type fakeFetcher struct {
	pages map[string]string
	heads map[string]int
}

func (f *fakeFetcher) Text(url string) (string, error) {
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: %w", url, fetch.ErrNotFound)
	}
	return body, nil
}

func (f *fakeFetcher) Bytes(url string) ([]byte, error) {
	s, err := f.Text(url)
	return []byte(s), err
}

func (f *fakeFetcher) Head(url string) (int, error) {
	if status, ok := f.heads[url]; ok {
		return status, nil
	}
	return 404, nil
}

// fakeExtractor returns canned records for any PDF bytes.
type fakeExtractor struct {
	records []models.RawRecord
	calls   int
}

func (f *fakeExtractor) Extract([]byte) ([]models.RawRecord, error) {
	f.calls++
	return f.records, nil
}

func testDeps(ff *fakeFetcher, pdf pdfextract.Extractor) scraper.Deps {
	return scraper.Deps{
		Cfg:    &config.Config{PerPage: 100, MaxPages: 100},
		Logger: utils.NewLogger(false),
		Fetch:  ff,
		PDF:    pdf,
	}
}

func TestMarkets(t *testing.T) {
	root := `<html><body>
		<div class="markets_wrap">
			<h2>КАМ Аеродром</h2>
			<p>ул. Јане Сандански бр. 82</p>
			<a href="https://kam.com.mk/market/14/">Погледни цени</a>
		</div>
		<div class="markets_wrap">
			<h2>КАМ Бутел</h2>
			<a href="https://kam.com.mk/market/15/">Погледни цени</a>
		</div>
		<div class="markets_wrap"><p>card without name or link</p></div>
	</body></html>`
	ff := &fakeFetcher{pages: map[string]string{rootURL: root}}
	s := New(testDeps(ff, &fakeExtractor{}))

	markets, err := s.Markets()
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("markets: got %d, want 2", len(markets))
	}

	m := markets[0]
	if m.ID != "14" || m.Name != "КАМ Аеродром" || m.Address != "ул. Јане Сандански бр. 82" {
		t.Errorf("market 0: got %+v", m)
	}
}

func TestPricesPrefersHTMLTable(t *testing.T) {
	page := `<html><body>
		<table class="ceni_table">
			<tr><th>Артикл</th><th>Е.М</th><th>Цена</th></tr>
			<tr><td>Леб бел</td><td>500г</td><td>45 ден</td></tr>
			<tr><td>Млеко</td><td>1л</td><td>60 ден</td></tr>
		</table>
		<a href="/pdf/14.pdf">PDF</a>
	</body></html>`
	ff := &fakeFetcher{pages: map[string]string{"https://kam.com.mk/market/14/": page}}
	extractor := &fakeExtractor{records: []models.RawRecord{{Name: "од PDF", Unit: "1", Price: "1"}}}
	s := New(testDeps(ff, extractor))

	m := models.Market{Brand: "KAM", ID: "14", Name: "КАМ Аеродром", URL: "https://kam.com.mk/market/14/"}
	records, err := s.Prices(m)
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2 from the HTML table", len(records))
	}
	if extractor.calls != 0 {
		t.Errorf("PDF extractor must not run when the HTML table has prices")
	}
}

func TestPricesFallsBackToPDF(t *testing.T) {
	page := `<html><body>
		<p>Цените се достапни во PDF.</p>
		<a href="/pdf/14.pdf">Преземи</a>
	</body></html>`
	ff := &fakeFetcher{pages: map[string]string{
		"https://kam.com.mk/market/14/": page,
		"https://kam.com.mk/pdf/14.pdf": "%PDF-1.4 fake",
	}}
	extractor := &fakeExtractor{records: []models.RawRecord{{Name: "Леб бел", Unit: "500г", Price: "45"}}}
	s := New(testDeps(ff, extractor))

	m := models.Market{Brand: "KAM", ID: "14", Name: "КАМ Аеродром", URL: "https://kam.com.mk/market/14/"}
	records, err := s.Prices(m)
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("extractor calls: got %d, want 1", extractor.calls)
	}
	if len(records) != 1 || records[0].Name != "Леб бел" {
		t.Errorf("records: got %+v", records)
	}
}

func TestPricesProbesGuessedPDFURL(t *testing.T) {
	// No PDF anchor at all: the numeric tail of the market URL is probed.
	page := `<html><body><p>Ништо овде</p></body></html>`
	ff := &fakeFetcher{
		pages: map[string]string{
			"https://kam.com.mk/market/14/": page,
			"https://kam.com.mk/pdf/14.pdf": "%PDF-1.4 fake",
		},
		heads: map[string]int{"https://kam.com.mk/pdf/14.pdf": 200},
	}
	extractor := &fakeExtractor{records: []models.RawRecord{{Name: "Млеко", Unit: "1л", Price: "60"}}}
	s := New(testDeps(ff, extractor))

	m := models.Market{Brand: "KAM", ID: "14", Name: "КАМ Аеродром", URL: "https://kam.com.mk/market/14/"}
	records, err := s.Prices(m)
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1 via probed PDF", len(records))
	}
}

func TestPricesFindsPDFReferenceInMarkup(t *testing.T) {
	// The price sheet is referenced in script text rather than an anchor, and
	// the market URL carries no numeric tail to guess from.
	page := `<html><body>
		<p>Цените се во PDF</p>
		<script>var sheet = "pdf/14.pdf";</script>
	</body></html>`
	ff := &fakeFetcher{
		pages: map[string]string{
			"https://kam.com.mk/market/aerodrom/": page,
			"https://kam.com.mk/pdf/14.pdf":       "%PDF-1.4 fake",
		},
		heads: map[string]int{"https://kam.com.mk/pdf/14.pdf": 200},
	}
	extractor := &fakeExtractor{records: []models.RawRecord{{Name: "Путер", Unit: "250г", Price: "189"}}}
	s := New(testDeps(ff, extractor))

	m := models.Market{Brand: "KAM", ID: "aerodrom", Name: "КАМ Аеродром", URL: "https://kam.com.mk/market/aerodrom/"}
	records, err := s.Prices(m)
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Путер" {
		t.Errorf("records: got %+v", records)
	}
}

func TestPricesSurfacesUnavailablePDFSupport(t *testing.T) {
	page := `<html><body><a href="/pdf/14.pdf">Преземи</a></body></html>`
	ff := &fakeFetcher{pages: map[string]string{
		"https://kam.com.mk/market/14/": page,
		"https://kam.com.mk/pdf/14.pdf": "%PDF-1.4 fake",
	}}
	s := New(testDeps(ff, pdfextract.Disabled{}))

	m := models.Market{Brand: "KAM", ID: "14", Name: "КАМ Аеродром", URL: "https://kam.com.mk/market/14/"}
	records, err := s.Prices(m)
	if !errors.Is(err, pdfextract.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got records=%v err=%v", records, err)
	}
}

func TestAbsolutize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://kam.com.mk/pdf/14.pdf", "https://kam.com.mk/pdf/14.pdf"},
		{"/pdf/14.pdf", "https://kam.com.mk/pdf/14.pdf"},
		{"pdf/14.pdf", "https://kam.com.mk/pdf/14.pdf"},
	}
	for _, tt := range tests {
		if got := absolutize(tt.in); got != tt.want {
			t.Errorf("absolutize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
