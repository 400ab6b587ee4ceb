// Package pdfextract turns raw PDF price sheets into raw records through an
// ordered chain of extraction strategies, each more tolerant of broken layout
// than the one before it.
package pdfextract

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/ledongthuc/pdf"

	"ceni-cache/models"
	"ceni-cache/utils"
)

// ErrUnavailable signals that PDF support is switched off in this runtime.
// Callers must treat it distinctly from an empty price list.
var ErrUnavailable = errors.New("pdfextract: pdf support unavailable")

// Extractor is the PDF collaborator boundary consumed by sources.
type Extractor interface {
	Extract(data []byte) ([]models.RawRecord, error)
}

// Disabled is the Extractor used when PDF support is turned off. Every call
// reports ErrUnavailable so "no PDF support" is never read as "empty sheet".
type Disabled struct{}

func (Disabled) Extract([]byte) ([]models.RawRecord, error) {
	return nil, ErrUnavailable
}

// Chain is the real Extractor: structured table rows first, then plain text
// lines, then the tolerant line parser. A later strategy runs only when every
// earlier one came back empty.
type Chain struct {
	logger *utils.Logger
	vocab  Vocabulary

	priceRe      *regexp.Regexp
	unitRe       *regexp.Regexp
	multiSpaceRe *regexp.Regexp
}

// New builds a Chain with the default vocabulary.
func New(logger *utils.Logger) *Chain {
	return NewWithVocabulary(logger, DefaultVocabulary())
}

// NewWithVocabulary builds a Chain with a custom keyword vocabulary.
func NewWithVocabulary(logger *utils.Logger, vocab Vocabulary) *Chain {
	return &Chain{
		logger:       logger,
		vocab:        vocab,
		priceRe:      vocab.priceRegexp(),
		unitRe:       vocab.unitRegexp(),
		multiSpaceRe: regexp.MustCompile(`\s{2,}|\t`),
	}
}

type strategy struct {
	name string
	run  func(*pdf.Reader) []models.RawRecord
}

func (c *Chain) strategies() []strategy {
	return []strategy{
		{"structured-table", c.structuredRows},
		{"plain-text", c.plainTextLines},
		{"tolerant", c.tolerantLines},
	}
}

// Extract runs the strategy chain over the given PDF bytes. The reader library
// wants a file on disk, so the bytes are materialized into a temp file that is
// removed on every exit path.
func (c *Chain) Extract(data []byte) ([]models.RawRecord, error) {
	tmp, err := os.CreateTemp("", "pricelist-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("pdfextract: temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("pdfextract: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("pdfextract: close temp file: %w", err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfextract: open pdf: %w", err)
	}
	defer f.Close()

	return c.runChain(reader, c.strategies()), nil
}

// runChain tries each strategy in order and short-circuits on the first one
// that yields records.
func (c *Chain) runChain(r *pdf.Reader, strategies []strategy) []models.RawRecord {
	for _, s := range strategies {
		records := c.runSafely(r, s)
		if len(records) > 0 {
			c.logger.Debug("[pdf] %s strategy extracted %d records", s.name, len(records))
			return records
		}
		c.logger.Debug("[pdf] %s strategy found nothing, falling back", s.name)
	}
	return nil
}

// runSafely guards a strategy invocation. The pdf reader panics on some
// malformed files.
func (c *Chain) runSafely(r *pdf.Reader, s strategy) (records []models.RawRecord) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Warn("[pdf] %s strategy panicked: %v", s.name, p)
			records = nil
		}
	}()
	return s.run(r)
}
