package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is the price of a product at a single retailer
type PriceQuote struct {
	Retailer   string          `json:"retailer"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"` // ISO 4217 code, e.g. "USD"
	ProductURL string          `json:"productUrl"`
}

// Validate checks the quote invariants: non-empty retailer and a non-negative price
func (q PriceQuote) Validate() error {
	if strings.TrimSpace(q.Retailer) == "" {
		return fmt.Errorf("%w: quote has no retailer", ErrInvalidRequest)
	}
	if q.Price.IsNegative() {
		return fmt.Errorf("%w: negative price %s from %s", ErrInvalidRequest, q.Price, q.Retailer)
	}
	return nil
}

// SourceFailure records a quote source that failed during aggregation
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// PriceComparison is the aggregated output of all quote sources for one product
type PriceComparison struct {
	ProductName string          `json:"productName"`
	Quotes      []PriceQuote    `json:"quotes"`
	Failures    []SourceFailure `json:"failures,omitempty"`
	Source      string          `json:"source"` // "Live" or "Cache"
	CachedAt    time.Time       `json:"cachedAt,omitempty"`
}

// SortQuotesByPrice returns a copy of quotes ordered by ascending price.
// Quotes with equal prices keep their original relative order.
func SortQuotesByPrice(quotes []PriceQuote) []PriceQuote {
	sorted := make([]PriceQuote, len(quotes))
	copy(sorted, quotes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price.LessThan(sorted[j].Price)
	})
	return sorted
}
