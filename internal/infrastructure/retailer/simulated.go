package retailer

import (
	"context"
	"math/rand"
	"net/url"
	"strings"
	"sync"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SimulatedSource is an offline retailer returning a fixed (optionally jittered) price
type SimulatedSource struct {
	name      string
	basePrice decimal.Decimal
	currency  string
	storeURL  string
	jitter    float64

	mu     sync.Mutex
	rng    *rand.Rand
	logger logrus.FieldLogger
}

// NewSimulatedSource creates a source that always quotes basePrice
func NewSimulatedSource(name string, basePrice decimal.Decimal, currency, storeURL string) *SimulatedSource {
	return &SimulatedSource{
		name:      name,
		basePrice: basePrice,
		currency:  currency,
		storeURL:  strings.TrimSuffix(storeURL, "/"),
		logger:    logrus.StandardLogger(),
	}
}

// WithJitter makes quotes vary by up to ±jitter (relative) around the base price.
// The seed keeps runs reproducible.
func (s *SimulatedSource) WithJitter(jitter float64, seed int64) *SimulatedSource {
	s.jitter = jitter
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

// WithLogger sets the logger
func (s *SimulatedSource) WithLogger(logger logrus.FieldLogger) *SimulatedSource {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Name returns the retailer name
func (s *SimulatedSource) Name() string {
	return s.name
}

// FetchQuotes returns a single quote for the product
func (s *SimulatedSource) FetchQuotes(ctx context.Context, productName string) ([]domain.PriceQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"retailer": s.name, "product": productName}).Debug("[SIMULATED] searching")

	return []domain.PriceQuote{{
		Retailer:   s.name,
		Price:      s.price(),
		Currency:   s.currency,
		ProductURL: s.storeURL + "/search?q=" + url.QueryEscape(productName),
	}}, nil
}

func (s *SimulatedSource) price() decimal.Decimal {
	if s.jitter == 0 || s.rng == nil {
		return s.basePrice
	}

	s.mu.Lock()
	factor := 1 + (s.rng.Float64()*2-1)*s.jitter
	s.mu.Unlock()

	return s.basePrice.Mul(decimal.NewFromFloat(factor)).Round(2)
}

// DefaultSimulatedSources returns the four demo retailers
func DefaultSimulatedSources(jitter float64, seed int64, logger logrus.FieldLogger) []domain.QuoteSource {
	defs := []struct {
		name, price, url string
	}{
		{"Luxury Cosmetics Inc.", "32.99", "https://luxurycosmetics.com"},
		{"Global Beauty Emporium", "28.50", "https://globalbeautyemporium.com"},
		{"Worldwide Beauty Outlet", "22.00", "https://worldwidebeautyoutlet.com"},
		{"Amazon", "25.00", "https://amazon.com"},
	}

	sources := make([]domain.QuoteSource, 0, len(defs))
	for i, d := range defs {
		src := NewSimulatedSource(d.name, decimal.RequireFromString(d.price), "USD", d.url).WithLogger(logger)
		if jitter > 0 {
			src.WithJitter(jitter, seed+int64(i))
		}
		sources = append(sources, src)
	}
	return sources
}
