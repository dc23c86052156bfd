package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

const (
	sourceLive  = "Live"
	sourceCache = "Cache"
)

// PriceAggregatorConfig holds configuration for the price aggregator
type PriceAggregatorConfig struct {
	CacheTTL      time.Duration
	SourceTimeout time.Duration
	// RequireAllSources fails the whole lookup when any single source fails
	RequireAllSources bool
}

// PriceAggregator fans a product lookup out to every quote source and merges the results
type PriceAggregator struct {
	cache         domain.CacheRepository
	sources       []domain.QuoteSource
	preprocessor  *QueryPreprocessor
	cacheTTL      time.Duration
	sourceTimeout time.Duration
	requireAll    bool
	logger        logrus.FieldLogger
}

// NewPriceAggregator creates a price aggregator. cache may be nil to disable caching.
func NewPriceAggregator(
	cache domain.CacheRepository,
	sources []domain.QuoteSource,
	config PriceAggregatorConfig,
	logger logrus.FieldLogger,
) *PriceAggregator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}
	sourceTimeout := config.SourceTimeout
	if sourceTimeout == 0 {
		sourceTimeout = 10 * time.Second
	}

	return &PriceAggregator{
		cache:         cache,
		sources:       sources,
		preprocessor:  NewQueryPreprocessor(logger),
		cacheTTL:      cacheTTL,
		sourceTimeout: sourceTimeout,
		requireAll:    config.RequireAllSources,
		logger:        logger,
	}
}

// SourceNames lists the configured sources in registration order
func (s *PriceAggregator) SourceNames() []string {
	names := make([]string, len(s.sources))
	for i, src := range s.sources {
		names[i] = src.Name()
	}
	return names
}

type sourceResult struct {
	quotes []domain.PriceQuote
	err    error
}

// GetProductPrices collects quotes for a product from every source.
// Flow: validate -> check cache -> query sources concurrently -> merge in source order -> cache -> return.
// Quotes are not sorted; callers sort before display.
func (s *PriceAggregator) GetProductPrices(ctx context.Context, productName string) (*domain.PriceComparison, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return nil, domain.ErrEmptyProductName
	}

	query := s.preprocessor.PreprocessQuery(name)
	if query == "" {
		query = name
	}

	cacheKey := generateCacheKey(query)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil && cached != nil {
		cached.Source = sourceCache
		s.logger.WithField("key", cacheKey).Debug("[CACHE] Price comparison hit")
		return cached, nil
	}

	results := s.fanOut(ctx, query)

	// Caller cancellation takes precedence over per-source errors
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comparison := &domain.PriceComparison{
		ProductName: name,
		Quotes:      []domain.PriceQuote{},
		Source:      sourceLive,
	}

	for i, res := range results {
		src := s.sources[i].Name()
		if res.err != nil {
			comparison.Failures = append(comparison.Failures, domain.SourceFailure{
				Source: src,
				Error:  res.err.Error(),
			})
			continue
		}
		for _, q := range res.quotes {
			if err := q.Validate(); err != nil {
				s.logger.WithError(err).WithField("source", src).Warn("[AGGREGATE] Dropping invalid quote")
				continue
			}
			comparison.Quotes = append(comparison.Quotes, q)
		}
	}

	if n := len(comparison.Failures); n > 0 {
		if s.requireAll {
			first := comparison.Failures[0]
			return nil, fmt.Errorf("%w: %s: %s", domain.ErrSourceFailure, first.Source, first.Error)
		}
		if n == len(s.sources) {
			return nil, fmt.Errorf("%w: %d of %d sources", domain.ErrAllSourcesFailed, n, len(s.sources))
		}
	}

	s.logger.WithFields(logrus.Fields{
		"product":  name,
		"quotes":   len(comparison.Quotes),
		"failures": len(comparison.Failures),
	}).Info("[AGGREGATE] Price comparison complete")

	// Only complete results are cached
	if len(comparison.Failures) == 0 {
		if err := s.setInCache(ctx, cacheKey, comparison); err != nil {
			s.logger.WithError(err).WithField("key", cacheKey).Warn("[CACHE] Failed to store price comparison")
		}
	}

	return comparison, nil
}

// fanOut queries every source concurrently; result i belongs to source i
func (s *PriceAggregator) fanOut(ctx context.Context, query string) []sourceResult {
	results := make([]sourceResult, len(s.sources))

	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src domain.QuoteSource) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = sourceResult{err: fmt.Errorf("source panicked: %v", r)}
				}
			}()

			sctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			start := time.Now()
			quotes, err := src.FetchQuotes(sctx, query)
			results[i] = sourceResult{quotes: quotes, err: err}

			entry := s.logger.WithFields(logrus.Fields{
				"source":   src.Name(),
				"duration": time.Since(start).String(),
			})
			if err != nil {
				entry.WithError(err).Warn("[AGGREGATE] Source failed")
				return
			}
			entry.WithField("quotes", len(quotes)).Debug("[AGGREGATE] Source returned")
		}(i, src)
	}
	wg.Wait()

	return results
}

// generateCacheKey creates a normalized cache key.
// Format: "prices:{normalized_product_name}", or "prices:#{hash}" when nothing survives normalization
func generateCacheKey(productName string) string {
	normalized := normalizeForCacheKey(productName)
	if normalized == "" {
		if trimmed := strings.TrimSpace(productName); trimmed != "" {
			sum := sha256.Sum256([]byte(trimmed))
			return fmt.Sprintf("prices:#%s", hex.EncodeToString(sum[:8]))
		}
	}
	return fmt.Sprintf("prices:%s", normalized)
}

// normalizeForCacheKey converts to lowercase, removes punctuation and symbols in any script, and trims whitespace
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache retrieves a price comparison from cache
func (s *PriceAggregator) getFromCache(ctx context.Context, key string) (*domain.PriceComparison, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return decodeCachedComparison(value)
}

// setInCache stores a copy of the comparison stamped with CachedAt
func (s *PriceAggregator) setInCache(ctx context.Context, key string, comparison *domain.PriceComparison) error {
	if s.cache == nil {
		return nil
	}
	stored := *comparison
	stored.CachedAt = time.Now()
	return s.cache.Set(ctx, key, &stored, s.cacheTTL)
}

// decodeCachedComparison accepts either the struct or its JSON-decoded map form
func decodeCachedComparison(value interface{}) (*domain.PriceComparison, error) {
	switch v := value.(type) {
	case *domain.PriceComparison:
		c := *v
		return &c, nil
	case map[string]interface{}:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, domain.ErrCacheMiss
		}
		var c domain.PriceComparison
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, domain.ErrCacheMiss
		}
		if c.Quotes == nil {
			c.Quotes = []domain.PriceQuote{}
		}
		return &c, nil
	default:
		return nil, domain.ErrCacheMiss
	}
}
