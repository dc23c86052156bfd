package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// QuoteSource is a single retailer-specific provider of price data
type QuoteSource interface {
	Name() string
	FetchQuotes(ctx context.Context, productName string) ([]PriceQuote, error)
}

// LanguageModel generates a JSON document constrained by the given JSON schema
type LanguageModel interface {
	GenerateJSON(ctx context.Context, prompt string, schema map[string]interface{}) (string, error)
}
