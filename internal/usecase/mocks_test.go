package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockQuoteSource is a mock implementation of domain.QuoteSource
type MockQuoteSource struct {
	name     string
	quotes   []domain.PriceQuote
	err      error
	delay    time.Duration
	block    bool
	panicMsg string
	calls    int32

	mu        sync.Mutex
	lastQuery string
}

func NewMockQuoteSource(name string, quotes ...domain.PriceQuote) *MockQuoteSource {
	return &MockQuoteSource{name: name, quotes: quotes}
}

func (m *MockQuoteSource) Name() string {
	return m.name
}

func (m *MockQuoteSource) FetchQuotes(ctx context.Context, productName string) ([]domain.PriceQuote, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	m.lastQuery = productName
	m.mu.Unlock()

	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes, nil
}

func (m *MockQuoteSource) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

func (m *MockQuoteSource) LastQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// MockLanguageModel is a mock implementation of domain.LanguageModel
type MockLanguageModel struct {
	response   string
	err        error
	calls      int32
	lastPrompt string
	lastSchema map[string]interface{}
}

func (m *MockLanguageModel) GenerateJSON(ctx context.Context, prompt string, schema map[string]interface{}) (string, error) {
	atomic.AddInt32(&m.calls, 1)
	m.lastPrompt = prompt
	m.lastSchema = schema
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// MockPriceLookup is a mock implementation of PriceLookup
type MockPriceLookup struct {
	comparison *domain.PriceComparison
	err        error
	calls      int32
	// release, when set, holds the lookup until it is closed or the context ends
	release   chan struct{}
	cancelled int32
}

func (m *MockPriceLookup) GetProductPrices(ctx context.Context, productName string) (*domain.PriceComparison, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			atomic.StoreInt32(&m.cancelled, 1)
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.comparison, nil
}

func (m *MockPriceLookup) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

// MockAnalysis is a mock implementation of DescriptionAnalysis
type MockAnalysis struct {
	result *domain.AnalysisResult
	err    error
	calls  int32
}

func (m *MockAnalysis) AnalyzeProductDescription(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *MockAnalysis) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

func quote(retailer, price string) domain.PriceQuote {
	return domain.PriceQuote{
		Retailer:   retailer,
		Price:      decimal.RequireFromString(price),
		Currency:   "USD",
		ProductURL: "https://" + retailer + ".example/p",
	}
}

func comparisonOf(quotes ...domain.PriceQuote) *domain.PriceComparison {
	if quotes == nil {
		quotes = []domain.PriceQuote{}
	}
	return &domain.PriceComparison{Quotes: quotes, Source: "Live"}
}

func priceStrings(quotes []domain.PriceQuote) []string {
	out := make([]string, len(quotes))
	for i, q := range quotes {
		out[i] = q.Price.StringFixed(2)
	}
	return out
}
