package retailer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// APIClient queries a retailer's JSON product search API
type APIClient struct {
	name        string
	baseURL     string
	apiKey      string
	currency    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	matcher     *Matcher
	backoff     func(attempt int) time.Duration
	debug       bool
	logger      logrus.FieldLogger
}

// NewAPIClient creates a client allowed requestsPerHour calls (burst of 10)
func NewAPIClient(name, baseURL, apiKey, currency string, requestsPerHour int) *APIClient {
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}
	if currency == "" {
		currency = "USD"
	}

	return &APIClient{
		name:     name,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		currency: currency,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600), 10),
		matcher:     NewMatcher(DefaultMinRelevance),
		backoff:     exponentialBackoff,
		logger:      logrus.StandardLogger(),
	}
}

// SetDebug enables per-request logging
func (c *APIClient) SetDebug(debug bool) {
	c.debug = debug
}

// WithMatcher replaces the relevance filter
func (c *APIClient) WithMatcher(m *Matcher) *APIClient {
	c.matcher = m
	return c
}

// WithLogger sets the logger
func (c *APIClient) WithLogger(logger logrus.FieldLogger) *APIClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Name returns the retailer name
func (c *APIClient) Name() string {
	return c.name
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// priceText accepts both JSON numbers and strings
type priceText string

func (p *priceText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = priceText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("price must be a number or string: %w", err)
	}
	*p = priceText(n.String())
	return nil
}

type searchResult struct {
	Title    string    `json:"title"`
	Price    priceText `json:"price"`
	Currency string    `json:"currency"`
	URL      string    `json:"url"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
	Total   int            `json:"total"`
}

// FetchQuotes searches the retailer and converts relevant listings into quotes.
// Listings whose price cannot be parsed are skipped.
func (c *APIClient) FetchQuotes(ctx context.Context, productName string) ([]domain.PriceQuote, error) {
	listings, err := c.SearchListings(ctx, productName)
	if err != nil {
		return nil, err
	}

	relevant := c.matcher.Filter(productName, listings)
	quotes := make([]domain.PriceQuote, 0, len(relevant))
	for _, l := range relevant {
		q, err := ListingToQuote(c.name, l, c.currency)
		if err != nil {
			c.logger.WithError(err).WithField("retailer", c.name).Warn("[RETAILER] skipping listing")
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// SearchListings calls GET {base}/v1/products/search, retrying transient failures
func (c *APIClient) SearchListings(ctx context.Context, query string) ([]domain.RetailerListing, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("currency", c.currency)
	params.Add("limit", "20")
	reqURL := fmt.Sprintf("%s/v1/products/search?%s", c.baseURL, params.Encode())

	log := c.logger.WithFields(logrus.Fields{"retailer": c.name, "query": query})

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithField("attempt", attempt).Warn("[RETAILER] request error")
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusNotFound:
			return []domain.RetailerListing{}, nil
		case status == http.StatusTooManyRequests || status >= 500:
			log.WithFields(logrus.Fields{"attempt": attempt, "status": status}).Warn("[RETAILER] transient API error")
			lastErr = fmt.Errorf("%w: %s status %d", domain.ErrRetailerAPIFailure, c.name, status)
			continue
		case status != http.StatusOK:
			return nil, fmt.Errorf("%w: %s status %d: %s", domain.ErrRetailerAPIFailure, c.name, status, truncate(body, 200))
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %s returned malformed JSON: %v", domain.ErrRetailerAPIFailure, c.name, err)
		}

		listings := make([]domain.RetailerListing, 0, len(resp.Results))
		for _, r := range resp.Results {
			listings = append(listings, domain.RetailerListing{
				Title:    r.Title,
				Price:    string(r.Price),
				Currency: r.Currency,
				URL:      r.URL,
			})
		}

		if c.debug {
			log.WithField("results", len(listings)).Debug("[RETAILER] search complete")
		}
		return listings, nil
	}

	log.Warn("[RETAILER] all retries failed")
	return nil, lastErr
}

// doRequest executes a GET and returns the body and status code
func (c *APIClient) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "GlamFinder/1.0")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrRetailerAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %v", domain.ErrRetailerAPIFailure, err)
	}
	return body, resp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
