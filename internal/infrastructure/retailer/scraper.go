package retailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/glamfinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ScrapeConfig describes where listings live on a retailer's search page
type ScrapeConfig struct {
	Name          string
	BaseURL       string
	SearchPath    string // must contain one %s for the escaped query
	Currency      string
	ItemSelector  string
	TitleSelector string
	PriceSelector string
	LinkSelector  string
}

// ScrapeSource reads prices from a retailer's HTML search results page
type ScrapeSource struct {
	cfg         ScrapeConfig
	base        *url.URL
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	matcher     *Matcher
	logger      logrus.FieldLogger
}

// NewScrapeSource validates the config and builds the source
func NewScrapeSource(cfg ScrapeConfig, requestsPerHour int) (*ScrapeSource, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("scrape source %q: invalid base url %q", cfg.Name, cfg.BaseURL)
	}
	if cfg.ItemSelector == "" || cfg.PriceSelector == "" {
		return nil, fmt.Errorf("scrape source %q: item and price selectors are required", cfg.Name)
	}
	if cfg.SearchPath == "" {
		cfg.SearchPath = "/search?q=%s"
	}
	if !strings.Contains(cfg.SearchPath, "%s") {
		return nil, fmt.Errorf("scrape source %q: search path %q has no %%s placeholder", cfg.Name, cfg.SearchPath)
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}

	return &ScrapeSource{
		cfg:  cfg,
		base: base,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600), 5),
		matcher:     NewMatcher(DefaultMinRelevance),
		logger:      logrus.StandardLogger(),
	}, nil
}

// WithMatcher replaces the relevance filter
func (s *ScrapeSource) WithMatcher(m *Matcher) *ScrapeSource {
	s.matcher = m
	return s
}

// WithLogger sets the logger
func (s *ScrapeSource) WithLogger(logger logrus.FieldLogger) *ScrapeSource {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Name returns the retailer name
func (s *ScrapeSource) Name() string {
	return s.cfg.Name
}

// FetchQuotes downloads the search page and extracts relevant priced listings
func (s *ScrapeSource) FetchQuotes(ctx context.Context, productName string) ([]domain.PriceQuote, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	searchURL := s.searchURL(productName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GlamFinder/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrRetailerAPIFailure, s.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []domain.PriceQuote{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s status %d", domain.ErrRetailerAPIFailure, s.cfg.Name, resp.StatusCode)
	}

	listings, err := s.parseListings(resp.Body)
	if err != nil {
		return nil, err
	}

	relevant := s.matcher.Filter(productName, listings)
	quotes := make([]domain.PriceQuote, 0, len(relevant))
	for _, l := range relevant {
		q, err := ListingToQuote(s.cfg.Name, l, s.cfg.Currency)
		if err != nil {
			s.logger.WithError(err).WithField("retailer", s.cfg.Name).Debug("[SCRAPE] skipping listing")
			continue
		}
		quotes = append(quotes, q)
	}

	s.logger.WithFields(logrus.Fields{
		"retailer": s.cfg.Name,
		"listings": len(listings),
		"quotes":   len(quotes),
	}).Debug("[SCRAPE] page parsed")

	return quotes, nil
}

func (s *ScrapeSource) searchURL(productName string) string {
	path := fmt.Sprintf(s.cfg.SearchPath, url.QueryEscape(productName))
	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimSuffix(s.cfg.BaseURL, "/") + path
	}
	return s.base.ResolveReference(ref).String()
}

// parseListings applies the configured selectors to the page
func (s *ScrapeSource) parseListings(r io.Reader) ([]domain.RetailerListing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse html: %v", domain.ErrRetailerAPIFailure, s.cfg.Name, err)
	}

	var listings []domain.RetailerListing
	doc.Find(s.cfg.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		price := strings.TrimSpace(item.Find(s.cfg.PriceSelector).First().Text())
		if price == "" {
			return
		}

		listing := domain.RetailerListing{Price: price}
		if s.cfg.TitleSelector != "" {
			listing.Title = collapseSpace(item.Find(s.cfg.TitleSelector).First().Text())
		}

		link := item
		if s.cfg.LinkSelector != "" {
			link = item.Find(s.cfg.LinkSelector).First()
		}
		if href, ok := link.Attr("href"); ok {
			listing.URL = s.resolve(href)
		}

		listings = append(listings, listing)
	})

	return listings, nil
}

func (s *ScrapeSource) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return s.base.ResolveReference(ref).String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
