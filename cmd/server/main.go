package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/glamfinder/backend/config"
	httpDelivery "github.com/glamfinder/backend/internal/delivery/http"
	"github.com/glamfinder/backend/internal/domain"
	"github.com/glamfinder/backend/internal/infrastructure/cache"
	"github.com/glamfinder/backend/internal/infrastructure/llm"
	"github.com/glamfinder/backend/internal/infrastructure/retailer"
	"github.com/glamfinder/backend/internal/usecase"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Log)

	logger.Infof("Starting Global Glam Finder Backend v1.0.0")
	logger.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"cache":       cfg.Cache.Type,
		"ai":          cfg.AI.Provider,
	}).Info("Configuration loaded")

	// Initialize infrastructure dependencies
	cacheRepo, closeCache, pinger := newCache(cfg.Cache, logger)
	defer closeCache()

	sources, err := buildSources(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to configure retailers: %v", err)
	}
	model := newLanguageModel(cfg.AI, logger)

	// Initialize usecase layer
	aggregator := usecase.NewPriceAggregator(cacheRepo, sources, usecase.PriceAggregatorConfig{
		CacheTTL:          cfg.Cache.TTL,
		SourceTimeout:     cfg.Retailers.Timeout,
		RequireAllSources: cfg.Retailers.RequireAllSources,
	}, logger)
	logger.WithField("retailers", aggregator.SourceNames()).Info("Quote sources registered")

	analyzer := usecase.NewDescriptionAnalyzer(model, logger)
	orchestrator := usecase.NewSearchOrchestrator(aggregator, analyzer, logger)

	sessions := usecase.NewSessionStore(cfg.Session.TTL, logger)
	defer sessions.Close()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(orchestrator, sessions, logger)
	if pinger != nil {
		handler.SetCacheHealth(pinger)
	}

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Infof("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// newCache returns the cache, its close function, and a pinger when the backend supports one.
// An unreachable Redis falls back to memory so the service still starts.
func newCache(cfg config.CacheConfig, logger *logrus.Logger) (domain.CacheRepository, func(), httpDelivery.Pinger) {
	if cfg.Type == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		redisCache, err := cache.NewRedisCacheFromURL(ctx, cfg.RedisURL, logger)
		if err == nil {
			logger.Infof("Cache: redis (TTL %s)", cfg.TTL)
			return redisCache, func() { redisCache.Close() }, redisCache
		}
		logger.WithError(err).Warn("Redis unavailable, falling back to memory cache")
	}

	memoryCache := cache.NewMemoryCache()
	logger.Infof("Cache: memory (TTL %s)", cfg.TTL)
	return memoryCache, func() { memoryCache.Close() }, nil
}

func buildSources(cfg *config.Config, logger *logrus.Logger) ([]domain.QuoteSource, error) {
	var sources []domain.QuoteSource

	if cfg.Retailers.Simulated {
		sources = append(sources, retailer.DefaultSimulatedSources(cfg.Retailers.Jitter, time.Now().UnixNano(), logger)...)
	}

	matcher := retailer.NewMatcher(cfg.Retailers.MinRelevance)
	debug := cfg.Server.Environment == "development"

	for _, src := range cfg.Retailers.Sources {
		switch src.Kind {
		case "api":
			client := retailer.NewAPIClient(src.Name, src.BaseURL, src.APIKey, src.Currency, cfg.RateLimit.Retailer).
				WithMatcher(matcher).
				WithLogger(logger)
			client.SetDebug(debug)
			sources = append(sources, client)
		case "scrape":
			scraper, err := retailer.NewScrapeSource(retailer.ScrapeConfig{
				Name:          src.Name,
				BaseURL:       src.BaseURL,
				Currency:      src.Currency,
				SearchPath:    src.SearchPath,
				ItemSelector:  src.ItemSelector,
				TitleSelector: src.TitleSelector,
				PriceSelector: src.PriceSelector,
				LinkSelector:  src.LinkSelector,
			}, cfg.RateLimit.Retailer)
			if err != nil {
				return nil, fmt.Errorf("retailer %q: %w", src.Name, err)
			}
			sources = append(sources, scraper.WithMatcher(matcher).WithLogger(logger))
		}
	}

	return sources, nil
}

func newLanguageModel(cfg config.AIConfig, logger *logrus.Logger) domain.LanguageModel {
	switch cfg.Provider {
	case "openrouter":
		logger.Infof("AI: openrouter (model %q)", cfg.Model)
		return llm.NewOpenRouterClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	case "ollama":
		logger.Infof("AI: ollama at %q (model %q)", cfg.BaseURL, cfg.Model)
		return llm.NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Timeout)
	default:
		logger.Info("AI: offline lexicon model")
		return llm.NewLexiconModel(logger)
	}
}
