package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glamfinder/backend/config"
	"github.com/glamfinder/backend/internal/domain"
	"github.com/glamfinder/backend/internal/infrastructure/llm"
	"github.com/glamfinder/backend/internal/infrastructure/retailer"
	"github.com/glamfinder/backend/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)

	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:9002"},
		},
		Cache: config.CacheConfig{
			Type: "memory",
		},
	}
}

// setupTestRouter creates a router with no services wired
func setupTestRouter() *gin.Engine {
	handler := NewHandler(nil, nil, nil)
	return SetupRouter(testConfig(), handler, nil)
}

// failingSource is a quote source that always errors
type failingSource struct{ name string }

func (f failingSource) Name() string { return f.name }

func (f failingSource) FetchQuotes(ctx context.Context, productName string) ([]domain.PriceQuote, error) {
	return nil, errors.New("upstream unavailable")
}

// blockingSource holds its caller until released
type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) Name() string { return "Slow" }

func (b *blockingSource) FetchQuotes(ctx context.Context, productName string) ([]domain.PriceQuote, error) {
	close(b.started)
	<-b.release
	return []domain.PriceQuote{{Retailer: "Slow", Price: decimal.NewFromInt(1), Currency: "USD"}}, nil
}

// setupTestRouterWithServices wires real usecases over the given sources and the offline model
func setupTestRouterWithServices(t *testing.T, sources []domain.QuoteSource) (*gin.Engine, *usecase.SessionStore) {
	t.Helper()

	aggregator := usecase.NewPriceAggregator(nil, sources, usecase.PriceAggregatorConfig{
		SourceTimeout: time.Second,
	}, nil)
	analyzer := usecase.NewDescriptionAnalyzer(llm.NewLexiconModel(nil), nil)
	orchestrator := usecase.NewSearchOrchestrator(aggregator, analyzer, nil)

	sessions := usecase.NewSessionStore(time.Minute, nil)
	t.Cleanup(sessions.Close)

	handler := NewHandler(orchestrator, sessions, nil)
	return SetupRouter(testConfig(), handler, nil), sessions
}

func simulated() []domain.QuoteSource {
	return retailer.DefaultSimulatedSources(0, 1, nil)
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		w := doJSON(setupTestRouter(), "GET", "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "glamfinder-backend", response["service"])
		assert.NotEmpty(t, response["version"])
		assert.NotContains(t, response, "cache")
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()
		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doJSON(router, method, "/health", "")
			assert.Equal(t, http.StatusNotFound, w.Code, "method %s", method)
		}
	})

	t.Run("reports cache status when configured", func(t *testing.T) {
		handler := NewHandler(nil, nil, nil)
		handler.SetCacheHealth(staticPinger("up"))
		router := SetupRouter(testConfig(), handler, nil)

		response := decodeBody(t, doJSON(router, "GET", "/health", ""))
		assert.Equal(t, "up", response["cache"])
	})
}

type staticPinger string

func (p staticPinger) Ping(ctx context.Context) string { return string(p) }

func TestUnconfiguredServices(t *testing.T) {
	router := setupTestRouter()

	cases := []struct {
		method, path, body string
	}{
		{"GET", "/api/v1/prices?productName=serum", ""},
		{"POST", "/api/v1/analyze", `{"productDescription":"serum"}`},
		{"POST", "/api/v1/search", `{"productName":"serum"}`},
		{"POST", "/api/v1/sessions", ""},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := doJSON(router, tc.method, tc.path, tc.body)

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Contains(t, decodeBody(t, w)["error"], "not configured")
		})
	}
}

func TestGalleryEndpoint(t *testing.T) {
	w := doJSON(setupTestRouter(), "GET", "/api/v1/gallery", "")

	require.Equal(t, http.StatusOK, w.Code)
	products, ok := decodeBody(t, w)["products"].([]interface{})
	require.True(t, ok)
	assert.Len(t, products, 5)
}

func TestPricesEndpoint(t *testing.T) {
	t.Run("returns quotes sorted by price", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "GET", "/api/v1/prices?productName=Dior+Lip+Glow+Oil", "")

		require.Equal(t, http.StatusOK, w.Code)
		var comparison domain.PriceComparison
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comparison))
		require.Len(t, comparison.Quotes, 4)
		assert.Equal(t, "Worldwide Beauty Outlet", comparison.Quotes[0].Retailer)
		assert.Equal(t, "22.00", comparison.Quotes[0].Price.StringFixed(2))
		assert.Equal(t, "Luxury Cosmetics Inc.", comparison.Quotes[3].Retailer)
		assert.Equal(t, "Live", comparison.Source)
	})

	t.Run("returns 400 for missing productName", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "GET", "/api/v1/prices", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Product name is required", decodeBody(t, w)["error"])
	})

	t.Run("returns 502 when every retailer fails", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, []domain.QuoteSource{failingSource{"A"}, failingSource{"B"}})

		w := doJSON(router, "GET", "/api/v1/prices?productName=serum", "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "Retailer prices temporarily unavailable", decodeBody(t, w)["error"])
	})

	t.Run("reports partial failures", func(t *testing.T) {
		sources := append(simulated(), failingSource{"Broken Store"})
		router, _ := setupTestRouterWithServices(t, sources)

		w := doJSON(router, "GET", "/api/v1/prices?productName=serum", "")

		require.Equal(t, http.StatusOK, w.Code)
		failures, ok := decodeBody(t, w)["failures"].([]interface{})
		require.True(t, ok)
		require.Len(t, failures, 1)
		assert.Equal(t, "Broken Store", failures[0].(map[string]interface{})["source"])
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("returns structured analysis", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/analyze", `{"productDescription":"Contains hyaluronic acid and niacinamide, brightens skin"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var result domain.AnalysisResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.NotEmpty(t, result.KeyIngredients)
		assert.Contains(t, strings.ToLower(strings.Join(result.KeyIngredients, " ")), "hyaluronic")
	})

	t.Run("returns 400 for missing description", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/analyze", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 400 for whitespace description", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/analyze", `{"productDescription":"   "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Product description is required", decodeBody(t, w)["error"])
	})
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("returns a successful snapshot", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/search", `{"productName":"Glow Serum","productDescription":"With retinol"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var snap domain.SessionSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Equal(t, domain.StateSuccess, snap.State)
		assert.Len(t, snap.View.Quotes, 4)
		require.NotNil(t, snap.View.Analysis)
		assert.NotEmpty(t, snap.View.Analysis.KeyIngredients)
	})

	t.Run("omits analysis without description", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/search", `{"productName":"Glow Serum"}`)

		require.Equal(t, http.StatusOK, w.Code)
		view := decodeBody(t, w)["view"].(map[string]interface{})
		assert.NotContains(t, view, "analysis")
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/search", `{invalid json}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 400 for blank product name", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/search", `{"productName":"   "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("hides upstream errors behind the generic notice", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, []domain.QuoteSource{failingSource{"A"}})

		w := doJSON(router, "POST", "/api/v1/search", `{"productName":"Glow Serum"}`)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, "There was a problem with your request.", response["error"])
		session := response["session"].(map[string]interface{})
		assert.Equal(t, "failed", session["state"])
		assert.Empty(t, session["view"].(map[string]interface{})["quotes"])
	})
}

func TestSessionEndpoints(t *testing.T) {
	t.Run("full lifecycle", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		w := doJSON(router, "POST", "/api/v1/sessions", "")
		require.Equal(t, http.StatusCreated, w.Code)
		created := decodeBody(t, w)
		assert.Equal(t, "idle", created["state"])
		id := created["id"].(string)

		w = doJSON(router, "POST", "/api/v1/sessions/"+id+"/search", `{"productName":"Lip Oil"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", decodeBody(t, w)["state"])

		w = doJSON(router, "GET", "/api/v1/sessions/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)
		fetched := decodeBody(t, w)
		assert.Equal(t, "success", fetched["state"])
		assert.Len(t, fetched["view"].(map[string]interface{})["quotes"], 4)

		w = doJSON(router, "DELETE", "/api/v1/sessions/"+id+"/search", "")
		require.Equal(t, http.StatusOK, w.Code)
		reset := decodeBody(t, w)
		assert.Equal(t, "idle", reset["state"])
		assert.Empty(t, reset["view"].(map[string]interface{})["quotes"])
	})

	t.Run("returns 404 for unknown session", func(t *testing.T) {
		router, _ := setupTestRouterWithServices(t, simulated())

		for _, path := range []string{"/api/v1/sessions/does-not-exist", "/api/v1/sessions/6f1c1c9e-3f2a-4b8e-9d3c-0a1b2c3d4e5f"} {
			w := doJSON(router, "GET", path, "")
			assert.Equal(t, http.StatusNotFound, w.Code, path)
		}
	})

	t.Run("returns 409 while a search is running", func(t *testing.T) {
		slow := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
		router, sessions := setupTestRouterWithServices(t, []domain.QuoteSource{slow})
		session := sessions.Create()
		path := "/api/v1/sessions/" + session.ID() + "/search"

		done := make(chan int, 1)
		go func() {
			done <- doJSON(router, "POST", path, `{"productName":"Lip Oil"}`).Code
		}()
		<-slow.started

		w := doJSON(router, "POST", path, `{"productName":"Other"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "submitting", decodeBody(t, w)["session"].(map[string]interface{})["state"])

		w = doJSON(router, "DELETE", path, "")
		assert.Equal(t, http.StatusConflict, w.Code)

		close(slow.release)
		assert.Equal(t, http.StatusOK, <-done)
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter()

	req, _ := http.NewRequest("GET", "/api/v1/gallery", nil)
	req.Header.Set("Origin", "http://localhost:9002")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:9002", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter()
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doJSON(router, "GET", "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, w)["error"])
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter()

	assert.Equal(t, http.StatusOK, doJSON(router, "GET", "/api/v1/gallery", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, "GET", "/api/gallery", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, "GET", "/gallery", "").Code)
}

// TestRateLimitIntegration tests that the API group is rate limited per client
func TestRateLimitIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.PerIP = 1
	router := SetupRouter(cfg, NewHandler(nil, nil, nil), nil)

	assert.Equal(t, http.StatusOK, doJSON(router, "GET", "/api/v1/gallery", "").Code)

	w := doJSON(router, "GET", "/api/v1/gallery", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Rate limit exceeded", decodeBody(t, w)["error"])
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// health is outside the limited group
	assert.Equal(t, http.StatusOK, doJSON(router, "GET", "/health", "").Code)
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/api/v1/gallery"},
		{"POST", "/api/v1/search"},
		{"GET", "/api/v1/sessions/unknown"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router, _ := setupTestRouterWithServices(t, simulated())

			w := doJSON(router, endpoint.method, endpoint.path, "")

			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrEmptyProductName, http.StatusBadRequest},
		{domain.ErrEmptyDescription, http.StatusBadRequest},
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{domain.ErrSubmissionInProgress, http.StatusConflict},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrAIUnavailable, http.StatusBadGateway},
		{domain.ErrSchemaViolation, http.StatusBadGateway},
		{domain.ErrAllSourcesFailed, http.StatusBadGateway},
		{domain.ErrSourceFailure, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, statusClientClosedRequest},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		got, _ := statusFor(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

// TestGetPrices_ClientGoneIsNotAnError tests that a cancelled request is answered 499 without error logs
func TestGetPrices_ClientGoneIsNotAnError(t *testing.T) {
	logger, hook := test.NewNullLogger()

	aggregator := usecase.NewPriceAggregator(nil, simulated(), usecase.PriceAggregatorConfig{}, logger)
	analyzer := usecase.NewDescriptionAnalyzer(llm.NewLexiconModel(logger), logger)
	handler := NewHandler(usecase.NewSearchOrchestrator(aggregator, analyzer, logger), nil, logger)

	router := gin.New()
	router.GET("/prices", handler.GetPrices)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/prices?productName=Lip+Glow", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, statusClientClosedRequest, w.Code)
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level, entry.Message)
	}
}
