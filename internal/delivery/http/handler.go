package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glamfinder/backend/internal/domain"
	"github.com/glamfinder/backend/internal/usecase"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	serviceName    = "glamfinder-backend"
	serviceVersion = "1.0.0"
)

// Pinger reports the health of a backing service
type Pinger interface {
	Ping(ctx context.Context) string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	orchestrator *usecase.SearchOrchestrator
	sessions     *usecase.SessionStore
	cacheHealth  Pinger
	logger       logrus.FieldLogger
}

// NewHandler creates a new HTTP handler.
// A nil orchestrator or session store makes the dependent endpoints answer 503.
func NewHandler(orchestrator *usecase.SearchOrchestrator, sessions *usecase.SessionStore, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		orchestrator: orchestrator,
		sessions:     sessions,
		logger:       logger,
	}
}

// SetCacheHealth adds the cache status to the health check
func (h *Handler) SetCacheHealth(p Pinger) {
	h.cacheHealth = p
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	}
	if h.cacheHealth != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		body["cache"] = h.cacheHealth.Ping(ctx)
	}
	c.JSON(http.StatusOK, body)
}

// Gallery returns the static sample products
func (h *Handler) Gallery(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products": usecase.SampleGallery(),
	})
}

// GetPrices handles standalone price comparison requests
func (h *Handler) GetPrices(c *gin.Context) {
	if h.orchestrator == nil {
		h.notConfigured(c, "Price search")
		return
	}

	comparison, err := h.orchestrator.ComparePrices(c.Request.Context(), c.Query("productName"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// AnalyzeDescription handles standalone description analysis requests
func (h *Handler) AnalyzeDescription(c *gin.Context) {
	if h.orchestrator == nil {
		h.notConfigured(c, "Product analysis")
		return
	}

	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: productDescription is required",
		})
		return
	}

	result, err := h.orchestrator.Analyze(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Search runs a one-off search on an ephemeral session
func (h *Handler) Search(c *gin.Context) {
	if h.orchestrator == nil {
		h.notConfigured(c, "Search")
		return
	}

	req, ok := bindSearchRequest(c)
	if !ok {
		return
	}

	session := usecase.NewSearchSession(uuid.NewString())
	h.runSearch(c, session, req)
}

// CreateSession starts a new idle search session
func (h *Handler) CreateSession(c *gin.Context) {
	if h.sessions == nil {
		h.notConfigured(c, "Sessions")
		return
	}

	session := h.sessions.Create()
	c.JSON(http.StatusCreated, session.Snapshot())
}

// GetSession returns the current state of a search session
func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// SessionSearch submits a search on an existing session
func (h *Handler) SessionSearch(c *gin.Context) {
	if h.orchestrator == nil {
		h.notConfigured(c, "Search")
		return
	}

	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	req, ok := bindSearchRequest(c)
	if !ok {
		return
	}

	h.runSearch(c, session, req)
}

// ResetSession returns a finished session to idle
func (h *Handler) ResetSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	snapshot, err := session.Reset()
	if err != nil {
		h.writeSearchError(c, err, snapshot)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) runSearch(c *gin.Context, session *usecase.SearchSession, req domain.SearchRequest) {
	snapshot, err := h.orchestrator.Search(c.Request.Context(), session, req)
	if err != nil {
		h.writeSearchError(c, err, snapshot)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) lookupSession(c *gin.Context) (*usecase.SearchSession, bool) {
	if h.sessions == nil {
		h.notConfigured(c, "Sessions")
		return nil, false
	}

	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return session, true
}

func bindSearchRequest(c *gin.Context) (domain.SearchRequest, bool) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: productName is required",
		})
		return req, false
	}
	return req, true
}

func (h *Handler) notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": what + " service not configured",
	})
}

// writeSearchError hides upstream details behind the generic notice and attaches the session
func (h *Handler) writeSearchError(c *gin.Context, err error, snapshot domain.SessionSnapshot) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		message = usecase.GenericSearchError
	}
	c.JSON(status, gin.H{
		"error":   message,
		"session": snapshot,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"status": status,
		}).Error("[HTTP] Request failed")
	}
	c.JSON(status, gin.H{"error": message})
}

// statusClientClosedRequest is the nginx convention for a client that went away before the response
const statusClientClosedRequest = 499

// statusFor maps domain errors to an HTTP status and a client-safe message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyProductName),
		errors.Is(err, domain.ErrEmptyDescription),
		errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, capitalize(err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "Search session not found"
	case errors.Is(err, domain.ErrSubmissionInProgress):
		return http.StatusConflict, "A search is already in progress"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded"
	case errors.Is(err, domain.ErrAIUnavailable):
		return http.StatusBadGateway, "Product analysis temporarily unavailable"
	case errors.Is(err, domain.ErrSchemaViolation):
		return http.StatusBadGateway, "Product analysis returned an unexpected response"
	case errors.Is(err, domain.ErrAllSourcesFailed),
		errors.Is(err, domain.ErrSourceFailure),
		errors.Is(err, domain.ErrRetailerAPIFailure):
		return http.StatusBadGateway, "Retailer prices temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream request timed out"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
