package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
	// ErrEmptyProductName is returned when a search is submitted without a product name
	ErrEmptyProductName = errors.New("product name is required")
	// ErrEmptyDescription is returned when analysis is requested for an empty description
	ErrEmptyDescription = errors.New("product description is required")
	// ErrSourceFailure is returned when a quote source fails and partial results are not accepted
	ErrSourceFailure = errors.New("quote source failed")
	// ErrAllSourcesFailed is returned when every configured quote source failed
	ErrAllSourcesFailed = errors.New("all quote sources failed")
	// ErrRetailerAPIFailure is returned when a retailer API or page request fails
	ErrRetailerAPIFailure = errors.New("retailer request failed")
	// ErrAIUnavailable is returned when the language model backend cannot be reached
	ErrAIUnavailable = errors.New("analysis service unavailable")
	// ErrSchemaViolation is returned when model output does not match the analysis schema
	ErrSchemaViolation = errors.New("analysis output does not match schema")
	// ErrSubmissionInProgress is returned when a session already has a search running
	ErrSubmissionInProgress = errors.New("search already in progress")
	// ErrSessionNotFound is returned for unknown or expired search sessions
	ErrSessionNotFound = errors.New("search session not found")
	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
