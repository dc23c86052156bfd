package domain

import (
	"strings"
	"time"
)

// SearchRequest is a single user submission
type SearchRequest struct {
	ProductName        string `json:"productName" binding:"required"`
	ProductDescription string `json:"productDescription,omitempty"`
}

// Normalize trims both fields in place
func (r *SearchRequest) Normalize() {
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.ProductDescription = strings.TrimSpace(r.ProductDescription)
}

// SearchState is the lifecycle state of a search session
type SearchState string

const (
	StateIdle       SearchState = "idle"
	StateSubmitting SearchState = "submitting"
	StateSuccess    SearchState = "success"
	StateFailed     SearchState = "failed"
)

// InFlight reports whether a submission is running; such a session accepts no new submit or reset
func (s SearchState) InFlight() bool {
	return s == StateSubmitting
}

// SearchView is what the client renders after a search
type SearchView struct {
	Quotes      []PriceQuote    `json:"quotes"`
	Failures    []SourceFailure `json:"failures,omitempty"`
	PriceSource string          `json:"priceSource,omitempty"`
	Analysis    *AnalysisResult `json:"analysis,omitempty"`
}

// SessionSnapshot is a point-in-time copy of a search session
type SessionSnapshot struct {
	ID        string      `json:"id"`
	State     SearchState `json:"state"`
	View      SearchView  `json:"view"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
