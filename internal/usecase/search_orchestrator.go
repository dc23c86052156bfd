package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/glamfinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// GenericSearchError is the only failure text shown to clients after a search fails
const GenericSearchError = "There was a problem with your request."

// PriceLookup is the price side of a search
type PriceLookup interface {
	GetProductPrices(ctx context.Context, productName string) (*domain.PriceComparison, error)
}

// DescriptionAnalysis is the analysis side of a search
type DescriptionAnalysis interface {
	AnalyzeProductDescription(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

// SearchSession holds the state of one client's searches.
// Transitions: idle|success|failed -> submitting -> success|failed, and success|failed -> idle on reset.
type SearchSession struct {
	mu         sync.Mutex
	id         string
	state      domain.SearchState
	view       domain.SearchView
	errMsg     string
	updatedAt  time.Time
	lastAccess time.Time
}

// NewSearchSession creates an idle session
func NewSearchSession(id string) *SearchSession {
	now := time.Now()
	return &SearchSession{
		id:         id,
		state:      domain.StateIdle,
		view:       emptyView(),
		updatedAt:  now,
		lastAccess: now,
	}
}

func emptyView() domain.SearchView {
	return domain.SearchView{Quotes: []domain.PriceQuote{}}
}

// ID returns the session identifier
func (s *SearchSession) ID() string {
	return s.id
}

// State returns the current state
func (s *SearchSession) State() domain.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy that is safe to serialize while searches continue
func (s *SearchSession) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.view
	view.Quotes = append([]domain.PriceQuote{}, s.view.Quotes...)
	if s.view.Failures != nil {
		view.Failures = append([]domain.SourceFailure{}, s.view.Failures...)
	}

	return domain.SessionSnapshot{
		ID:        s.id,
		State:     s.state,
		View:      view,
		Error:     s.errMsg,
		UpdatedAt: s.updatedAt,
	}
}

// Reset returns a finished session to idle and clears its view
func (s *SearchSession) Reset() (domain.SessionSnapshot, error) {
	s.mu.Lock()
	if s.state.InFlight() {
		s.mu.Unlock()
		return s.Snapshot(), domain.ErrSubmissionInProgress
	}
	s.setLocked(domain.StateIdle, emptyView(), "")
	s.mu.Unlock()
	return s.Snapshot(), nil
}

func (s *SearchSession) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.InFlight() {
		return domain.ErrSubmissionInProgress
	}
	// Results of the previous search never survive a resubmission
	s.setLocked(domain.StateSubmitting, emptyView(), "")
	return nil
}

func (s *SearchSession) succeed(view domain.SearchView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(domain.StateSuccess, view, "")
}

func (s *SearchSession) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(domain.StateFailed, emptyView(), message)
}

func (s *SearchSession) setLocked(state domain.SearchState, view domain.SearchView, message string) {
	s.state = state
	s.view = view
	s.errMsg = message
	s.updatedAt = time.Now()
	s.lastAccess = s.updatedAt
}

func (s *SearchSession) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// idleSince reports the last access time, or false while a search is running
func (s *SearchSession) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.InFlight() {
		return time.Time{}, false
	}
	return s.lastAccess, true
}

// SearchOrchestrator runs price aggregation and description analysis for a submission
type SearchOrchestrator struct {
	prices   PriceLookup
	analyzer DescriptionAnalysis
	logger   logrus.FieldLogger
}

// NewSearchOrchestrator wires the two halves of a search together
func NewSearchOrchestrator(prices PriceLookup, analyzer DescriptionAnalysis, logger logrus.FieldLogger) *SearchOrchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SearchOrchestrator{
		prices:   prices,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Search validates the request, moves the session through submitting, and records the outcome.
// Validation errors leave the session untouched. Any failure discards partial results.
func (o *SearchOrchestrator) Search(ctx context.Context, session *SearchSession, req domain.SearchRequest) (domain.SessionSnapshot, error) {
	req.Normalize()
	if req.ProductName == "" {
		return session.Snapshot(), domain.ErrEmptyProductName
	}

	if err := session.begin(); err != nil {
		return session.Snapshot(), err
	}

	log := o.logger.WithFields(logrus.Fields{
		"session": session.ID(),
		"product": req.ProductName,
	})

	start := time.Now()
	view, err := o.run(ctx, req)
	if err != nil {
		log.WithError(err).Warn("[SEARCH] Search failed")
		session.fail(GenericSearchError)
		return session.Snapshot(), err
	}

	session.succeed(view)
	log.WithFields(logrus.Fields{
		"quotes":   len(view.Quotes),
		"analyzed": view.Analysis != nil,
		"duration": time.Since(start).String(),
	}).Info("[SEARCH] Search complete")

	return session.Snapshot(), nil
}

// run executes both calls concurrently; the first error cancels the other
func (o *SearchOrchestrator) run(ctx context.Context, req domain.SearchRequest) (domain.SearchView, error) {
	g, gctx := errgroup.WithContext(ctx)

	var comparison *domain.PriceComparison
	var analysis *domain.AnalysisResult

	g.Go(func() error {
		c, err := o.prices.GetProductPrices(gctx, req.ProductName)
		if err != nil {
			return err
		}
		comparison = c
		return nil
	})

	if req.ProductDescription != "" {
		g.Go(func() error {
			a, err := o.analyzer.AnalyzeProductDescription(gctx, domain.AnalysisRequest{
				ProductDescription: req.ProductDescription,
			})
			if err != nil {
				return err
			}
			analysis = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.SearchView{}, err
	}

	return domain.SearchView{
		Quotes:      domain.SortQuotesByPrice(comparison.Quotes),
		Failures:    comparison.Failures,
		PriceSource: comparison.Source,
		Analysis:    analysis,
	}, nil
}

// ComparePrices runs a standalone price lookup and sorts the quotes for display
func (o *SearchOrchestrator) ComparePrices(ctx context.Context, productName string) (*domain.PriceComparison, error) {
	comparison, err := o.prices.GetProductPrices(ctx, productName)
	if err != nil {
		return nil, err
	}
	sorted := *comparison
	sorted.Quotes = domain.SortQuotesByPrice(comparison.Quotes)
	return &sorted, nil
}

// Analyze runs a standalone description analysis
func (o *SearchOrchestrator) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	return o.analyzer.AnalyzeProductDescription(ctx, req)
}
