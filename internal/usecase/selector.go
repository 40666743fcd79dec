package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
	"EhonBot/internal/selection"
)

// SelectorConfig bounds the attempt loops of the selection state machine.
type SelectorConfig struct {
	DiscoveryAttempts int
	BrowseAttempts    int
	MaxBrowsePage     int
	FallbackDedup     bool
}

// SelectorDeps wires the driven adapters into the selection state machine.
type SelectorDeps struct {
	Discovery ports.DiscoverySource
	Catalog   ports.CatalogSearcher
	History   ports.HistoryStore
	Logger    *slog.Logger
	Config    SelectorConfig
}

// Selector picks exactly one previously-unseen catalog item per run.
// Discovery-driven search runs first; randomized genre browsing is the
// degraded path when discovery or search yields nothing usable.
type Selector struct {
	discovery ports.DiscoverySource
	catalog   ports.CatalogSearcher
	history   ports.HistoryStore
	logger    *slog.Logger
	cfg       SelectorConfig
}

// NewSelector constructs the selection orchestrator.
func NewSelector(deps SelectorDeps) *Selector {
	return &Selector{
		discovery: deps.Discovery,
		catalog:   deps.Catalog,
		history:   deps.History,
		logger:    deps.Logger,
		cfg:       deps.Config,
	}
}

// Select runs the state machine to completion. Only a first-tier catalog
// failure (credential/configuration problems) or full exhaustion of the
// fallback browse is an error.
func (s *Selector) Select(ctx context.Context) (domain.SelectionResult, error) {
	if cand, ok := s.discover(ctx); ok {
		items, err := s.catalog.Search(ctx, cand.Text)
		if err != nil {
			return domain.SelectionResult{}, fmt.Errorf("search for %q: %w", cand.Text, err)
		}

		if item, ok := s.pickRanked(ctx, items, cand.Text); ok {
			s.info("selected via search", "title", item.Title, "candidate", cand.Text, "source", cand.SourceRef)
			return domain.SelectionResult{Item: item, Via: domain.ViaSearch}, nil
		}
		s.warn("search stage produced no selectable item", "candidate", cand.Text, "results", len(items))
	}

	return s.browse(ctx)
}

// discover tries up to the configured number of random discovery pages for
// a usable candidate title.
func (s *Selector) discover(ctx context.Context) (domain.CandidateTitle, bool) {
	if s.discovery == nil {
		return domain.CandidateTitle{}, false
	}

	for attempt := 1; attempt <= s.cfg.DiscoveryAttempts; attempt++ {
		cand, ok, err := s.discovery.Discover(ctx)
		if err != nil {
			s.warn("discovery attempt failed", "attempt", attempt, "error", err)
			continue
		}
		if ok {
			s.info("discovery produced candidate", "attempt", attempt, "title", cand.Text)
			return cand, true
		}
	}

	s.warn("discovery stage exhausted", "attempts", s.cfg.DiscoveryAttempts)
	return domain.CandidateTitle{}, false
}

// pickRanked walks the scored items best-first and returns the first one
// that is not a recent repeat.
func (s *Selector) pickRanked(ctx context.Context, items []domain.CatalogItem, target string) (domain.CatalogItem, bool) {
	for _, item := range selection.Rank(items, target) {
		if s.isDuplicate(ctx, item) {
			s.info("skipping recent repeat", "title", item.Title, "isbn", item.ISBN)
			continue
		}
		return item, true
	}
	return domain.CatalogItem{}, false
}

// browse is the fallback path: random pages of the picture-book genre
// until a filtered, non-empty page yields an item.
func (s *Selector) browse(ctx context.Context) (domain.SelectionResult, error) {
	maxPage := s.cfg.MaxBrowsePage
	if maxPage < 1 {
		maxPage = 1
	}

	for attempt := 1; attempt <= s.cfg.BrowseAttempts; attempt++ {
		page := 1 + rand.Intn(maxPage)

		items, err := s.catalog.BrowsePage(ctx, page)
		if err != nil {
			s.warn("browse page failed", "attempt", attempt, "page", page, "error", err)
			continue
		}
		if len(items) == 0 {
			continue
		}

		item := items[rand.Intn(len(items))]
		if s.cfg.FallbackDedup && s.isDuplicate(ctx, item) {
			s.info("fallback pick was a recent repeat, retrying", "title", item.Title)
			continue
		}

		s.info("selected via browse", "title", item.Title, "page", page, "attempt", attempt)
		return domain.SelectionResult{Item: item, Via: domain.ViaBrowse}, nil
	}

	return domain.SelectionResult{}, &domain.ExhaustedError{Stage: domain.StageBrowse, Attempts: s.cfg.BrowseAttempts}
}

// isDuplicate consults the history store; a store failure degrades to
// "not a duplicate" rather than blocking the selection.
func (s *Selector) isDuplicate(ctx context.Context, item domain.CatalogItem) bool {
	if s.history == nil {
		return false
	}
	dup, err := s.history.IsDuplicate(ctx, item.Title, item.Author, item.ISBN)
	if err != nil {
		s.warn("history lookup failed, assuming not a repeat", "title", item.Title, "error", err)
		return false
	}
	return dup
}

func (s *Selector) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Selector) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
