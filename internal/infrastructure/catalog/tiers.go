package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strconv"
	"strings"

	"EhonBot/internal/config"
	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
	"EhonBot/internal/selection"
)

// Searcher runs the tiered query strategy: each tier is attempted only when
// the previous one produced nothing, and every tier's results pass the
// caption and category filters before being reported up.
type Searcher struct {
	client *Client
	catCfg config.CatalogConfig
	selCfg config.SelectionConfig
	logger *slog.Logger
}

var _ ports.CatalogSearcher = (*Searcher)(nil)

// NewSearcher wires the tier runner over a catalog client.
func NewSearcher(client *Client, catCfg config.CatalogConfig, selCfg config.SelectionConfig, logger *slog.Logger) *Searcher {
	return &Searcher{client: client, catCfg: catCfg, selCfg: selCfg, logger: logger}
}

type tier struct {
	name   string
	params url.Values
}

// Search runs the tiers for a target title. A failure in the first tier
// propagates so credential and configuration problems surface immediately;
// later tiers degrade to empty results.
func (s *Searcher) Search(ctx context.Context, target string) ([]domain.CatalogItem, error) {
	for i, t := range s.tiers(target) {
		items, err := s.client.fetch(ctx, t.params)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("tier %s: %w", t.name, err)
			}
			s.warn("search tier failed", "tier", t.name, "error", err)
			continue
		}

		items = s.postFilter(items)
		s.debug("search tier finished", "tier", t.name, "kept", len(items))
		if len(items) > 0 {
			return items, nil
		}
	}
	return nil, nil
}

// BrowsePage fetches one page of the picture-book genre sorted by review
// count, filtered. Used by the fallback path; errors are for the caller to
// recover from.
func (s *Searcher) BrowsePage(ctx context.Context, page int) ([]domain.CatalogItem, error) {
	params := s.client.baseParams()
	params.Set("booksGenreId", s.catCfg.PictureGenreID)
	params.Set("sort", "-reviewCount")
	params.Set("page", strconv.Itoa(page))

	items, err := s.client.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.postFilter(items), nil
}

func (s *Searcher) tiers(target string) []tier {
	titleTiers := []tier{
		{name: "title", params: s.queryParams("title", target, s.catCfg.PictureGenreID)},
		{name: "keyword", params: s.queryParams("keyword", target, s.catCfg.PictureGenreID)},
	}

	var authorTiers []tier
	if len(s.selCfg.Authors) > 0 {
		author := s.selCfg.Authors[rand.Intn(len(s.selCfg.Authors))]
		authorTiers = []tier{
			{name: "author", params: s.queryParams("author", author, s.catCfg.PictureGenreID)},
			{name: "author-children", params: s.queryParams("author", author, s.catCfg.ChildrenGenreID)},
		}
	}

	if s.selCfg.TierOrder == "author-first" {
		return append(authorTiers, titleTiers...)
	}
	return append(titleTiers, authorTiers...)
}

func (s *Searcher) queryParams(field, value, genreID string) url.Values {
	params := s.client.baseParams()
	params.Set("booksGenreId", genreID)
	params.Set("sort", "-reviewCount")
	params.Set(field, value)
	return params
}

func (s *Searcher) postFilter(items []domain.CatalogItem) []domain.CatalogItem {
	kept := make([]domain.CatalogItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Caption) == "" {
			continue
		}
		if !selection.IsPictureBook(it, s.selCfg.DenyKeywords) {
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

func (s *Searcher) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Searcher) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
