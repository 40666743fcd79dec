package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"EhonBot/internal/config"
	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
)

const maxPageBytes = 2 << 20

// Site harvests candidate titles from randomly addressed item pages of the
// book-discovery site.
type Site struct {
	client *http.Client
	cfg    config.DiscoveryConfig
	logger *slog.Logger
}

var _ ports.DiscoverySource = (*Site)(nil)

// NewSite wires an HTTP client; a nil client gets a 20s-timeout default.
func NewSite(client *http.Client, cfg config.DiscoveryConfig, logger *slog.Logger) *Site {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Site{client: client, cfg: cfg, logger: logger}
}

// Discover fetches one random item page and tries to extract a candidate
// title. Missing pages, deny-listed categories and unusable titles all come
// back as ok=false; only a broken request setup is an error.
func (s *Site) Discover(ctx context.Context) (domain.CandidateTitle, bool, error) {
	pageURL := s.pageURL(s.randomID())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.CandidateTitle{}, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.debug("discovery fetch failed", "url", pageURL, "error", err)
		return domain.CandidateTitle{}, false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.debug("discovery page unavailable", "url", pageURL, "status", resp.Status)
		return domain.CandidateTitle{}, false, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		s.debug("discovery read failed", "url", pageURL, "error", err)
		return domain.CandidateTitle{}, false, nil
	}

	text := DecodeBody(raw, charsetHint(resp.Header.Get("Content-Type")))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		s.debug("discovery parse failed", "url", pageURL, "error", err)
		return domain.CandidateTitle{}, false, nil
	}

	if containsDenyPhrase(doc, s.cfg.DenyPhrases) {
		s.debug("discovery page denied by category phrase", "url", pageURL)
		return domain.CandidateTitle{}, false, nil
	}

	title := cleanTitle(extractTitle(doc), s.cfg.SuffixMarker)
	if !usableTitle(title, s.cfg.SiteName) {
		s.debug("discovery title unusable", "url", pageURL, "title", title)
		return domain.CandidateTitle{}, false, nil
	}

	return domain.CandidateTitle{Text: title, SourceRef: pageURL}, true, nil
}

func (s *Site) randomID() int {
	lo, hi := s.cfg.IDMin, s.cfg.IDMax
	if hi <= lo {
		return lo
	}
	return lo + rand.Intn(hi-lo+1)
}

func (s *Site) pageURL(id int) string {
	return fmt.Sprintf("%s/item?id=%d", strings.TrimSuffix(s.cfg.BaseURL, "/"), id)
}

func (s *Site) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func charsetHint(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
