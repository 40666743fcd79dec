package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
	"EhonBot/internal/selection"
)

// FileStore keeps the selection history as a flat JSON file, read fully at
// construction and rewritten fully on every Remember. The rewrite goes
// through a temp file and rename so a partially written store is never
// read back as valid.
type FileStore struct {
	path      string
	retention time.Duration
	floor     time.Duration
	now       func() time.Time
	logger    *slog.Logger
	records   []domain.HistoryRecord
}

var _ ports.HistoryStore = (*FileStore)(nil)

// NewFileStore loads existing history from path. An unreadable or corrupt
// file degrades to empty history: a broken store must never block all
// future selections.
func NewFileStore(path string, retentionDays, minRetentionDays int, logger *slog.Logger) *FileStore {
	s := &FileStore{
		path:      path,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		floor:     time.Duration(minRetentionDays) * 24 * time.Hour,
		now:       time.Now,
		logger:    logger,
	}
	s.records = s.load()
	return s
}

// IsDuplicate reports whether an unexpired record matches by isbn (both
// sides non-empty) or by normalized title and author. Items without isbn
// fall back to title+author matching only; that can mis-match retitled
// editions, which is a known precision limit.
func (s *FileStore) IsDuplicate(_ context.Context, title, author, isbn string) (bool, error) {
	cutoff := s.now().Add(-s.window())
	for _, rec := range s.records {
		if rec.PostedAt.Before(cutoff) {
			continue
		}
		if matches(rec, title, author, isbn) {
			return true, nil
		}
	}
	return false, nil
}

// Remember appends the record, prunes everything older than the retention
// window and persists the result.
func (s *FileStore) Remember(_ context.Context, rec domain.HistoryRecord) error {
	if rec.PostedAt.IsZero() {
		rec.PostedAt = s.now()
	}
	s.records = append(s.records, rec)
	s.prune()
	return s.persist()
}

// window is the effective retention period: the configured window, but
// never below the minimum floor.
func (s *FileStore) window() time.Duration {
	if s.retention > s.floor {
		return s.retention
	}
	return s.floor
}

func (s *FileStore) prune() {
	cutoff := s.now().Add(-s.window())
	kept := s.records[:0]
	for _, rec := range s.records {
		if !rec.PostedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	s.records = kept
}

func (s *FileStore) load() []domain.HistoryRecord {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warn("history unreadable, starting empty", "path", s.path, "error", err)
		}
		return nil
	}

	var records []domain.HistoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		s.warn("history corrupt, starting empty", "path", s.path, "error", err)
		return nil
	}
	return records
}

func (s *FileStore) persist() error {
	raw, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close history: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

func (s *FileStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func matches(rec domain.HistoryRecord, title, author, isbn string) bool {
	if isbn != "" && rec.ISBN != "" && rec.ISBN == isbn {
		return true
	}
	return selection.Normalize(rec.Title) == selection.Normalize(title) &&
		selection.Normalize(rec.Author) == selection.Normalize(author)
}
