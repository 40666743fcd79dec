package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
	"EhonBot/internal/selection"
)

// PostgresStore is the database-backed history store, for deployments where
// several posting jobs share one history. Same dedup semantics as the file
// store; pruning happens as a DELETE of expired rows inside Remember.
//
// Schema:
//
//	CREATE TABLE history_records (
//	    id         BIGSERIAL PRIMARY KEY,
//	    title      TEXT NOT NULL,
//	    author     TEXT NOT NULL,
//	    link       TEXT NOT NULL DEFAULT '',
//	    isbn       TEXT NOT NULL DEFAULT '',
//	    title_key  TEXT NOT NULL,
//	    author_key TEXT NOT NULL,
//	    posted_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db        *sql.DB
	retention time.Duration
	floor     time.Duration
	now       func() time.Time
	builder   sq.StatementBuilderType
}

var _ ports.HistoryStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB, retentionDays, minRetentionDays int) *PostgresStore {
	return &PostgresStore{
		db:        db,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		floor:     time.Duration(minRetentionDays) * 24 * time.Hour,
		now:       time.Now,
		builder:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// IsDuplicate checks unexpired rows for an isbn or normalized title+author
// match.
func (s *PostgresStore) IsDuplicate(ctx context.Context, title, author, isbn string) (bool, error) {
	if s.db == nil {
		return false, nil
	}

	cutoff := s.now().Add(-s.window())
	match := sq.Or{
		sq.And{
			sq.Eq{"title_key": selection.Normalize(title)},
			sq.Eq{"author_key": selection.Normalize(author)},
		},
	}
	if isbn != "" {
		match = append(match, sq.And{sq.NotEq{"isbn": ""}, sq.Eq{"isbn": isbn}})
	}

	query := s.builder.
		Select("COUNT(1)").
		From("history_records").
		Where(sq.GtOrEq{"posted_at": cutoff}).
		Where(match).
		RunWith(s.db)

	var count int
	if err := query.QueryRowContext(ctx).Scan(&count); err != nil {
		return false, fmt.Errorf("query history: %w", err)
	}
	return count > 0, nil
}

// Remember inserts the record and prunes rows older than the retention
// window.
func (s *PostgresStore) Remember(ctx context.Context, rec domain.HistoryRecord) error {
	if s.db == nil {
		return nil
	}

	if rec.PostedAt.IsZero() {
		rec.PostedAt = s.now()
	}

	insert := s.builder.
		Insert("history_records").
		Columns("title", "author", "link", "isbn", "title_key", "author_key", "posted_at").
		Values(rec.Title, rec.Author, rec.Link, rec.ISBN,
			selection.Normalize(rec.Title), selection.Normalize(rec.Author), rec.PostedAt).
		RunWith(s.db)

	if _, err := insert.ExecContext(ctx); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	prune := s.builder.
		Delete("history_records").
		Where(sq.Lt{"posted_at": s.now().Add(-s.window())}).
		RunWith(s.db)

	if _, err := prune.ExecContext(ctx); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (s *PostgresStore) window() time.Duration {
	if s.retention > s.floor {
		return s.retention
	}
	return s.floor
}
