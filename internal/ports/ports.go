package ports

import (
	"context"
	"time"

	"EhonBot/internal/domain"
)

// DiscoverySource performs one attempt to harvest a candidate title from the
// discovery site. A missing page or an unusable title is reported as
// ok=false, not as an error; errors are reserved for unexpected local
// failures and are also safe to treat as "no candidate".
type DiscoverySource interface {
	Discover(ctx context.Context) (domain.CandidateTitle, bool, error)
}

// CatalogSearcher queries the catalog API. Search runs the tiered strategy
// for a target title and returns filtered items; only a first-tier failure
// (configuration or credential problems) is returned as an error.
// BrowsePage fetches one filtered page of the picture-book genre for the
// fallback path.
type CatalogSearcher interface {
	Search(ctx context.Context, target string) ([]domain.CatalogItem, error)
	BrowsePage(ctx context.Context, page int) ([]domain.CatalogItem, error)
}

// HistoryStore keeps the time-windowed log of previously selected items.
// An item is a duplicate when an unexpired record shares its isbn (both
// sides non-empty) or its normalized title and author. Remember appends a
// record, prunes expired ones and persists.
type HistoryStore interface {
	IsDuplicate(ctx context.Context, title, author, isbn string) (bool, error)
	Remember(ctx context.Context, rec domain.HistoryRecord) error
}

// CaptionEnricher looks up a richer description by isbn. Failures are
// non-fatal; the caller keeps the original caption.
type CaptionEnricher interface {
	Enrich(ctx context.Context, isbn string) (string, error)
}

// TextGenerator composes the short promotional body for a selected item.
type TextGenerator interface {
	Compose(ctx context.Context, item domain.CatalogItem) (string, error)
}

// Publisher posts the final text to the social platform.
type Publisher interface {
	Publish(ctx context.Context, text string) (domain.PostReceipt, error)
}

// TokenSink persists a rotated refresh token for the next run.
type TokenSink interface {
	StoreRefreshToken(token string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
