package domain

import "time"

// CandidateTitle is a title harvested from the discovery site, not yet
// confirmed against the catalog. It lives only for one pipeline run.
type CandidateTitle struct {
	Text      string
	SourceRef string
}

// CatalogItem is a structured record returned by the catalog search API.
// All fields are best-effort; absence is valid.
type CatalogItem struct {
	Title         string
	Author        string
	Caption       string
	Link          string
	ReviewAverage float64
	ReviewCount   int
	ISBN          string
	SeriesName    string
	Label         string
	Size          string
}

// SelectionPath records which pipeline branch produced the selection.
type SelectionPath string

const (
	ViaSearch SelectionPath = "search"
	ViaBrowse SelectionPath = "browse"
)

// SelectionResult is the single catalog item chosen for this run.
type SelectionResult struct {
	Item CatalogItem
	Via  SelectionPath
}

// HistoryRecord is one previously selected item. Records block reselection
// of the same book until they age past the retention window.
type HistoryRecord struct {
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Link     string    `json:"link"`
	ISBN     string    `json:"isbn,omitempty"`
	PostedAt time.Time `json:"postedAt"`
}

// PostReceipt confirms a successful publish. NewRefreshToken is non-empty
// when the platform rotated the credential during the token exchange; the
// caller is responsible for persisting it for the next run.
type PostReceipt struct {
	ID              string
	Text            string
	NewRefreshToken string
}
