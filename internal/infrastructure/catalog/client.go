package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"EhonBot/internal/config"
	"EhonBot/internal/domain"
)

// Field projection requested from the search API; everything the filter,
// scorer and dedup store need in one round trip.
const elementsProjection = "title,author,itemCaption,affiliateUrl,itemUrl," +
	"reviewAverage,reviewCount,isbn,seriesName,label,size"

var wsExpr = regexp.MustCompile(`\s+`)

// Client wraps the Books search endpoint.
type Client struct {
	cfg    config.CatalogConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient wires an HTTP client; a nil client gets a 25s-timeout default.
func NewClient(client *http.Client, cfg config.CatalogConfig, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 25 * time.Second}
	}
	return &Client{cfg: cfg, client: client, logger: logger}
}

func (c *Client) baseParams() url.Values {
	v := url.Values{}
	v.Set("applicationId", c.cfg.AppID)
	v.Set("affiliateId", c.cfg.AffiliateID)
	v.Set("format", "json")
	v.Set("formatVersion", "2")
	v.Set("hits", strconv.Itoa(c.cfg.Hits))
	v.Set("availability", "1")
	v.Set("elements", elementsProjection)
	return v
}

func (c *Client) fetch(ctx context.Context, params url.Values) ([]domain.CatalogItem, error) {
	reqURL := c.cfg.Endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, it.toDomain())
	}
	return items, nil
}

type apiResponse struct {
	Items []apiItem `json:"Items"`
}

type apiItem struct {
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ItemCaption   string    `json:"itemCaption"`
	AffiliateURL  string    `json:"affiliateUrl"`
	ItemURL       string    `json:"itemUrl"`
	ReviewAverage flexFloat `json:"reviewAverage"`
	ReviewCount   flexFloat `json:"reviewCount"`
	ISBN          string    `json:"isbn"`
	SeriesName    string    `json:"seriesName"`
	Label         string    `json:"label"`
	Size          string    `json:"size"`
}

// UnmarshalJSON accepts both the flat formatVersion=2 shape and the legacy
// {"Item": {...}} wrapper.
func (it *apiItem) UnmarshalJSON(b []byte) error {
	type alias apiItem
	var wrapped struct {
		Item *alias `json:"Item"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Item != nil {
		*it = apiItem(*wrapped.Item)
		return nil
	}
	var flat alias
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}
	*it = apiItem(flat)
	return nil
}

func (it apiItem) toDomain() domain.CatalogItem {
	link := strings.TrimSpace(it.AffiliateURL)
	if link == "" {
		link = strings.TrimSpace(it.ItemURL)
	}
	return domain.CatalogItem{
		Title:         strings.TrimSpace(it.Title),
		Author:        strings.TrimSpace(it.Author),
		Caption:       strings.TrimSpace(wsExpr.ReplaceAllString(it.ItemCaption, " ")),
		Link:          link,
		ReviewAverage: float64(it.ReviewAverage),
		ReviewCount:   int(it.ReviewCount),
		ISBN:          strings.TrimSpace(it.ISBN),
		SeriesName:    strings.TrimSpace(it.SeriesName),
		Label:         strings.TrimSpace(it.Label),
		Size:          strings.TrimSpace(it.Size),
	}
}

// flexFloat tolerates the API returning numeric fields as numbers or
// strings; anything unparsable reads as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}
