package xpost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EhonBot/internal/config"
	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
)

const oauthScope = "tweet.read tweet.write users.read offline.access"

// Publisher posts to the X API v2, exchanging the stored refresh token for
// an access token on every run. The platform may rotate the refresh token
// during the exchange; the rotated value travels back in the receipt so the
// caller can persist it.
type Publisher struct {
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	postURL      string
	userAgent    string
	client       *http.Client
	logger       *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher registers the OAuth2 client credentials.
func NewPublisher(cfg config.TwitterConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		tokenURL:     cfg.TokenURL,
		postURL:      cfg.PostURL,
		userAgent:    cfg.UserAgent,
		client:       &http.Client{Timeout: 25 * time.Second},
		logger:       logger,
	}
}

// Publish refreshes the access token and posts the text.
func (p *Publisher) Publish(ctx context.Context, text string) (domain.PostReceipt, error) {
	if p.clientID == "" || p.clientSecret == "" || p.refreshToken == "" {
		return domain.PostReceipt{}, fmt.Errorf("publisher misconfigured")
	}

	accessToken, rotated, err := p.refreshAccessToken(ctx)
	if err != nil {
		return domain.PostReceipt{}, err
	}

	receipt, err := p.post(ctx, accessToken, text)
	if err != nil {
		return domain.PostReceipt{}, err
	}

	receipt.NewRefreshToken = rotated
	return receipt, nil
}

func (p *Publisher) refreshAccessToken(ctx context.Context) (access, rotated string, err error) {
	basic := base64.StdEncoding.EncodeToString([]byte(p.clientID + ":" + p.clientSecret))

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", p.refreshToken)
	form.Set("client_id", p.clientID)
	form.Set("scope", oauthScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("new token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 800))
		return "", "", fmt.Errorf("token exchange failed %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", "", fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", "", fmt.Errorf("token response without access_token")
	}

	if token.RefreshToken != "" && p.logger != nil {
		p.logger.Info("refresh token rotated by platform")
	}
	return token.AccessToken, token.RefreshToken, nil
}

func (p *Publisher) post(ctx context.Context, accessToken, text string) (domain.PostReceipt, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return domain.PostReceipt{}, fmt.Errorf("marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.postURL, bytes.NewReader(body))
	if err != nil {
		return domain.PostReceipt{}, fmt.Errorf("new post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.PostReceipt{}, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 800))
		return domain.PostReceipt{}, fmt.Errorf("post failed %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var posted struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&posted); err != nil {
		return domain.PostReceipt{}, fmt.Errorf("decode post response: %w", err)
	}

	return domain.PostReceipt{ID: posted.Data.ID, Text: posted.Data.Text}, nil
}
