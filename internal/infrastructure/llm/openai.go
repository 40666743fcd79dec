package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"EhonBot/internal/config"
	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
)

var wsExpr = regexp.MustCompile(`\s+`)

// OpenAIClient implements ports.TextGenerator backed by OpenAI-compatible
// chat APIs. The model is asked for a body within the character budget and
// sentence count; the budget is also enforced locally by hard truncation
// because the model does not always respect it.
type OpenAIClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	maxBody      int
	httpClient   *http.Client
}

var _ ports.TextGenerator = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		maxBody:      cfg.MaxBody,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
	}
}

// Compose asks the chat API for a short promotional body for the item.
// The returned text contains no URL; the pipeline appends the item link on
// its own line.
func (c *OpenAIClient) Compose(ctx context.Context, item domain.CatalogItem) (string, error) {
	if c == nil {
		return "", fmt.Errorf("openai client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	user := fmt.Sprintf("書名:%s\n著者:%s\n紹介の種:%s\n平均レビュー:%.1f / 件数:%d\n条件どおり短く端的に。",
		item.Title, item.Author, item.Caption, item.ReviewAverage, item.ReviewCount)

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": c.systemPrompt},
			{"role": "user", "content": user},
		},
		"temperature": 0.7,
		"max_tokens":  160,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	text := strings.TrimSpace(wsExpr.ReplaceAllString(completion.Choices[0].Message.Content, " "))
	return truncateBody(text, c.maxBody), nil
}

// truncateBody cuts the text to the rune budget with a trailing ellipsis.
func truncateBody(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return strings.TrimRight(string(runes[:budget-1]), " ") + "…"
}
