package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EhonBot/internal/config"
	"EhonBot/internal/domain"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, "system", payload.Messages[0].Role)
		assert.Contains(t, payload.Messages[1].Content, "書名:")

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":` + mustJSON(t, content) + `}}]}`))
	}))
}

func mustJSON(t *testing.T, s string) string {
	t.Helper()
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	return string(raw)
}

func testClient(endpoint string, maxBody int) *OpenAIClient {
	return NewOpenAIClient(config.OpenAIConfig{
		Endpoint:     endpoint,
		Model:        "gpt-4o-mini",
		APIKey:       "test-key",
		SystemPrompt: "あなたは書店員。",
		MaxBody:      maxBody,
	})
}

func TestComposeCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	server := chatServer(t, "よみきかせに\n\nぴったりの  一冊。")
	defer server.Close()

	body, err := testClient(server.URL, 140).Compose(context.Background(), domain.CatalogItem{
		Title: "こぐまちゃん", Author: "わかやまけん", Caption: "たのしい絵本",
	})
	require.NoError(t, err)
	assert.Equal(t, "よみきかせに ぴったりの 一冊。", body)
}

func TestComposeTruncatesToBudget(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("あ", 200)
	server := chatServer(t, long)
	defer server.Close()

	body, err := testClient(server.URL, 140).Compose(context.Background(), domain.CatalogItem{Title: "ほん"})
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(body), 140)
	assert.True(t, strings.HasSuffix(body, "…"))
}

func TestComposeAPIErrorSurfaces(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 140).Compose(context.Background(), domain.CatalogItem{Title: "ほん"})
	assert.Error(t, err)
}

func TestComposeMisconfiguredClient(t *testing.T) {
	t.Parallel()

	c := NewOpenAIClient(config.OpenAIConfig{Endpoint: "https://api.example", Model: "m"})
	_, err := c.Compose(context.Background(), domain.CatalogItem{Title: "ほん"})
	assert.Error(t, err)
}

func TestTruncateBodyShortTextUntouched(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "みじかい", truncateBody("みじかい", 140))
	assert.Equal(t, "そのまま", truncateBody("そのまま", 0))
}
