package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichReturnsDescription(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9784772100311", r.URL.Query().Get("isbn"))
		_, _ = w.Write([]byte(`{"title":"こぐまちゃんとどうぶつえん","description":"  こぐまちゃんが動物園で過ごす一日を描いた、シリーズ屈指の人気作。 "}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	caption, err := c.Enrich(context.Background(), "9784772100311")
	require.NoError(t, err)
	assert.Equal(t, "こぐまちゃんが動物園で過ごす一日を描いた、シリーズ屈指の人気作。", caption)
}

func TestEnrichNon200IsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.Enrich(context.Background(), "9784772100311")
	assert.Error(t, err)
}

func TestEnrichSkipsWithoutISBNOrEndpoint(t *testing.T) {
	t.Parallel()

	c := NewClient("")
	caption, err := c.Enrich(context.Background(), "9784772100311")
	require.NoError(t, err)
	assert.Empty(t, caption)

	c = NewClient("https://lookup.example")
	caption, err = c.Enrich(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, caption)
}
