package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
)

type fakeEnricher struct {
	caption string
	err     error
	gotISBN string
}

func (f *fakeEnricher) Enrich(_ context.Context, isbn string) (string, error) {
	f.gotISBN = isbn
	return f.caption, f.err
}

type fakeGenerator struct {
	body    string
	err     error
	gotItem domain.CatalogItem
}

func (f *fakeGenerator) Compose(_ context.Context, item domain.CatalogItem) (string, error) {
	f.gotItem = item
	return f.body, f.err
}

type fakePublisher struct {
	receipt   domain.PostReceipt
	err       error
	gotText   string
	published bool
}

func (f *fakePublisher) Publish(_ context.Context, text string) (domain.PostReceipt, error) {
	f.gotText = text
	if f.err != nil {
		return domain.PostReceipt{}, f.err
	}
	f.published = true
	return f.receipt, nil
}

type fakeTokenSink struct {
	stored []string
	err    error
}

func (f *fakeTokenSink) StoreRefreshToken(token string) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, token)
	return nil
}

// orderedHistory records whether the publish already happened at the
// moment Remember was called.
type orderedHistory struct {
	fakeHistory
	publisher       *fakePublisher
	publishedBefore bool
}

func (h *orderedHistory) Remember(ctx context.Context, rec domain.HistoryRecord) error {
	h.publishedBefore = h.publisher.published
	return h.fakeHistory.Remember(ctx, rec)
}

func searchSelector(hist ports.HistoryStore, items ...domain.CatalogItem) *Selector {
	return NewSelector(SelectorDeps{
		Discovery: &fakeDiscovery{cand: domain.CandidateTitle{Text: items[0].Title}, found: true},
		Catalog:   &fakeCatalog{searchItems: items},
		History:   hist,
		Config:    testSelectorConfig(),
	})
}

func TestRunHappyPathRemembersAfterPublish(t *testing.T) {
	t.Parallel()

	item := domain.CatalogItem{
		Title: "ぐりとぐら", Author: "なかがわりえこ",
		Caption: "カステラのおはなし", Link: "https://books.example/guri",
		ISBN: "9784834000825",
	}
	pub := &fakePublisher{receipt: domain.PostReceipt{ID: "900123", NewRefreshToken: "rotated"}}
	hist := &orderedHistory{publisher: pub}
	gen := &fakeGenerator{body: "ふたごの野ねずみが作る大きなカステラ。"}
	sink := &fakeTokenSink{}

	p := NewPipeline(PipelineDeps{
		Selector:  searchSelector(hist, item),
		Generator: gen,
		Publisher: pub,
		History:   hist,
		Tokens:    sink,
	})

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, gen.body+"\n"+item.Link, pub.gotText)
	require.Len(t, hist.remembered, 1)
	assert.Equal(t, item.ISBN, hist.remembered[0].ISBN)
	assert.True(t, hist.publishedBefore, "history must be written only after a confirmed publish")
	assert.Equal(t, []string{"rotated"}, sink.stored)
}

func TestRunPublishFailureWritesNoHistory(t *testing.T) {
	t.Parallel()

	item := domain.CatalogItem{Title: "ねないこだれだ", Caption: "おばけ", Link: "https://books.example/obake"}
	pub := &fakePublisher{err: errors.New("403 forbidden")}
	hist := &orderedHistory{publisher: pub}

	p := NewPipeline(PipelineDeps{
		Selector:  searchSelector(hist, item),
		Generator: &fakeGenerator{body: "よなかのおばけのえほん。"},
		Publisher: pub,
		History:   hist,
	})

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, hist.remembered, "a failed post must not consume a dedup slot")
}

func TestRunEnricherReplacesCaption(t *testing.T) {
	t.Parallel()

	item := domain.CatalogItem{Title: "はらぺこあおむし", Caption: "みじかい紹介", ISBN: "9784032371109"}
	enr := &fakeEnricher{caption: "あおむしがたくさん食べてちょうになる、しかけえほんのロングセラー。"}
	gen := &fakeGenerator{body: "ほんぶん"}
	hist := &fakeHistory{}

	p := NewPipeline(PipelineDeps{
		Selector:  searchSelector(hist, item),
		Enricher:  enr,
		Generator: gen,
		Publisher: &fakePublisher{},
		History:   hist,
	})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, item.ISBN, enr.gotISBN)
	assert.Equal(t, enr.caption, gen.gotItem.Caption)
}

func TestRunEnricherFailureKeepsCatalogCaption(t *testing.T) {
	t.Parallel()

	item := domain.CatalogItem{Title: "はらぺこあおむし", Caption: "もとの紹介", ISBN: "9784032371109"}
	gen := &fakeGenerator{body: "ほんぶん"}
	hist := &fakeHistory{}

	p := NewPipeline(PipelineDeps{
		Selector:  searchSelector(hist, item),
		Enricher:  &fakeEnricher{err: errors.New("502 bad gateway")},
		Generator: gen,
		Publisher: &fakePublisher{},
		History:   hist,
	})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, "もとの紹介", gen.gotItem.Caption)
}

func TestRunComposeFailureIsFatal(t *testing.T) {
	t.Parallel()

	item := domain.CatalogItem{Title: "ぐりとぐら", Caption: "カステラ"}
	pub := &fakePublisher{}
	hist := &fakeHistory{}

	p := NewPipeline(PipelineDeps{
		Selector:  searchSelector(hist, item),
		Generator: &fakeGenerator{err: errors.New("429 too many requests")},
		Publisher: pub,
		History:   hist,
	})

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.False(t, pub.published)
	assert.Empty(t, hist.remembered)
}

func TestRunTokenSinkFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	item := domain.CatalogItem{Title: "ぐりとぐら", Caption: "カステラ"}
	hist := &fakeHistory{}

	p := NewPipeline(PipelineDeps{
		Selector:  searchSelector(hist, item),
		Generator: &fakeGenerator{body: "ほんぶん"},
		Publisher: &fakePublisher{receipt: domain.PostReceipt{ID: "1", NewRefreshToken: "rotated"}},
		History:   hist,
		Tokens:    &fakeTokenSink{err: errors.New("read-only filesystem")},
	})

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, hist.remembered, 1)
}

func TestRunNoLinkOmitsTrailingLine(t *testing.T) {
	t.Parallel()

	item := domain.CatalogItem{Title: "ぐりとぐら", Caption: "カステラ"}
	pub := &fakePublisher{}
	hist := &fakeHistory{}

	p := NewPipeline(PipelineDeps{
		Selector:  searchSelector(hist, item),
		Generator: &fakeGenerator{body: "ほんぶんだけ"},
		Publisher: pub,
		History:   hist,
	})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, "ほんぶんだけ", pub.gotText)
}
