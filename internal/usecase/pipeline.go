package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"EhonBot/internal/domain"
	"EhonBot/internal/ports"
)

// PipelineDeps wires all driven adapters into one posting run.
type PipelineDeps struct {
	Selector  *Selector
	Enricher  ports.CaptionEnricher
	Generator ports.TextGenerator
	Publisher ports.Publisher
	History   ports.HistoryStore
	Tokens    ports.TokenSink
	Logger    *slog.Logger
}

// Pipeline implements the select → enrich → generate → publish → remember
// workflow. History is written only after a confirmed publish: a failed
// post must not consume a dedup slot.
type Pipeline struct {
	selector  *Selector
	enricher  ports.CaptionEnricher
	generator ports.TextGenerator
	publisher ports.Publisher
	history   ports.HistoryStore
	tokens    ports.TokenSink
	logger    *slog.Logger
}

// NewPipeline constructs the run orchestrator.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		selector:  deps.Selector,
		enricher:  deps.Enricher,
		generator: deps.Generator,
		publisher: deps.Publisher,
		history:   deps.History,
		tokens:    deps.Tokens,
		logger:    deps.Logger,
	}
}

// Run performs one complete posting run.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := p.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run", uuid.NewString()[:8])

	result, err := p.selector.Select(ctx)
	if err != nil {
		return fmt.Errorf("select item: %w", err)
	}
	item := result.Item

	if p.enricher != nil && item.ISBN != "" {
		richer, err := p.enricher.Enrich(ctx, item.ISBN)
		switch {
		case err != nil:
			logger.Warn("caption lookup failed, keeping catalog caption", "isbn", item.ISBN, "error", err)
		case richer != "":
			item.Caption = richer
		}
	}

	body, err := p.generator.Compose(ctx, item)
	if err != nil {
		return fmt.Errorf("compose body: %w", err)
	}

	text := body
	if item.Link != "" {
		// Link on its own line keeps the preview rendering stable.
		text = body + "\n" + item.Link
	}
	logger.Info("post preview", "text", text)

	receipt, err := p.publisher.Publish(ctx, text)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	if receipt.NewRefreshToken != "" && p.tokens != nil {
		if err := p.tokens.StoreRefreshToken(receipt.NewRefreshToken); err != nil {
			logger.Warn("failed to persist rotated refresh token", "error", err)
		}
	}

	if p.history != nil {
		rec := domain.HistoryRecord{
			Title:  item.Title,
			Author: item.Author,
			Link:   item.Link,
			ISBN:   item.ISBN,
		}
		if err := p.history.Remember(ctx, rec); err != nil {
			// Losing one dedup write is better than failing a run that
			// already published.
			logger.Warn("history write failed", "title", item.Title, "error", err)
		}
	}

	logger.Info("posted", "id", receipt.ID, "title", item.Title, "via", result.Via)
	return nil
}
