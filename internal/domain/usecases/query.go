package usecases

import (
	"context"
	"fmt"
	"strings"

	"ragdesk/internal/domain/entities"
	"ragdesk/internal/domain/ports"
)

const (
	// dedupPrefixLen is the compared prefix length when collapsing
	// near-identical retrieved chunks from overlapping windows.
	dedupPrefixLen = 100
	// previewLen caps the source preview text shown for citations.
	previewLen = 200
)

// QueryUseCase answers a question grounded in a pipeline's ingested documents.
type QueryUseCase struct {
	client ports.ModelClient
	store  ports.VectorStore
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(client ports.ModelClient, store ports.VectorStore) *QueryUseCase {
	return &QueryUseCase{client: client, store: store}
}

// Query embeds the question, retrieves and deduplicates context, streams the
// generated answer through onToken and returns the answer with its sources.
// If ctx is cancelled mid-stream the result carries the partial answer with
// an empty source list and no error.
func (uc *QueryUseCase) Query(ctx context.Context, p *entities.Pipeline, question string, history []entities.ChatMessage, onToken ports.TokenFunc) (*entities.QueryResult, error) {
	if uc.store.Count(ctx) == 0 {
		return nil, entities.DomainError("no documents ingested yet; add documents before querying")
	}

	queryEmbedding, err := uc.client.Embed(ctx, p.EmbedModel, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := uc.store.Search(ctx, queryEmbedding, p.Settings.TopK, p.Settings.MinScore)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	if len(hits) == 0 {
		return nil, entities.DomainError("no chunks scored above %.2f; lower the minimum similarity score", p.Settings.MinScore)
	}

	hits = dedupeByPrefix(hits)
	messages := uc.buildMessages(p, question, history, hits)

	var answer strings.Builder
	opts := ports.ChatOptions{Temperature: p.Settings.Temperature}
	err = uc.client.ChatStream(ctx, p.ChatModel, messages, opts, func(token string) {
		answer.WriteString(token)
		if onToken != nil {
			onToken(token)
		}
	})
	if ctx.Err() != nil {
		// Cancelled answers report no sources so callers can tell them
		// apart from completed short ones.
		return &entities.QueryResult{Answer: answer.String(), Sources: []entities.Source{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &entities.QueryResult{
		Answer:  answer.String(),
		Sources: sourcesOf(hits),
	}, nil
}

// Retrieve runs the retrieval half only: embed, search, dedupe. Used by the
// non-streaming API surface and by tests.
func (uc *QueryUseCase) Retrieve(ctx context.Context, p *entities.Pipeline, question string) ([]entities.ScoredRecord, error) {
	if uc.store.Count(ctx) == 0 {
		return nil, entities.DomainError("no documents ingested yet; add documents before querying")
	}
	queryEmbedding, err := uc.client.Embed(ctx, p.EmbedModel, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	hits, err := uc.store.Search(ctx, queryEmbedding, p.Settings.TopK, p.Settings.MinScore)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, entities.DomainError("no chunks scored above %.2f; lower the minimum similarity score", p.Settings.MinScore)
	}
	return dedupeByPrefix(hits), nil
}

// buildMessages assembles the generation prompt: system prompt plus context
// block, the most recent contextWindow history turns with sources stripped,
// and the question as the final user turn.
func (uc *QueryUseCase) buildMessages(p *entities.Pipeline, question string, history []entities.ChatMessage, hits []entities.ScoredRecord) []entities.ChatMessage {
	var sb strings.Builder
	sb.WriteString(p.SystemPrompt)
	sb.WriteString("\n\nContext:\n")
	for i, h := range hits {
		fmt.Fprintf(&sb, "[%d] (%s, %.0f%%) %s\n", i+1, h.Record.Meta.FileName, h.Score*100, h.Record.Meta.Text)
	}

	messages := []entities.ChatMessage{{Role: "system", Content: sb.String()}}

	turns := history
	if n := p.Settings.ContextWindow; len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	for _, t := range turns {
		if t.Role != "user" && t.Role != "assistant" {
			continue
		}
		messages = append(messages, entities.ChatMessage{Role: t.Role, Content: t.Content})
	}

	return append(messages, entities.ChatMessage{Role: "user", Content: question})
}

// dedupeByPrefix keeps the first occurrence of each distinct text prefix,
// preserving rank order. Overlapping chunk windows produce near-identical
// text; a fixed-length prefix comparison suppresses them cheaply.
func dedupeByPrefix(hits []entities.ScoredRecord) []entities.ScoredRecord {
	seen := make(map[string]bool, len(hits))
	out := hits[:0:0]
	for _, h := range hits {
		key := h.Record.Meta.Text
		if runes := []rune(key); len(runes) > dedupPrefixLen {
			key = string(runes[:dedupPrefixLen])
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

func sourcesOf(hits []entities.ScoredRecord) []entities.Source {
	sources := make([]entities.Source, len(hits))
	for i, h := range hits {
		preview := h.Record.Meta.Text
		if runes := []rune(preview); len(runes) > previewLen {
			preview = string(runes[:previewLen])
		}
		sources[i] = entities.Source{
			FileName:   h.Record.Meta.FileName,
			ChunkIndex: h.Record.Meta.ChunkIndex,
			Preview:    preview,
			Score:      h.Score,
		}
	}
	return sources
}
