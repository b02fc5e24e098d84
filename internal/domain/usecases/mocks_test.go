package usecases

import (
	"context"
	"sync"

	"ragdesk/internal/domain/entities"
	"ragdesk/internal/domain/ports"
)

// mockParser returns canned text per path.
type mockParser struct {
	texts map[string]string
	err   error
}

func (m *mockParser) Parse(ctx context.Context, path string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.texts[path], nil
}

// mockClient is a scriptable ModelClient.
type mockClient struct {
	embedFunc      func(text string) ([]float32, error)
	embedBatchErr  error
	chatTokens     []string
	chatErr        error
	embedCalls     int
	chatStreamDone bool
	lastMessages   []entities.ChatMessage
	lastOpts       ports.ChatOptions
}

func (m *mockClient) Embed(ctx context.Context, model, text string) ([]float32, error) {
	m.embedCalls++
	if m.embedFunc != nil {
		return m.embedFunc(text)
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockClient) EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if m.embedBatchErr != nil {
		return nil, m.embedBatchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		m.embedCalls++
		if m.embedFunc != nil {
			emb, err := m.embedFunc(texts[i])
			if err != nil {
				return nil, err
			}
			out[i] = emb
			continue
		}
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (m *mockClient) ChatStream(ctx context.Context, model string, messages []entities.ChatMessage, opts ports.ChatOptions, onToken ports.TokenFunc) error {
	m.lastMessages = messages
	m.lastOpts = opts
	if m.chatErr != nil {
		return m.chatErr
	}
	for _, tok := range m.chatTokens {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		onToken(tok)
	}
	m.chatStreamDone = true
	return nil
}

func (m *mockClient) Status(ctx context.Context) bool { return true }

// memStore is an in-memory VectorStore with scripted search results.
type memStore struct {
	mu      sync.Mutex
	records []entities.Record
	hits    []entities.ScoredRecord
	addErr  error
}

func (m *memStore) Add(ctx context.Context, rec entities.Record) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) RemoveByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.Meta.DocumentID != documentID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

func (m *memStore) Search(ctx context.Context, query []float32, topK int, minScore float64) ([]entities.ScoredRecord, error) {
	return m.hits, nil
}

func (m *memStore) Count(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memStore) Save(ctx context.Context) error { return nil }
func (m *memStore) Load(ctx context.Context) error { return nil }
