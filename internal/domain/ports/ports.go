// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, never on concrete adapters.
package ports

import (
	"context"

	"ragdesk/internal/domain/entities"
)

// ChatOptions tunes a single generation request.
type ChatOptions struct {
	Temperature float64
}

// TokenFunc receives one generated text fragment in arrival order.
type TokenFunc func(token string)

// ModelClient talks to the embedding/generation model server.
type ModelClient interface {
	// Embed generates a vector embedding for a single text.
	// A model that is not embedding-capable yields a domain error,
	// distinguishable from transport failure.
	Embed(ctx context.Context, model, text string) ([]float32, error)

	// EmbedBatch embeds many texts with bounded request concurrency.
	// Output order matches input order; one failure fails the whole batch.
	EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error)

	// ChatStream opens a streaming generation and invokes onToken per
	// content fragment until the stream ends or ctx is cancelled.
	ChatStream(ctx context.Context, model string, messages []entities.ChatMessage, opts ChatOptions, onToken TokenFunc) error

	// Status reports whether the model server is reachable.
	// Transport errors degrade to false, never to an error.
	Status(ctx context.Context) bool
}

// VectorStore persists and searches one pipeline's chunk embeddings.
type VectorStore interface {
	// Add appends a record. IDs are caller-generated and unique by construction.
	Add(ctx context.Context, rec entities.Record) error

	// RemoveByDocument removes every record owned by the given document.
	RemoveByDocument(ctx context.Context, documentID string) error

	// Search returns at most topK records scoring >= minScore against the
	// query embedding, in descending score order with insertion-order ties.
	Search(ctx context.Context, query []float32, topK int, minScore float64) ([]entities.ScoredRecord, error)

	// Count reports the current record count.
	Count(ctx context.Context) int

	// Save writes the full snapshot to disk.
	Save(ctx context.Context) error

	// Load replaces in-memory state with the persisted snapshot.
	// A missing or corrupt snapshot yields an empty store, never an error.
	Load(ctx context.Context) error
}

// DocumentParser extracts plain text from a source file.
type DocumentParser interface {
	// Parse returns the raw text content of the file at path.
	Parse(ctx context.Context, path string) (string, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
