package engine

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"ragdesk/internal/domain/entities"
)

// bundleVersion stamps export artifacts so future formats can be told apart.
const bundleVersion = 1

// Bundle is a portable snapshot of one pipeline: its configuration, every
// vector record and the conversation history, as a single versioned artifact.
type Bundle struct {
	Version  int                    `json:"version"`
	Pipeline *entities.Pipeline     `json:"pipeline"`
	Records  []entities.Record      `json:"records"`
	History  []entities.ChatMessage `json:"history"`
}

// Export writes the pipeline's bundle as JSON to w.
func (e *Engine) Export(pipelineID string, w io.Writer) error {
	e.mu.Lock()
	p, ok := e.pipelines[pipelineID]
	if !ok {
		e.mu.Unlock()
		return entities.ConfigError("unknown pipeline %q", pipelineID)
	}
	bundle := Bundle{
		Version:  bundleVersion,
		Pipeline: clonePipeline(p),
		Records:  e.storeFor(pipelineID).Records(),
	}
	e.mu.Unlock()

	bundle.History = e.loadHistory(pipelineID)

	enc := json.NewEncoder(w)
	return enc.Encode(bundle)
}

// Import reads a bundle from r and installs it as a new pipeline with a
// fresh id, so a bundle can move between installations without colliding.
func (e *Engine) Import(ctx context.Context, r io.Reader) (*entities.Pipeline, error) {
	var bundle Bundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, entities.DomainError("invalid import bundle: %v", err)
	}
	if bundle.Version != bundleVersion {
		return nil, entities.DomainError("unsupported bundle version %d", bundle.Version)
	}
	if bundle.Pipeline == nil {
		return nil, entities.DomainError("import bundle has no pipeline")
	}

	p := clonePipeline(bundle.Pipeline)
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now()
	p.Settings.Clamp()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pipelines[p.ID] = p
	store := e.storeFor(p.ID)
	store.Restore(bundle.Records)
	if err := store.Save(ctx); err != nil {
		delete(e.pipelines, p.ID)
		delete(e.stores, p.ID)
		return nil, err
	}
	if len(bundle.History) > 0 {
		if err := e.saveHistory(p.ID, bundle.History); err != nil {
			e.log.WithError(err).Warn("importing conversation history failed")
		}
	}
	if err := e.saveMeta(); err != nil {
		return nil, err
	}

	e.log.WithField("pipeline", p.ID).Info("pipeline imported")
	return clonePipeline(p), nil
}
