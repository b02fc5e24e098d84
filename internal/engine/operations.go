package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"ragdesk/internal/domain/entities"
	"ragdesk/internal/domain/usecases"
)

// Ingest parses, chunks, embeds and stores the given files into the
// pipeline. The store snapshot and registry metadata are persisted once,
// only after every file succeeded; on failure the in-memory store is rolled
// back to the last snapshot so a retry starts clean.
func (e *Engine) Ingest(ctx context.Context, pipelineID string, filePaths []string, onProgress usecases.ProgressFunc) ([]entities.IngestedFile, error) {
	e.mu.Lock()
	p, ok := e.pipelines[pipelineID]
	if !ok {
		e.mu.Unlock()
		return nil, entities.ConfigError("unknown pipeline %q", pipelineID)
	}
	working := clonePipeline(p)
	store := e.storeFor(pipelineID)
	e.mu.Unlock()

	uc := usecases.NewIngestUseCase(e.parser, e.client, store)
	ingested, err := uc.Ingest(ctx, working, filePaths, onProgress)
	if err != nil {
		store.Load(ctx) // discard half-ingested records
		return nil, err
	}

	if err := store.Save(ctx); err != nil {
		store.Load(ctx)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipelines[pipelineID] = working
	if err := e.saveMeta(); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"pipeline": pipelineID,
		"files":    len(ingested),
		"chunks":   store.Count(ctx),
	}).Info("ingestion finished")
	return ingested, nil
}

// RemoveDocument deletes a document descriptor and every vector record it
// owns, then persists both snapshot and metadata.
func (e *Engine) RemoveDocument(ctx context.Context, pipelineID, documentID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pipelines[pipelineID]
	if !ok {
		return entities.ConfigError("unknown pipeline %q", pipelineID)
	}

	idx := -1
	for i, d := range p.Documents {
		if d.ID == documentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return entities.ConfigError("unknown document %q in pipeline %q", documentID, pipelineID)
	}

	store := e.storeFor(pipelineID)
	if err := store.RemoveByDocument(ctx, documentID); err != nil {
		return err
	}
	if err := store.Save(ctx); err != nil {
		return err
	}

	p.Documents = append(p.Documents[:idx], p.Documents[idx+1:]...)
	return e.saveMeta()
}

// Query answers a question against the pipeline, streaming tokens through
// onToken, and appends the exchanged turns to the persisted conversation
// history. Aborted (cancelled) answers are recorded too, with no sources.
func (e *Engine) Query(ctx context.Context, pipelineID, question string, onToken func(string)) (*entities.QueryResult, error) {
	e.mu.Lock()
	p, ok := e.pipelines[pipelineID]
	if !ok {
		e.mu.Unlock()
		return nil, entities.ConfigError("unknown pipeline %q", pipelineID)
	}
	working := clonePipeline(p)
	store := e.storeFor(pipelineID)
	e.mu.Unlock()

	history := e.loadHistory(pipelineID)

	uc := usecases.NewQueryUseCase(e.client, store)
	result, err := uc.Query(ctx, working, question, history, onToken)
	if err != nil {
		return nil, err
	}

	history = append(history,
		entities.ChatMessage{Role: "user", Content: question},
		entities.ChatMessage{Role: "assistant", Content: result.Answer, Sources: result.Sources},
	)
	if err := e.saveHistory(pipelineID, history); err != nil {
		e.log.WithError(err).WithField("pipeline", pipelineID).Warn("saving conversation history failed")
	}
	return result, nil
}

// Retrieve runs retrieval only, without generation.
func (e *Engine) Retrieve(ctx context.Context, pipelineID, question string) ([]entities.ScoredRecord, error) {
	e.mu.Lock()
	p, ok := e.pipelines[pipelineID]
	if !ok {
		e.mu.Unlock()
		return nil, entities.ConfigError("unknown pipeline %q", pipelineID)
	}
	working := clonePipeline(p)
	store := e.storeFor(pipelineID)
	e.mu.Unlock()

	uc := usecases.NewQueryUseCase(e.client, store)
	return uc.Retrieve(ctx, working, question)
}

// History returns the pipeline's persisted conversation turns.
func (e *Engine) History(pipelineID string) ([]entities.ChatMessage, error) {
	if _, err := e.GetPipeline(pipelineID); err != nil {
		return nil, err
	}
	return e.loadHistory(pipelineID), nil
}

// ClearHistory wipes the pipeline's conversation history.
func (e *Engine) ClearHistory(pipelineID string) error {
	if _, err := e.GetPipeline(pipelineID); err != nil {
		return err
	}
	err := os.Remove(e.historyPath(pipelineID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ChunkCount reports the number of stored vector records for a pipeline.
func (e *Engine) ChunkCount(ctx context.Context, pipelineID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.pipelines[pipelineID]; !ok {
		return 0, entities.ConfigError("unknown pipeline %q", pipelineID)
	}
	return e.storeFor(pipelineID).Count(ctx), nil
}

func (e *Engine) historyPath(pipelineID string) string {
	return filepath.Join(e.pipelineDir(pipelineID), historyFile)
}

// loadHistory reads persisted turns. Missing or corrupt history degrades to
// an empty conversation.
func (e *Engine) loadHistory(pipelineID string) []entities.ChatMessage {
	data, err := os.ReadFile(e.historyPath(pipelineID))
	if err != nil {
		return nil
	}
	var history []entities.ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil
	}
	return history
}

func (e *Engine) saveHistory(pipelineID string, history []entities.ChatMessage) error {
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(e.pipelineDir(pipelineID), 0o755); err != nil {
		return err
	}
	path := e.historyPath(pipelineID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
