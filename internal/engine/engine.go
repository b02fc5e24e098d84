// Package engine owns the pipeline registry and orchestrates ingestion and
// querying. It is the single composition point above the domain usecases:
// one Engine instance holds every open vector store, keyed by pipeline id,
// with no ambient or static state.
package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ragdesk/internal/adapters/vectorstore"
	"ragdesk/internal/domain/entities"
	"ragdesk/internal/domain/ports"
)

const (
	metaFile    = "pipelines.json"
	vectorsFile = "vectors.json"
	historyFile = "history.json"
)

// Engine is the top-level handle over all pipelines. The caller serializes
// operations per pipeline; operations across pipelines are independent.
type Engine struct {
	mu        sync.Mutex
	dataDir   string
	client    ports.ModelClient
	parser    ports.DocumentParser
	pipelines map[string]*entities.Pipeline
	stores    map[string]*vectorstore.Store
	log       *logrus.Entry
}

// New creates an engine rooted at dataDir and loads persisted pipeline
// metadata. A missing or corrupt metadata file yields an empty registry.
func New(dataDir string, client ports.ModelClient, parser ports.DocumentParser, log *logrus.Entry) (*Engine, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	e := &Engine{
		dataDir:   dataDir,
		client:    client,
		parser:    parser,
		pipelines: make(map[string]*entities.Pipeline),
		stores:    make(map[string]*vectorstore.Store),
		log:       log,
	}
	e.loadMeta()
	return e, nil
}

// CreateRequest carries pipeline creation input. Preset defaults are applied
// first, then any non-zero overrides.
type CreateRequest struct {
	Name         string
	EmbedModel   string
	ChatModel    string
	Preset       string
	Settings     *entities.Settings // optional overrides on top of the preset
	SystemPrompt string             // optional, overrides the preset prompt
}

// CreatePipeline constructs a pipeline, assigns it an immutable id and
// persists the registry.
func (e *Engine) CreatePipeline(req CreateRequest) (*entities.Pipeline, error) {
	preset := entities.PresetFor(req.Preset)

	settings := preset.Settings
	if req.Settings != nil {
		settings = *req.Settings
	}
	settings.Clamp()

	prompt := preset.SystemPrompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt
	}

	p := &entities.Pipeline{
		ID:           uuid.New().String(),
		Name:         req.Name,
		EmbedModel:   req.EmbedModel,
		ChatModel:    req.ChatModel,
		Settings:     settings,
		SystemPrompt: prompt,
		Documents:    []entities.Document{},
		CreatedAt:    time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipelines[p.ID] = p
	if err := e.saveMeta(); err != nil {
		delete(e.pipelines, p.ID)
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"pipeline": p.ID, "name": p.Name}).Info("pipeline created")
	return clonePipeline(p), nil
}

// ListPipelines returns all pipelines ordered by creation time.
func (e *Engine) ListPipelines() []*entities.Pipeline {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*entities.Pipeline, 0, len(e.pipelines))
	for _, p := range e.pipelines {
		out = append(out, clonePipeline(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// GetPipeline returns the pipeline with the given id.
func (e *Engine) GetPipeline(id string) (*entities.Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pipelines[id]
	if !ok {
		return nil, entities.ConfigError("unknown pipeline %q", id)
	}
	return clonePipeline(p), nil
}

// UpdateRequest names the mutable pipeline fields. Nil fields are untouched;
// everything else (id, documents, creation time) is immutable here.
type UpdateRequest struct {
	Name         *string
	EmbedModel   *string
	ChatModel    *string
	SystemPrompt *string
	Settings     *entities.Settings
}

// UpdatePipeline applies whitelisted field updates and persists the registry.
// Settings are clamped, never rejected.
func (e *Engine) UpdatePipeline(id string, req UpdateRequest) (*entities.Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.pipelines[id]
	if !ok {
		return nil, entities.ConfigError("unknown pipeline %q", id)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.EmbedModel != nil {
		p.EmbedModel = *req.EmbedModel
	}
	if req.ChatModel != nil {
		p.ChatModel = *req.ChatModel
	}
	if req.SystemPrompt != nil {
		p.SystemPrompt = *req.SystemPrompt
	}
	if req.Settings != nil {
		s := *req.Settings
		s.Clamp()
		p.Settings = s
	}

	if err := e.saveMeta(); err != nil {
		return nil, err
	}
	return clonePipeline(p), nil
}

// DeletePipeline removes the pipeline, its vector store snapshot and its
// conversation history.
func (e *Engine) DeletePipeline(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.pipelines[id]; !ok {
		return entities.ConfigError("unknown pipeline %q", id)
	}

	if store, ok := e.stores[id]; ok {
		store.Destroy()
		delete(e.stores, id)
	}
	os.RemoveAll(e.pipelineDir(id))
	delete(e.pipelines, id)

	if err := e.saveMeta(); err != nil {
		return err
	}
	e.log.WithField("pipeline", id).Info("pipeline deleted")
	return nil
}

// Status reports whether the model server is reachable.
func (e *Engine) Status(ctx context.Context) bool {
	return e.client.Status(ctx)
}

// storeFor returns the pipeline's vector store, opening it on first use.
// Callers must hold e.mu.
func (e *Engine) storeFor(id string) *vectorstore.Store {
	if s, ok := e.stores[id]; ok {
		return s
	}
	s := vectorstore.Open(filepath.Join(e.pipelineDir(id), vectorsFile))
	e.stores[id] = s
	return s
}

func (e *Engine) pipelineDir(id string) string {
	return filepath.Join(e.dataDir, id)
}

// loadMeta reads the registry snapshot. Missing or corrupt metadata degrades
// to an empty registry; pipelines can be re-created or re-imported.
func (e *Engine) loadMeta() {
	data, err := os.ReadFile(filepath.Join(e.dataDir, metaFile))
	if err != nil {
		return
	}
	var pipelines map[string]*entities.Pipeline
	if err := json.Unmarshal(data, &pipelines); err != nil {
		e.log.WithError(err).Warn("corrupt pipeline metadata, starting empty")
		return
	}
	e.pipelines = pipelines
}

// saveMeta rewrites the registry snapshot. Callers must hold e.mu.
func (e *Engine) saveMeta() error {
	data, err := json.MarshalIndent(e.pipelines, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(e.dataDir, metaFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func clonePipeline(p *entities.Pipeline) *entities.Pipeline {
	c := *p
	c.Documents = make([]entities.Document, len(p.Documents))
	copy(c.Documents, p.Documents)
	return &c
}
