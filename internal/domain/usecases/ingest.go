package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ragdesk/internal/domain/entities"
	"ragdesk/internal/domain/ports"
)

// embedBatchSize is the number of chunks sent to the model server per
// embedding batch. The client bounds request concurrency inside a batch.
const embedBatchSize = 8

// ProgressFunc receives ingestion progress events. A nil callback is valid.
type ProgressFunc func(entities.Progress)

// IngestUseCase turns source files into stored, searchable chunk embeddings.
type IngestUseCase struct {
	parser ports.DocumentParser
	client ports.ModelClient
	store  ports.VectorStore
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(parser ports.DocumentParser, client ports.ModelClient, store ports.VectorStore) *IngestUseCase {
	return &IngestUseCase{parser: parser, client: client, store: store}
}

// Ingest processes filePaths in order: parse, chunk, embed, store. Document
// descriptors are appended to the pipeline as files complete. Any failure
// fails the whole call; nothing is persisted here - the caller saves the
// snapshot only after full success.
func (uc *IngestUseCase) Ingest(ctx context.Context, p *entities.Pipeline, filePaths []string, onProgress ProgressFunc) ([]entities.IngestedFile, error) {
	emit := onProgress
	if emit == nil {
		emit = func(entities.Progress) {}
	}

	var ingested []entities.IngestedFile
	for i, path := range filePaths {
		fileName := filepath.Base(path)
		emit(entities.Progress{
			Stage: entities.ProgressFileStart, FileName: fileName,
			FileIndex: i, FileTotal: len(filePaths),
		})

		docID := uuid.New().String()
		text, err := uc.parser.Parse(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", fileName, err)
		}

		chunks := Chunk(text, p.Settings.ChunkSize, p.Settings.ChunkOverlap)
		if err := uc.embedAndStore(ctx, p, docID, fileName, chunks, i, len(filePaths), emit); err != nil {
			return nil, fmt.Errorf("embedding %s: %w", fileName, err)
		}

		p.Documents = append(p.Documents, entities.Document{
			ID:         docID,
			FileName:   fileName,
			ChunkCount: len(chunks),
			IngestedAt: time.Now(),
		})
		ingested = append(ingested, entities.IngestedFile{
			DocumentID: docID,
			FileName:   fileName,
			ChunkCount: len(chunks),
		})

		emit(entities.Progress{
			Stage: entities.ProgressFileDone, FileName: fileName,
			FileIndex: i, FileTotal: len(filePaths),
		})
	}
	return ingested, nil
}

// embedAndStore embeds chunks in fixed-size batches and appends the
// resulting records to the store, reporting per-batch progress.
func (uc *IngestUseCase) embedAndStore(ctx context.Context, p *entities.Pipeline, docID, fileName string, chunks []string, fileIndex, fileTotal int, emit ProgressFunc) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		embeddings, err := uc.client.EmbedBatch(ctx, p.EmbedModel, chunks[start:end])
		if err != nil {
			return err
		}

		for j, emb := range embeddings {
			idx := start + j
			rec := entities.Record{
				ID:        fmt.Sprintf("%s:%d", docID, idx),
				Embedding: emb,
				Meta: entities.ChunkMeta{
					DocumentID: docID,
					FileName:   fileName,
					ChunkIndex: idx,
					Text:       chunks[idx],
				},
			}
			if err := uc.store.Add(ctx, rec); err != nil {
				return err
			}
		}

		emit(entities.Progress{
			Stage: entities.ProgressEmbedding, FileName: fileName,
			FileIndex: fileIndex, FileTotal: fileTotal,
			Processed: end, Total: len(chunks),
		})
	}
	return nil
}
