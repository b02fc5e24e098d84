// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Settings holds the chunking, retrieval and generation parameters of a pipeline.
// All fields have bounded valid ranges; out-of-range input is clamped, not rejected.
type Settings struct {
	ChunkSize     int     `json:"chunkSize"`     // target chunk size in characters, 64-2048
	ChunkOverlap  int     `json:"chunkOverlap"`  // sliding-window overlap in characters, 0-512
	TopK          int     `json:"topK"`          // retrieval result count, 1-20
	MinScore      float64 `json:"minScore"`      // similarity score floor, 0-1
	Temperature   float64 `json:"temperature"`   // generation temperature, 0-2
	ContextWindow int     `json:"contextWindow"` // prior conversation turns included in the prompt, 0-20
}

// Clamp forces every parameter into its valid range.
func (s *Settings) Clamp() {
	s.ChunkSize = clampInt(s.ChunkSize, 64, 2048)
	s.ChunkOverlap = clampInt(s.ChunkOverlap, 0, 512)
	if s.ChunkOverlap >= s.ChunkSize {
		s.ChunkOverlap = s.ChunkSize / 4
	}
	s.TopK = clampInt(s.TopK, 1, 20)
	s.MinScore = clampFloat(s.MinScore, 0, 1)
	s.Temperature = clampFloat(s.Temperature, 0, 2)
	s.ContextWindow = clampInt(s.ContextWindow, 0, 20)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Document describes one ingested source file within a pipeline.
type Document struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	ChunkCount int       `json:"chunkCount"`
	IngestedAt time.Time `json:"ingestedAt"`
}

// Pipeline is a named retrieval configuration: a document collection plus the
// models and parameters used to answer questions grounded in it.
type Pipeline struct {
	ID           string     `json:"id"` // immutable, globally unique
	Name         string     `json:"name"`
	EmbedModel   string     `json:"embedModel"`
	ChatModel    string     `json:"chatModel"`
	Settings     Settings   `json:"settings"`
	SystemPrompt string     `json:"systemPrompt"`
	Documents    []Document `json:"documents"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// ChunkMeta is the metadata attached to every stored chunk embedding.
type ChunkMeta struct {
	DocumentID string `json:"documentId"`
	FileName   string `json:"fileName"`
	ChunkIndex int    `json:"chunkIndex"`
	Text       string `json:"text"`
}

// Record is one retrievable unit in a pipeline's vector store.
type Record struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Meta      ChunkMeta `json:"meta"`
}

// ScoredRecord is a search hit with its cosine similarity score.
type ScoredRecord struct {
	Record Record
	Score  float64
}

// Source is a citation attached to an assistant answer.
type Source struct {
	FileName   string  `json:"fileName"`
	ChunkIndex int     `json:"chunkIndex"`
	Preview    string  `json:"preview"` // chunk text capped at 200 characters
	Score      float64 `json:"score"`
}

// ChatMessage is one conversation turn. Assistant turns carry the sources
// cited for that answer; user turns leave Sources empty.
type ChatMessage struct {
	Role    string   `json:"role"` // "user", "assistant" or "system"
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// QueryResult is the outcome of one query: the full answer text and the
// deduplicated, rank-ordered sources backing it. A cancelled query reports
// an empty source list so callers can tell it apart from a short answer.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// IngestedFile summarizes one successfully ingested file.
type IngestedFile struct {
	DocumentID string `json:"documentId"`
	FileName   string `json:"fileName"`
	ChunkCount int    `json:"chunkCount"`
}

// Progress stages emitted during ingestion.
const (
	ProgressFileStart = "file_start"
	ProgressEmbedding = "embedding"
	ProgressFileDone  = "file_done"
)

// Progress is one ingestion progress event.
type Progress struct {
	Stage     string `json:"stage"`
	FileName  string `json:"fileName"`
	FileIndex int    `json:"fileIndex"` // zero-based, valid for all stages
	FileTotal int    `json:"fileTotal"`
	Processed int    `json:"processed"` // chunks embedded so far, embedding stage only
	Total     int    `json:"total"`     // total chunks for the file, embedding stage only
}
