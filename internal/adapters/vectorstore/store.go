// Package vectorstore provides a persisted, exact-search vector store.
// One store instance owns one pipeline's chunk embeddings; the unit of
// persistence is the whole store, rewritten as a single JSON snapshot.
package vectorstore

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"ragdesk/internal/domain/entities"
)

// snapshot is the on-disk representation of a store.
type snapshot struct {
	Records []entities.Record `json:"records"`
}

// Store is an append-only collection of chunk records with brute-force
// cosine-similarity search. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	records []entities.Record
}

// Open creates a store backed by the snapshot file at path and loads any
// existing snapshot. A missing or corrupt file yields an empty store.
func Open(path string) *Store {
	s := &Store{path: path}
	s.Load(context.Background())
	return s
}

// Add appends a record.
func (s *Store) Add(ctx context.Context, rec entities.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// RemoveByDocument removes every record owned by documentID.
func (s *Store) RemoveByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.Meta.DocumentID != documentID {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}

// Search scores every stored record against query by cosine similarity,
// drops records below minScore and returns at most topK results in
// descending score order. Ties keep insertion order.
func (s *Store) Search(ctx context.Context, query []float32, topK int, minScore float64) ([]entities.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []entities.ScoredRecord
	for _, rec := range s.records {
		score := CosineSimilarity(query, rec.Embedding)
		if score < minScore {
			continue
		}
		results = append(results, entities.ScoredRecord{Record: rec, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the current record count.
func (s *Store) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Save rewrites the full snapshot. The write goes to a temp file first and
// is renamed into place so a crash never leaves a half-written snapshot.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	data, err := json.Marshal(snapshot{Records: s.records})
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load replaces in-memory state with the persisted snapshot. A missing or
// corrupt snapshot degrades to an empty store: the worst case is a
// re-ingestion, and ingestion must never be blocked by a stale cache.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.records = nil
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.records = nil
		return nil
	}
	s.records = snap.Records
	return nil
}

// Destroy removes the snapshot file from disk.
func (s *Store) Destroy() error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Records returns a copy of all stored records in insertion order.
// Used by export bundles.
func (s *Store) Records() []entities.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Restore replaces the store contents with recs. Used by import bundles.
func (s *Store) Restore(recs []entities.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]entities.Record, len(recs))
	copy(s.records, recs)
}

// similarityEpsilon keeps the cosine denominator away from zero for
// all-zero vectors.
const similarityEpsilon = 1e-10

// CosineSimilarity returns dot(a,b) / (|a|*|b|). Mismatched dimensionality
// or an empty vector scores 0 rather than failing, so a store can safely
// hold records embedded by models later swapped out.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + similarityEpsilon)
}
