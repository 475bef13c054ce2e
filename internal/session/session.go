package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docchat/internal/models"
	"docchat/internal/similarity"
)

// IndexBuilder builds the retrieval index for a freshly embedded document.
type IndexBuilder func(ctx context.Context, chunks []models.ChunkEmbedding) (similarity.Index, error)

// MemoryIndexBuilder is the default brute-force cosine index.
func MemoryIndexBuilder(_ context.Context, chunks []models.ChunkEmbedding) (similarity.Index, error) {
	vectors := make([][]float32, len(chunks))
	for i, ce := range chunks {
		vectors[i] = ce.Embedding
	}
	return similarity.NewMemoryIndex(vectors), nil
}

// Document is one loaded file: its chunks, their embeddings and the index
// over them. It is immutable once built.
type Document struct {
	ID         string
	Source     string
	Chunks     []string
	Embeddings [][]float32
	LoadedAt   time.Time

	index similarity.Index
}

// NewDocument checks that every chunk has an embedding and builds the index.
func NewDocument(ctx context.Context, id, source string, chunks []models.ChunkEmbedding, build IndexBuilder) (*Document, error) {
	if build == nil {
		build = MemoryIndexBuilder
	}
	doc := &Document{
		ID:         id,
		Source:     source,
		Chunks:     make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
		LoadedAt:   time.Now(),
	}
	for i, ce := range chunks {
		if ce.ChunkID != i || len(ce.Embedding) == 0 {
			return nil, fmt.Errorf("chunk %d has no aligned embedding", i)
		}
		doc.Chunks[i] = ce.Content
		doc.Embeddings[i] = ce.Embedding
	}

	idx, err := build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	if idx.Len() != len(doc.Chunks) {
		return nil, fmt.Errorf("index holds %d vectors for %d chunks", idx.Len(), len(doc.Chunks))
	}
	doc.index = idx
	return doc, nil
}

func (d *Document) Len() int { return len(d.Chunks) }

// Search ranks the document's chunks against query.
func (d *Document) Search(ctx context.Context, query []float32, k int) ([]models.Source, error) {
	matches, err := d.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	sources := make([]models.Source, len(matches))
	for i, m := range matches {
		sources[i] = models.Source{ChunkID: m.Index, Score: m.Score, Content: d.Chunks[m.Index]}
	}
	return sources, nil
}

// Session owns the currently loaded document. Readers take the document
// pointer once and keep using it; Swap replaces it in one step.
type Session struct {
	mu  sync.RWMutex
	doc *Document
}

func New() *Session {
	return &Session{}
}

// Current returns the loaded document, or nil before the first load.
func (s *Session) Current() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

func (s *Session) Loaded() bool {
	return s.Current() != nil
}

// Swap installs doc and returns the previous document.
func (s *Session) Swap(doc *Document) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc
	s.doc = doc
	return prev
}
