package chromemdb

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docchat/internal/models"
	"docchat/internal/similarity"
)

const collectionName = "document"

// VectorDBManager holds one document's chunks in an in-memory chromem
// collection. A new manager is built for every load, so replacing the
// session never touches the previous collection.
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
	count      int
}

// NewVectorDBManager creates an in-memory database with an empty collection.
func NewVectorDBManager() (*VectorDBManager, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collectionName, nil, noEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &VectorDBManager{db: db, collection: c}, nil
}

// BuildIndex stores every chunk with its precomputed embedding. Document IDs
// are the chunk positions so results map back to session indices.
func BuildIndex(ctx context.Context, chunks []models.ChunkEmbedding) (similarity.Index, error) {
	m, err := NewVectorDBManager()
	if err != nil {
		return nil, err
	}
	if err := m.CreateDocs(ctx, chunks); err != nil {
		return nil, err
	}
	return m, nil
}

// add multiple documents
func (m *VectorDBManager) CreateDocs(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, ce := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(ce.ChunkID),
			Content:   ce.Content,
			Metadata:  map[string]string{"chunk_id": strconv.Itoa(ce.ChunkID)},
			Embedding: ce.Embedding,
		}
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	m.count = m.collection.Count()
	log.Debug().Int("documents", m.count).Msg("Built chromem index")
	return nil
}

// Search returns up to k chunk positions ranked by cosine similarity.
func (m *VectorDBManager) Search(ctx context.Context, query []float32, k int) ([]similarity.Match, error) {
	if m.count == 0 {
		return nil, models.ErrEmptyCorpus
	}
	if k <= 0 {
		k = similarity.DefaultTopK
	}

	// chromem rejects nResults larger than the collection
	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       min(k, m.count),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	matches := make([]similarity.Match, 0, len(results))
	for _, r := range results {
		idx, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q: %w", r.ID, err)
		}
		score := float64(r.Similarity)
		// chromem normalizes a zero vector to NaN; score it like the memory index
		if math.IsNaN(score) {
			score = 0
		}
		matches = append(matches, similarity.Match{Index: idx, Score: score})
	}
	similarity.SortMatches(matches)
	return matches, nil
}

func (m *VectorDBManager) Len() int { return m.count }

// embeddings are always supplied by the caller
func noEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("%w: chromem index expects precomputed embeddings", models.ErrEmbeddingService)
}
