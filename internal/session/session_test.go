package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"docchat/internal/models"
	"docchat/internal/similarity"
)

func embedded(vectors ...[]float32) []models.ChunkEmbedding {
	out := make([]models.ChunkEmbedding, len(vectors))
	for i, v := range vectors {
		out[i] = models.ChunkEmbedding{Content: string(rune('a' + i)), Embedding: v, ChunkID: i}
	}
	return out
}

func TestNewDocumentAndSearch(t *testing.T) {
	ctx := context.Background()
	doc, err := NewDocument(ctx, "id-1", "notes.txt", embedded([]float32{1, 0}, []float32{0, 1}, []float32{1, 1}), nil)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	if doc.Len() != 3 || len(doc.Embeddings) != 3 {
		t.Fatalf("Len got %d/%d", doc.Len(), len(doc.Embeddings))
	}

	got, err := doc.Search(ctx, []float32{0, 1}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].ChunkID != 1 || got[0].Content != "b" || got[1].ChunkID != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestNewDocumentRejectsMisalignedChunks(t *testing.T) {
	tests := []struct {
		name   string
		chunks []models.ChunkEmbedding
	}{
		{"missing embedding", []models.ChunkEmbedding{{Content: "a", ChunkID: 0}}},
		{"out of order", []models.ChunkEmbedding{{Content: "a", ChunkID: 1, Embedding: []float32{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDocument(context.Background(), "id", "f.txt", tt.chunks, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewDocumentIndexBuilderFailure(t *testing.T) {
	boom := errors.New("boom")
	build := func(context.Context, []models.ChunkEmbedding) (similarity.Index, error) { return nil, boom }
	if _, err := NewDocument(context.Background(), "id", "f.txt", embedded([]float32{1}), build); !errors.Is(err, boom) {
		t.Errorf("err got %v", err)
	}
}

func TestSessionSwap(t *testing.T) {
	s := New()
	if s.Loaded() || s.Current() != nil {
		t.Fatal("new session should be empty")
	}

	first, _ := NewDocument(context.Background(), "1", "a.txt", embedded([]float32{1}), nil)
	second, _ := NewDocument(context.Background(), "2", "b.txt", embedded([]float32{1}, []float32{2}), nil)

	if prev := s.Swap(first); prev != nil {
		t.Errorf("prev got %v", prev)
	}
	if prev := s.Swap(second); prev != first {
		t.Errorf("prev got %v, want first", prev)
	}
	if s.Current() != second || !s.Loaded() {
		t.Error("current should be second")
	}
}

func TestSessionConcurrentReadersSeeWholeDocuments(t *testing.T) {
	s := New()
	docs := make([]*Document, 10)
	for i := range docs {
		vectors := make([][]float32, i+1)
		for j := range vectors {
			vectors[j] = []float32{float32(j + 1)}
		}
		docs[i], _ = NewDocument(context.Background(), "id", "f.txt", embedded(vectors...), nil)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Swap(docs[i%len(docs)])
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if d := s.Current(); d != nil && len(d.Chunks) != len(d.Embeddings) {
				t.Errorf("inconsistent document: %d chunks, %d embeddings", len(d.Chunks), len(d.Embeddings))
			}
		}
	}()
	wg.Wait()
}
