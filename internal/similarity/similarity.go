package similarity

import (
	"context"
	"math"
	"sort"

	"docchat/internal/models"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// Match is a ranked chunk position with its cosine score.
type Match struct {
	Index int
	Score float64
}

// Index searches the vectors of one loaded document.
type Index interface {
	Search(ctx context.Context, query []float32, k int) ([]Match, error)
	Len() int
}

// Cosine returns dot(a,b) / (|a|*|b|). A zero-length or zero-norm operand
// scores 0. Extra trailing dimensions of the longer vector are ignored.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK ranks vectors against query and returns the min(k, len(vectors))
// best matches, highest score first. Exact ties go to the lower index.
func TopK(query []float32, vectors [][]float32, k int) ([]Match, error) {
	if len(vectors) == 0 {
		return nil, models.ErrEmptyCorpus
	}
	if k <= 0 {
		k = DefaultTopK
	}

	scores := make([]Match, len(vectors))
	for i, v := range vectors {
		scores[i] = Match{Index: i, Score: Cosine(query, v)}
	}
	SortMatches(scores)
	return scores[:min(k, len(scores))], nil
}

// SortMatches orders by score descending, then index ascending.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Index < matches[j].Index
	})
}

// MemoryIndex is a brute-force index over vectors held in memory.
type MemoryIndex struct {
	vectors [][]float32
}

func NewMemoryIndex(vectors [][]float32) *MemoryIndex {
	return &MemoryIndex{vectors: vectors}
}

func (m *MemoryIndex) Search(_ context.Context, query []float32, k int) ([]Match, error) {
	return TopK(query, m.vectors, k)
}

func (m *MemoryIndex) Len() int { return len(m.vectors) }
