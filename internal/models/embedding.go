package models

import "time"

// ChunkEmbedding pairs a chunk with its vector. ChunkID is the 0-based
// position of the chunk in the document.
type ChunkEmbedding struct {
	Content   string
	Embedding []float32
	ChunkID   int
}

type LoadResult struct {
	DocumentID string
	Source     string
	ChunkCount int
	Duration   time.Duration
}

type AskStatus int

const (
	AskSkipped AskStatus = iota
	AskWarning
	AskAnswered
)

func (s AskStatus) String() string {
	switch s {
	case AskWarning:
		return "warning"
	case AskAnswered:
		return "answered"
	default:
		return "skipped"
	}
}

// Source is a retrieved chunk attached to an answer
type Source struct {
	ChunkID int
	Score   float64
	Content string
}

type PromptResponse struct {
	Status  AskStatus
	Query   string
	Sources []Source
	Content string
	Warning string
}
