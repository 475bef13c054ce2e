package controller

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/helper"
	"docchat/internal/models"
	"docchat/internal/parser"
	"docchat/internal/session"
)

type State int

const (
	Idle State = iota
	DocumentLoaded
)

func (s State) String() string {
	if s == DocumentLoaded {
		return "document_loaded"
	}
	return "idle"
}

// Answerer produces the final answer from ranked context.
type Answerer interface {
	Answer(ctx context.Context, contexts []string, question string) (string, error)
}

// Controller runs the load and ask flows against a single session.
type Controller struct {
	extractor  parser.Extractor
	embedder   embedding.Embedder
	answerer   Answerer
	session    *session.Session
	buildIndex session.IndexBuilder
	rag        config.RAGConfig
}

func New(extractor parser.Extractor, embedder embedding.Embedder, answerer Answerer, sess *session.Session, buildIndex session.IndexBuilder, ragConfig config.RAGConfig) *Controller {
	if sess == nil {
		sess = session.New()
	}
	if buildIndex == nil {
		buildIndex = session.MemoryIndexBuilder
	}
	return &Controller{
		extractor:  extractor,
		embedder:   embedder,
		answerer:   answerer,
		session:    sess,
		buildIndex: buildIndex,
		rag:        ragConfig,
	}
}

func (c *Controller) State() State {
	if c.session.Loaded() {
		return DocumentLoaded
	}
	return Idle
}

// Current returns the loaded document or nil.
func (c *Controller) Current() *session.Document {
	return c.session.Current()
}

// LoadDocument extracts, chunks and embeds filePath, then replaces the
// session document. On any error the previous document stays in place.
func (c *Controller) LoadDocument(ctx context.Context, filePath string) (models.LoadResult, error) {
	start := time.Now()
	logger := log.With().Str("file", filePath).Logger()

	text, err := c.extractor.ExtractText(filePath)
	if err != nil {
		logger.Error().Err(err).Msg("Error extracting document")
		return models.LoadResult{}, err
	}
	if text == "" {
		err := fmt.Errorf("%w: %s contains no text", models.ErrExtraction, filepath.Base(filePath))
		logger.Error().Err(err).Msg("Error extracting document")
		return models.LoadResult{}, err
	}

	chunks := chunker.Split(text, c.rag.ChunkSize)
	logger.Info().Int("chunks", len(chunks)).Msg("Split document")

	chunkEmbeddings, err := embedding.EmbedChunks(ctx, c.embedder, chunks, c.rag.EmbedWorkers)
	if err != nil {
		logger.Error().Err(err).Msg("Error generating embedding")
		return models.LoadResult{}, err
	}

	id, err := helper.GenerateUUID()
	if err != nil {
		return models.LoadResult{}, err
	}
	doc, err := session.NewDocument(ctx, id, filePath, chunkEmbeddings, c.buildIndex)
	if err != nil {
		logger.Error().Err(err).Msg("Error building document index")
		return models.LoadResult{}, err
	}

	if prev := c.session.Swap(doc); prev != nil {
		logger.Debug().Str("previous", prev.Source).Msg("Replaced loaded document")
	}

	result := models.LoadResult{
		DocumentID: doc.ID,
		Source:     filePath,
		ChunkCount: doc.Len(),
		Duration:   time.Since(start),
	}
	logger.Info().Str("document_id", doc.ID).Int("chunks", result.ChunkCount).Dur("took", result.Duration).Msg("Document loaded")
	return result, nil
}

// Ask answers query from the loaded document. A blank query is skipped and
// asking before any load returns a warning; neither makes a model call.
func (c *Controller) Ask(ctx context.Context, query string) (models.PromptResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.PromptResponse{Status: models.AskSkipped}, nil
	}

	doc := c.session.Current()
	if doc == nil {
		log.Warn().Msg("Question asked before any document was loaded")
		return models.PromptResponse{Status: models.AskWarning, Query: query, Warning: models.WarnNoDocument}, nil
	}

	queryEmbedding, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("Error embedding query")
		return models.PromptResponse{}, err
	}

	sources, err := doc.Search(ctx, queryEmbedding, c.rag.TopK)
	if err != nil {
		log.Error().Err(err).Msg("Error searching document")
		return models.PromptResponse{}, err
	}
	contexts := make([]string, len(sources))
	for i, s := range sources {
		contexts[i] = s.Content
	}

	answer, err := c.answerer.Answer(ctx, contexts, query)
	if err != nil {
		log.Error().Err(err).Msg("Error generating answer")
		return models.PromptResponse{}, err
	}

	log.Info().Str("document_id", doc.ID).Int("sources", len(sources)).Msg("Answered question")
	return models.PromptResponse{
		Status:  models.AskAnswered,
		Query:   query,
		Sources: sources,
		Content: answer,
	}, nil
}
