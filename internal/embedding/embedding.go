package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/errgroup"

	"docchat/internal/config"
	"docchat/internal/models"
)

// Embedder turns a single text into a vector. *embeddings.EmbedderImpl
// satisfies it.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client wraps an Embedder with a per-call timeout and maps every failure
// to models.ErrEmbeddingService.
type Client struct {
	embedder Embedder
	timeout  time.Duration
}

func NewClient(embedder Embedder, timeout time.Duration) *Client {
	return &Client{embedder: embedder, timeout: timeout}
}

// NewFromConfig builds the langchaingo embedder for the configured provider.
func NewFromConfig(cfg *config.LLMConfig) (*Client, error) {
	var (
		embedder *embeddings.EmbedderImpl
		err      error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		embedder, err = NewEmbedder(cfg.APIKey(), cfg.BaseURL, cfg.Model)
	default:
		embedder, err = NewOllamaEmbedder(cfg)
	}
	if err != nil {
		return nil, err
	}
	return NewClient(embedder, cfg.Timeout()), nil
}

// NewEmbedder creates an embedder for an OpenAI-compatible endpoint
func NewEmbedder(apiKey, baseURL, embeddingModel string) (*embeddings.EmbedderImpl, error) {
	log.Debug().Str("base_url", baseURL).Str("embedding_model", embeddingModel).Msg("Creating OpenAI embedder")

	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithModel(embeddingModel),
		openai.WithEmbeddingModel(embeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai embedding client: %w", err)
	}
	return newEmbedder(llm)
}

// new ollama embedder
func NewOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Str("base_url", llmConfig.BaseURL).Str("embedding_model", llmConfig.Model).Msg("Creating Ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama embedding client: %w", err)
	}
	return newEmbedder(llm)
}

// newEmbedder sends chunk text to the model as is. langchaingo replaces
// newlines with spaces unless told otherwise.
func newEmbedder(client embeddings.EmbedderClient) (*embeddings.EmbedderImpl, error) {
	return embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
}

// EmbedQuery embeds one text. An empty vector counts as a malformed reply.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	vec, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingService, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", models.ErrEmbeddingService)
	}
	return vec, nil
}

// EmbedChunks embeds every chunk and returns results aligned with chunks.
// workers <= 1 embeds strictly one after another; more workers run a
// bounded pool. The first failure cancels the rest and nothing partial is
// returned.
func EmbedChunks(ctx context.Context, embedder Embedder, chunks []string, workers int) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	out := make([]models.ChunkEmbedding, len(chunks))
	embedOne := func(ctx context.Context, i int) error {
		vec, err := embedder.EmbedQuery(ctx, chunks[i])
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		out[i] = models.ChunkEmbedding{Content: chunks[i], Embedding: vec, ChunkID: i}
		return nil
	}

	if workers <= 1 {
		for i := range chunks {
			if err := embedOne(ctx, i); err != nil {
				return nil, err
			}
			log.Debug().Int("chunk", i+1).Int("total", len(chunks)).Msg("Embedded chunk")
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return embedOne(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
