package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docchat/internal/config"
)

// NewChatModel returns the langchaingo chat model for the configured
// provider.
func NewChatModel(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().Str("provider", llmConfig.Provider).Str("base_url", llmConfig.BaseURL).Str("model", llmConfig.Model).Msg("Creating chat model")

	switch llmConfig.Provider {
	case config.ProviderOpenAI:
		llm, err := openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.APIKey(), "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai chat client: %w", err)
		}
		return llm, nil
	case config.ProviderOllama:
		llm, err := ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama chat client: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", llmConfig.Provider)
	}
}

// call llm
func GenerateContent(ctx context.Context, llm llms.Model, llmConfig *config.LLMConfig, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	if timeout := llmConfig.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var opts []llms.CallOption
	if llmConfig.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(llmConfig.Temperature))
	}
	return llm.GenerateContent(ctx, messages, opts...)
}
