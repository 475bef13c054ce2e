package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/config"
	"docchat/internal/llmservice"
	"docchat/internal/models"
)

var thinkTagRe = regexp.MustCompile(models.ThinkTag)

// Answerer asks the chat model one stateless question at a time.
type Answerer struct {
	llm llms.Model
	cfg *config.LLMConfig
}

func NewAnswerer(llm llms.Model, cfg *config.LLMConfig) *Answerer {
	return &Answerer{llm: llm, cfg: cfg}
}

// BuildPrompt joins the ranked contexts with newlines and appends the question.
func BuildPrompt(contexts []string, question string) string {
	return fmt.Sprintf(models.AnswerPromptTemplate, strings.Join(contexts, models.ContextSeparator), question)
}

// Answer sends a single user message carrying the composed prompt and
// returns the model's reply with any <think> block removed.
func (a *Answerer) Answer(ctx context.Context, contexts []string, question string) (string, error) {
	prompt := BuildPrompt(contexts, question)
	msgContent := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	log.Debug().Int("contexts", len(contexts)).Int("prompt_len", len(prompt)).Msg("Sending chat request")
	res, err := llmservice.GenerateContent(ctx, a.llm, a.cfg, msgContent)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrChatService, err)
	}
	if res == nil || len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", models.ErrChatService)
	}

	answer := thinkTagRe.ReplaceAllString(res.Choices[0].Content, "")
	return strings.TrimSpace(answer), nil
}
