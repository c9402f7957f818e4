package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/vulval/vulval-backend/internal/config"
	"github.com/vulval/vulval-backend/internal/metrics"
)

// OpenRouterProvider is the direct-completion implementation: one chat
// completion call, no tools.
type OpenRouterProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	metrics *metrics.Collector
}

// NewOpenRouterProvider creates a provider against any OpenAI-compatible
// endpoint; the default base URL points at OpenRouter.
func NewOpenRouterProvider(cfg config.LLMConfig, collector *metrics.Collector) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenRouterProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		metrics: collector,
	}, nil
}

// Complete performs a single non-streaming completion.
func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toWireMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	p.metrics.RecordLLMLatency(time.Since(started))
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// toWireMessages maps internal turns onto OpenAI chat messages, translating
// the stored "model" role to "assistant".
func toWireMessages(req CompletionRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, turn := range req.Turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	return messages
}
