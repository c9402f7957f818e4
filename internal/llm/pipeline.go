package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/vulval/vulval-backend/internal/config"
	"github.com/vulval/vulval-backend/internal/metrics"
	"github.com/vulval/vulval-backend/internal/weather"
)

// maxToolRounds bounds the tool-call loop. The weather tool answers in one
// round; anything deeper means the model is stuck.
const maxToolRounds = 3

const weatherToolName = "get_current_weather"

var weatherToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"location": {
			"type": "string",
			"description": "City name, postal code or coordinates to look up"
		}
	},
	"required": ["location"]
}`)

// ToolPipeline is the tool-augmented Provider implementation. It declares
// the weather lookup to the model and resolves tool calls mid-completion
// until the model produces a final text answer.
type ToolPipeline struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	weather weather.Lookup
	metrics *metrics.Collector
	log     *logrus.Logger
}

func NewToolPipeline(cfg config.LLMConfig, lookup weather.Lookup, collector *metrics.Collector, log *logrus.Logger) (*ToolPipeline, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &ToolPipeline{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		weather: lookup,
		metrics: collector,
		log:     log,
	}, nil
}

// Complete runs a completion with the weather tool declared. Tool results
// are fed back verbatim; a failed lookup reaches the model as the fixed
// failure sentinel, never as an error.
func (p *ToolPipeline) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := toWireMessages(req)
	tools := []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        weatherToolName,
			Description: "Get the current weather for a location",
			Parameters:  weatherToolSchema,
		},
	}}

	for round := 0; round <= maxToolRounds; round++ {
		started := time.Now()
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.model,
			Messages:    messages,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			Tools:       tools,
		})
		p.metrics.RecordLLMLatency(time.Since(started))
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("completion returned no choices")
		}

		choice := resp.Choices[0].Message
		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		messages = append(messages, choice)
		for _, call := range choice.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    p.runTool(ctx, call),
				ToolCallID: call.ID,
			})
		}
	}

	return "", errors.New("tool call loop exceeded round limit")
}

func (p *ToolPipeline) runTool(ctx context.Context, call openai.ToolCall) string {
	if call.Function.Name != weatherToolName {
		p.log.WithField("tool", call.Function.Name).Warn("model requested unknown tool")
		return weather.FailureSentinel
	}

	var args struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args.Location == "" {
		p.log.WithError(err).Warn("unparseable weather tool arguments")
		return weather.FailureSentinel
	}

	p.metrics.RecordWeatherLookup()
	return p.weather.Current(ctx, args.Location)
}
