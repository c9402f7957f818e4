package llm

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulval/vulval-backend/internal/metrics"
	"github.com/vulval/vulval-backend/internal/weather"
)

type fakeLookup struct {
	lastLocation string
	result       string
}

func (f *fakeLookup) Current(ctx context.Context, location string) string {
	f.lastLocation = location
	return f.result
}

func testPipeline(lookup weather.Lookup) *ToolPipeline {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return &ToolPipeline{
		weather: lookup,
		metrics: metrics.NewCollector(prometheus.NewRegistry()),
		log:     log,
	}
}

func TestRunToolDispatchesWeatherLookup(t *testing.T) {
	lookup := &fakeLookup{result: `{"current":{"temp_c":18.0}}`}
	p := testPipeline(lookup)

	out := p.runTool(context.Background(), openai.ToolCall{
		ID:   "call_1",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      weatherToolName,
			Arguments: `{"location":"Paris"}`,
		},
	})

	assert.Equal(t, `{"current":{"temp_c":18.0}}`, out)
	assert.Equal(t, "Paris", lookup.lastLocation)
}

func TestRunToolFailuresReturnSentinel(t *testing.T) {
	tests := []struct {
		name string
		call openai.ToolCall
	}{
		{
			name: "unknown tool",
			call: openai.ToolCall{Function: openai.FunctionCall{Name: "launch_rocket", Arguments: "{}"}},
		},
		{
			name: "unparseable arguments",
			call: openai.ToolCall{Function: openai.FunctionCall{Name: weatherToolName, Arguments: "not json"}},
		},
		{
			name: "missing location",
			call: openai.ToolCall{Function: openai.FunctionCall{Name: weatherToolName, Arguments: "{}"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &fakeLookup{result: "unused"}
			p := testPipeline(lookup)
			assert.Equal(t, weather.FailureSentinel, p.runTool(context.Background(), tt.call))
			assert.Empty(t, lookup.lastLocation)
		})
	}
}

func TestToWireMessagesMapsRolesAndOrder(t *testing.T) {
	req := CompletionRequest{
		System: SystemInstruction,
		Turns: []Turn{
			{Role: RoleUser, Content: "Previous conversation summary: s"},
			{Role: RoleModel, Content: "Understood."},
			{Role: RoleUser, Content: "Hello"},
		},
	}

	messages := toWireMessages(req)
	require.Len(t, messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, messages[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[3].Role)
	assert.Equal(t, "Hello", messages[3].Content)
}
