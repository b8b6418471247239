package mock_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/providers/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var declared = []llm.Tool{
	{Type: "function", Function: llm.Function{Name: "retrieve_places"}},
	{Type: "function", Function: llm.Function{Name: "weather_info"}},
}

func TestProvider_ToolSelection(t *testing.T) {
	tests := []struct {
		prompt string
		tool   string
		args   string
	}{
		{prompt: "What's the weather in Tokyo?", tool: "weather_info", args: `{"city":"Tokyo"}`},
		{prompt: "how is the weather in New York today", tool: "weather_info", args: `{"city":"New York today"}`},
		{prompt: "Tell me about Japan", tool: "retrieve_places", args: `{"country":"Japan"}`},
		{prompt: "I want to go to Bali", tool: "retrieve_places", args: `{"country":"Bali"}`},
	}

	p := mock.NewProvider()
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			resp, err := p.Chat(context.Background(), []llm.Message{llm.NewUserMessage(tt.prompt)}, llm.WithTools(declared))
			require.NoError(t, err)
			require.True(t, resp.Message.HasToolCalls())
			assert.Equal(t, tt.tool, resp.Message.ToolCalls[0].Function.Name)
			assert.JSONEq(t, tt.args, resp.Message.ToolCalls[0].Function.Arguments)
			assert.NotEmpty(t, resp.Message.ToolCalls[0].ID)
		})
	}
}

func TestProvider_NoToolsDeclared(t *testing.T) {
	resp, err := mock.NewProvider().Chat(context.Background(), []llm.Message{llm.NewUserMessage("Tell me about Japan")})
	require.NoError(t, err)
	assert.False(t, resp.Message.HasToolCalls())
	assert.Contains(t, resp.Message.Content, "Tell me about Japan")
}

func TestProvider_AnswersWithToolResults(t *testing.T) {
	msgs := []llm.Message{
		llm.NewUserMessage("What's the weather in Tokyo?"),
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Function: llm.FunctionCall{Name: "weather_info"}}}},
		llm.NewToolMessage("c1", "weather_info", "The weather in Tokyo is currently Sunny and 28°C."),
	}

	resp, err := mock.NewProvider().Chat(context.Background(), msgs, llm.WithTools(declared))
	require.NoError(t, err)
	assert.Equal(t, llm.KindAI, resp.Message.Kind())
	assert.Contains(t, resp.Message.Content, "The weather in Tokyo is currently Sunny and 28°C.")
}

func TestProvider_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.NewProvider().Chat(ctx, []llm.Message{llm.NewUserMessage("hi")})
	assert.ErrorIs(t, err, context.Canceled)
}
