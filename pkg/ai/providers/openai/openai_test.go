package aiopenai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	aiopenai "github.com/Abraxas-365/wanderlust/pkg/ai/providers/openai"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toolCallCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "qwen3:0.6b",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "weather_info", "arguments": "{\"city\":\"Tokyo\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func newTestServer(t *testing.T, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		*captured = body

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toolCallCompletion))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_ChatToolCall(t *testing.T) {
	var body map[string]any
	srv := newTestServer(t, &body)

	provider := aiopenai.NewOpenAIProvider("test-key", option.WithBaseURL(srv.URL+"/v1/"))
	client := llm.NewClient(provider, llm.WithModel("qwen3:0.6b"))

	tools := []llm.Tool{{
		Type: "function",
		Function: llm.Function{
			Name:        "weather_info",
			Description: "Returns fake weather info for a city.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"city": map[string]any{"type": "string"}},
				"required":   []string{"city"},
			},
		},
	}}

	resp, err := client.Chat(context.Background(), []llm.Message{
		llm.NewSystemMessage("You are a travel agent."),
		llm.NewUserMessage("What's the weather in Tokyo?"),
	}, llm.WithTemperature(0), llm.WithTools(tools))
	require.NoError(t, err)

	assert.Equal(t, llm.KindAI, resp.Message.Kind())
	require.True(t, resp.Message.HasToolCalls())
	assert.Equal(t, "weather_info", resp.Message.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city":"Tokyo"}`, resp.Message.ToolCalls[0].Function.Arguments)
	assert.Equal(t, 17, resp.Usage.TotalTokens)

	assert.Equal(t, "qwen3:0.6b", body["model"])
	temp, ok := body["temperature"]
	require.True(t, ok, "zero temperature must be sent")
	assert.Equal(t, float64(0), temp)
	assert.Len(t, body["tools"], 1)
	assert.Len(t, body["messages"], 2)
}

func TestOpenAIProvider_ReplaysToolMessages(t *testing.T) {
	var body map[string]any
	srv := newTestServer(t, &body)

	provider := aiopenai.NewOpenAIProvider("test-key", option.WithBaseURL(srv.URL+"/v1/"))

	history := []llm.Message{
		llm.NewUserMessage("What's the weather in Tokyo?"),
		{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: llm.FunctionCall{Name: "weather_info", Arguments: `{"city":"Tokyo"}`},
			}},
		},
		llm.NewToolMessage("call_1", "weather_info", "The weather in Tokyo is currently Sunny and 28°C."),
	}

	_, err := provider.Chat(context.Background(), history)
	require.NoError(t, err)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 3)

	toolMsg := messages[2].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])

	_, hasTemp := body["temperature"]
	assert.False(t, hasTemp)
}

func TestOpenAIProvider_RejectsUnknownRole(t *testing.T) {
	provider := aiopenai.NewOpenAIProvider("test-key", option.WithBaseURL("http://127.0.0.1:0/"))

	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "narrator", Content: "x"}})
	assert.ErrorContains(t, err, "unsupported role")
}
