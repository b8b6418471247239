package llm_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLLM struct {
	options *llm.ChatOptions
}

func (c *captureLLM) Chat(_ context.Context, _ []llm.Message, opts ...llm.Option) (llm.Response, error) {
	c.options = llm.Apply(opts...)
	return llm.Response{Message: llm.NewAssistantMessage("ok")}, nil
}

func TestMessageKind(t *testing.T) {
	tests := []struct {
		msg  llm.Message
		want llm.Kind
	}{
		{llm.NewUserMessage("hi"), llm.KindHuman},
		{llm.NewAssistantMessage("hello"), llm.KindAI},
		{llm.NewSystemMessage("be nice"), llm.KindSystem},
		{llm.NewToolMessage("call_1", "weather_info", "sunny"), llm.KindTool},
		{llm.Message{Role: "function"}, llm.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.Kind())
		})
	}
}

func TestHasToolCalls(t *testing.T) {
	msg := llm.NewAssistantMessage("")
	assert.False(t, msg.HasToolCalls())

	msg.ToolCalls = []llm.ToolCall{{ID: "1", Type: "function"}}
	assert.True(t, msg.HasToolCalls())
}

func TestUnansweredToolCalls(t *testing.T) {
	request := llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "c1", Function: llm.FunctionCall{Name: "weather_info"}},
			{ID: "c2", Function: llm.FunctionCall{Name: "retrieve_places"}},
		},
	}

	tests := []struct {
		name     string
		messages []llm.Message
		want     []string
	}{
		{name: "empty"},
		{name: "plain answer", messages: []llm.Message{llm.NewUserMessage("hi"), llm.NewAssistantMessage("hey")}},
		{name: "nothing answered", messages: []llm.Message{llm.NewUserMessage("hi"), request}, want: []string{"c1", "c2"}},
		{
			name:     "partly answered",
			messages: []llm.Message{request, llm.NewToolMessage("c1", "weather_info", "Sunny")},
			want:     []string{"c2"},
		},
		{
			name: "fully answered",
			messages: []llm.Message{
				request,
				llm.NewToolMessage("c1", "weather_info", "Sunny"),
				llm.NewToolMessage("c2", "retrieve_places", "Kyoto"),
			},
		},
		{
			name:     "only the newest AI message counts",
			messages: []llm.Message{request, llm.NewAssistantMessage("later answer")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, tc := range llm.UnansweredToolCalls(tt.messages) {
				ids = append(ids, tc.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestClientAppliesDefaultsBeforeCallOptions(t *testing.T) {
	capture := &captureLLM{}
	client := llm.NewClient(capture, llm.WithModel("qwen3:0.6b"), llm.WithTemperature(0))

	_, err := client.Chat(context.Background(), nil, llm.WithModel("override"))
	require.NoError(t, err)

	assert.Equal(t, "override", capture.options.Model)
	require.NotNil(t, capture.options.Temperature)
	assert.Equal(t, float32(0), *capture.options.Temperature)
}
