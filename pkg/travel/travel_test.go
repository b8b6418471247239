package travel_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/travel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrievePlaces(t *testing.T) {
	tests := []struct {
		country string
		want    string
	}{
		{"Japan", "Top places in Japan: Tokyo, Kyoto, Osaka."},
		{"Bali", "Top places in Bali: Uluwatu, Ubud."},
		{"France", "Top places in France: Paris, Nice."},
		{"Atlantis", "Top places in Atlantis: Generic tropical islands."},
		{"japan", "Top places in japan: Generic tropical islands."},
		{"", "Top places in : Generic tropical islands."},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			assert.Equal(t, tt.want, travel.RetrievePlaces(tt.country))
		})
	}
}

func TestWeatherInfo(t *testing.T) {
	for _, city := range []string{"Tokyo", "Paris", "São Paulo"} {
		got := travel.WeatherInfo(city)
		assert.Contains(t, got, city)
		assert.Contains(t, got, "Sunny and 28°C")
	}
	assert.Equal(t, "The weather in Tokyo is currently Sunny and 28°C.", travel.WeatherInfo("Tokyo"))
}

func TestTools(t *testing.T) {
	client := travel.Tools()
	assert.Equal(t, []string{travel.ToolRetrievePlaces, travel.ToolWeatherInfo}, client.Names())

	msg, err := client.Call(context.Background(), llm.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: llm.FunctionCall{Name: travel.ToolRetrievePlaces, Arguments: `{"country":"Japan"}`},
	})
	require.NoError(t, err)
	assert.Equal(t, llm.KindTool, msg.Kind())
	assert.Equal(t, travel.ToolRetrievePlaces, msg.Name)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.Equal(t, "Top places in Japan: Tokyo, Kyoto, Osaka.", msg.Content)

	bad, err := client.Call(context.Background(), llm.ToolCall{
		ID:       "call_2",
		Function: llm.FunctionCall{Name: travel.ToolWeatherInfo, Arguments: `{"town":"Tokyo"}`},
	})
	require.NoError(t, err)
	assert.Contains(t, bad.Content, `missing required argument "city"`)
}
