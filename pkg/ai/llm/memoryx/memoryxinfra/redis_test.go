package memoryxinfra_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx/memoryxinfra"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisSaver(t *testing.T) *memoryxinfra.RedisSaver {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return memoryxinfra.NewRedisSaver(client)
}

func checkpoint(thread string, step int, msgs ...llm.Message) memoryx.Checkpoint {
	return memoryx.Checkpoint{ThreadID: thread, Step: step, Node: "agent", Messages: msgs}
}

func TestRedisSaver_RoundTrip(t *testing.T) {
	ctx := context.Background()
	saver := newRedisSaver(t)

	_, err := saver.Get(ctx, "t1")
	assert.True(t, errx.Is(err, memoryx.CodeCheckpointNotFound))

	user := llm.NewUserMessage("What's the weather in Tokyo?")
	ai := llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: llm.FunctionCall{Name: "weather_info", Arguments: `{"city":"Tokyo"}`},
		}},
	}

	require.NoError(t, saver.Put(ctx, checkpoint("t1", 0, user)))
	require.NoError(t, saver.Put(ctx, checkpoint("t1", 1, user, ai)))

	latest, err := saver.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Step)
	require.Len(t, latest.Messages, 2)
	assert.Equal(t, "weather_info", latest.Messages[1].ToolCalls[0].Function.Name)

	history, err := saver.History(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	ids, err := saver.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids)
}

func TestRedisSaver_RejectsRewrite(t *testing.T) {
	ctx := context.Background()
	saver := newRedisSaver(t)

	a := llm.NewUserMessage("a")
	b := llm.NewUserMessage("b")
	require.NoError(t, saver.Put(ctx, checkpoint("t1", 0, a, b)))

	err := saver.Put(ctx, checkpoint("t1", 1, a))
	assert.True(t, errx.Is(err, memoryx.CodeNonMonotonic))

	history, err := saver.History(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRedisSaver_Delete(t *testing.T) {
	ctx := context.Background()
	saver := newRedisSaver(t)

	require.NoError(t, saver.Put(ctx, checkpoint("t1", 0, llm.NewUserMessage("a"))))
	require.NoError(t, saver.Delete(ctx, "t1"))

	ids, err := saver.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	history, err := saver.History(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
