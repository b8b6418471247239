package memoryxinfra_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx/memoryxinfra"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteSaver(t *testing.T) *memoryxinfra.SQLiteSaver {
	t.Helper()
	saver, err := memoryxinfra.NewSQLiteSaver(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = saver.Close() })
	return saver
}

func TestSQLiteSaver_RoundTrip(t *testing.T) {
	ctx := context.Background()
	saver := newSQLiteSaver(t)

	_, err := saver.Get(ctx, "t1")
	assert.True(t, errx.Is(err, memoryx.CodeCheckpointNotFound))

	user := llm.NewUserMessage("Tell me about Japan")
	tool := llm.NewToolMessage("call_1", "retrieve_places", "Top places in Japan: Tokyo, Kyoto, Osaka.")

	require.NoError(t, saver.Put(ctx, checkpoint("t1", 0, user)))
	require.NoError(t, saver.Put(ctx, checkpoint("t1", 1, user, tool)))
	require.NoError(t, saver.Put(ctx, checkpoint("t2", 0, user)))

	latest, err := saver.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Step)
	require.Len(t, latest.Messages, 2)
	assert.Equal(t, "retrieve_places", latest.Messages[1].Name)
	assert.False(t, latest.CreatedAt.IsZero())

	history, err := saver.History(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 0, history[0].Step)

	ids, err := saver.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, ids)

	require.NoError(t, saver.Delete(ctx, "t1"))
	_, err = saver.Get(ctx, "t1")
	assert.True(t, errx.Is(err, memoryx.CodeCheckpointNotFound))
}

func TestSQLiteSaver_RejectsRewrite(t *testing.T) {
	ctx := context.Background()
	saver := newSQLiteSaver(t)

	a := llm.NewUserMessage("a")
	require.NoError(t, saver.Put(ctx, checkpoint("t1", 0, a, llm.NewUserMessage("b"))))

	err := saver.Put(ctx, checkpoint("t1", 1, a))
	assert.True(t, errx.Is(err, memoryx.CodeNonMonotonic))

	err = saver.Put(ctx, checkpoint("t1", 0, a, llm.NewUserMessage("b"), llm.NewUserMessage("c")))
	assert.True(t, errx.Is(err, memoryx.CodeNonMonotonic))
}

func TestSQLiteSaver_ConcurrentThreads(t *testing.T) {
	ctx := context.Background()
	saver := newSQLiteSaver(t)

	var wg sync.WaitGroup
	for _, thread := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(thread string) {
			defer wg.Done()
			var msgs []llm.Message
			for step := 0; step < 5; step++ {
				msgs = append(msgs, llm.NewUserMessage("hi"))
				assert.NoError(t, saver.Put(ctx, checkpoint(thread, step, msgs...)))
			}
		}(thread)
	}
	wg.Wait()

	for _, thread := range []string{"a", "b", "c", "d"} {
		history, err := saver.History(ctx, thread)
		require.NoError(t, err)
		assert.Len(t, history, 5)
	}
}
