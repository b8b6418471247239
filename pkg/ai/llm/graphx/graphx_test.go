package graphx_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/graphx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(content string) graphx.NodeFunc {
	return func(ctx context.Context, state graphx.State) (graphx.Update, error) {
		return graphx.Update{Messages: []llm.Message{llm.NewAssistantMessage(content)}}, nil
	}
}

func linearGraph(t *testing.T, saver memoryx.Saver) *graphx.Graph {
	t.Helper()
	b := graphx.NewBuilder()
	require.NoError(t, b.AddNode("agent", reply("hello")))
	require.NoError(t, b.AddEdge(graphx.START, "agent"))
	require.NoError(t, b.AddEdge("agent", graphx.END))
	g, err := b.Compile(graphx.Options{Saver: saver, Name: "test"})
	require.NoError(t, err)
	return g
}

func drain(t *testing.T, stream *graphx.Stream) []graphx.Snapshot {
	t.Helper()
	var snaps []graphx.Snapshot
	for {
		snap, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return snaps
		}
		require.NoError(t, err)
		snaps = append(snaps, snap)
	}
}

func TestBuilder_Validation(t *testing.T) {
	noop := reply("x")

	tests := []struct {
		name  string
		build func(b *graphx.Builder) error
	}{
		{
			name: "reserved node name",
			build: func(b *graphx.Builder) error {
				return b.AddNode(graphx.END, noop)
			},
		},
		{
			name: "duplicate node",
			build: func(b *graphx.Builder) error {
				_ = b.AddNode("a", noop)
				return b.AddNode("a", noop)
			},
		},
		{
			name: "second outgoing edge",
			build: func(b *graphx.Builder) error {
				_ = b.AddNode("a", noop)
				_ = b.AddEdge("a", graphx.END)
				return b.AddEdge("a", "a")
			},
		},
		{
			name: "conditional start",
			build: func(b *graphx.Builder) error {
				return b.AddConditionalEdges(graphx.START, func(graphx.State) string { return "a" }, []string{"a"})
			},
		},
		{
			name: "missing start edge",
			build: func(b *graphx.Builder) error {
				_ = b.AddNode("a", noop)
				_ = b.AddEdge("a", graphx.END)
				_, err := b.Compile(graphx.Options{})
				return err
			},
		},
		{
			name: "unknown target",
			build: func(b *graphx.Builder) error {
				_ = b.AddNode("a", noop)
				_ = b.AddEdge(graphx.START, "a")
				_ = b.AddEdge("a", "missing")
				_, err := b.Compile(graphx.Options{})
				return err
			},
		},
		{
			name: "dangling node",
			build: func(b *graphx.Builder) error {
				_ = b.AddNode("a", noop)
				_ = b.AddNode("b", noop)
				_ = b.AddEdge(graphx.START, "a")
				_ = b.AddEdge("a", graphx.END)
				_, err := b.Compile(graphx.Options{})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build(graphx.NewBuilder())
			assert.True(t, errx.Is(err, graphx.CodeInvalidGraph), "got %v", err)
		})
	}
}

func TestGraph_StreamYieldsInputThenNodes(t *testing.T) {
	saver := memoryx.NewInMemorySaver()
	g := linearGraph(t, saver)

	snaps := drain(t, g.Stream(context.Background(), graphx.Update{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	}, "t1"))

	require.Len(t, snaps, 2)
	assert.Equal(t, graphx.START, snaps[0].Node)
	assert.Equal(t, "agent", snaps[0].Next)
	assert.Len(t, snaps[0].Messages, 1)
	assert.Equal(t, "agent", snaps[1].Node)
	assert.Equal(t, graphx.END, snaps[1].Next)

	last, ok := snaps[1].Last()
	require.True(t, ok)
	assert.Equal(t, "hello", last.Content)

	history, err := g.History(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGraph_MemoryAcrossTurns(t *testing.T) {
	ctx := context.Background()
	g := linearGraph(t, memoryx.NewInMemorySaver())

	_, err := g.Invoke(ctx, graphx.Update{Messages: []llm.Message{llm.NewUserMessage("I like beaches")}}, "t1")
	require.NoError(t, err)

	final, err := g.Invoke(ctx, graphx.Update{Messages: []llm.Message{llm.NewUserMessage("Where should I go?")}}, "t1")
	require.NoError(t, err)
	require.Len(t, final.Messages, 4)
	assert.Equal(t, "I like beaches", final.Messages[0].Content)

	other, err := g.State(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, other.Messages)

	history, err := g.History(ctx, "t1")
	require.NoError(t, err)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].Step, history[i-1].Step)
		assert.GreaterOrEqual(t, len(history[i].Messages), len(history[i-1].Messages))
	}
}

func TestGraph_ConditionalLoop(t *testing.T) {
	calls := 0
	agent := func(ctx context.Context, state graphx.State) (graphx.Update, error) {
		calls++
		return graphx.Update{Messages: []llm.Message{llm.NewAssistantMessage("turn")}}, nil
	}
	route := func(state graphx.State) string {
		if len(state.Messages) < 4 {
			return "agent"
		}
		return graphx.END
	}

	b := graphx.NewBuilder()
	require.NoError(t, b.AddNode("agent", agent))
	require.NoError(t, b.AddEdge(graphx.START, "agent"))
	require.NoError(t, b.AddConditionalEdges("agent", route, []string{"agent", graphx.END}))
	g, err := b.Compile(graphx.Options{})
	require.NoError(t, err)

	final, err := g.Invoke(context.Background(), graphx.Update{Messages: []llm.Message{llm.NewUserMessage("go")}}, "t1")
	require.NoError(t, err)
	assert.Len(t, final.Messages, 4)
	assert.Equal(t, 3, calls)
}

func TestGraph_RecursionLimit(t *testing.T) {
	b := graphx.NewBuilder()
	require.NoError(t, b.AddNode("loop", reply("again")))
	require.NoError(t, b.AddEdge(graphx.START, "loop"))
	require.NoError(t, b.AddEdge("loop", "loop"))
	g, err := b.Compile(graphx.Options{MaxSteps: 3})
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), graphx.Update{}, "t1")
	assert.True(t, errx.Is(err, graphx.CodeRecursionLimit))

	state, err := g.State(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 3)
}

func TestGraph_NodeError(t *testing.T) {
	boom := errors.New("model unavailable")
	b := graphx.NewBuilder()
	require.NoError(t, b.AddNode("agent", func(context.Context, graphx.State) (graphx.Update, error) {
		return graphx.Update{}, boom
	}))
	require.NoError(t, b.AddEdge(graphx.START, "agent"))
	require.NoError(t, b.AddEdge("agent", graphx.END))
	g, err := b.Compile(graphx.Options{})
	require.NoError(t, err)

	stream := g.Stream(context.Background(), graphx.Update{Messages: []llm.Message{llm.NewUserMessage("hi")}}, "t1")
	_, err = stream.Next()
	require.NoError(t, err)

	_, err = stream.Next()
	var nodeErr *graphx.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "agent", nodeErr.Node)
	assert.ErrorIs(t, err, boom)

	_, again := stream.Next()
	assert.Equal(t, err, again)
}

func TestGraph_InvalidRoute(t *testing.T) {
	b := graphx.NewBuilder()
	require.NoError(t, b.AddNode("agent", reply("x")))
	require.NoError(t, b.AddEdge(graphx.START, "agent"))
	require.NoError(t, b.AddConditionalEdges("agent", func(graphx.State) string { return "nowhere" }, []string{graphx.END}))
	g, err := b.Compile(graphx.Options{})
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), graphx.Update{}, "t1")
	assert.True(t, errx.Is(err, graphx.CodeInvalidRoute))
}

func TestGraph_RequiresThreadID(t *testing.T) {
	g := linearGraph(t, nil)
	_, err := g.Invoke(context.Background(), graphx.Update{}, "")
	assert.True(t, errx.Is(err, memoryx.CodeMissingThreadID))
}

func TestGraph_SerialisesSameThread(t *testing.T) {
	ctx := context.Background()
	g := linearGraph(t, memoryx.NewInMemorySaver())

	first := g.Stream(ctx, graphx.Update{Messages: []llm.Message{llm.NewUserMessage("one")}}, "t1")
	_, err := first.Next()
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	blocked := g.Stream(waitCtx, graphx.Update{Messages: []llm.Message{llm.NewUserMessage("two")}}, "t1")
	_, err = blocked.Next()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := g.Stream(ctx, graphx.Update{Messages: []llm.Message{llm.NewUserMessage("three")}}, "t2")
	assert.Len(t, drain(t, other), 2)

	first.Close()
	assert.Len(t, drain(t, g.Stream(ctx, graphx.Update{Messages: []llm.Message{llm.NewUserMessage("four")}}, "t1")), 2)
}

func TestGraph_ConcurrentInvokes(t *testing.T) {
	ctx := context.Background()
	g := linearGraph(t, memoryx.NewInMemorySaver())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Invoke(ctx, graphx.Update{Messages: []llm.Message{llm.NewUserMessage("hi")}}, "shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := g.State(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 16)
}
