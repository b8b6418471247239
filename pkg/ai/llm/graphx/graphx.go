package graphx

import (
	"context"
	"fmt"
	"slices"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/lockx"
)

const (
	// START is the virtual entry node. Its snapshot holds the merged input.
	START = "__start__"

	// END is the virtual terminal node
	END = "__end__"
)

const defaultMaxSteps = 25

// State is the value flowing through a graph: an accumulating message list
type State struct {
	Messages []llm.Message `json:"messages"`
}

// Last returns the most recent message, if any
func (s State) Last() (llm.Message, bool) {
	if len(s.Messages) == 0 {
		return llm.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

func (s State) clone() State {
	return State{Messages: slices.Clone(s.Messages)}
}

// Update is what a node returns. Its messages are appended to the state.
type Update struct {
	Messages []llm.Message `json:"messages"`
}

// NodeFunc is a computation step
type NodeFunc func(ctx context.Context, state State) (Update, error)

// RouterFunc picks the next node after a conditional source node
type RouterFunc func(state State) string

type edgeSpec struct {
	to      string
	router  RouterFunc
	targets []string
}

// Builder assembles nodes and edges before Compile.
//
//	b := graphx.NewBuilder()
//	b.AddNode("agent", agentNode)
//	b.AddNode("tools", toolNode)
//	b.AddEdge(graphx.START, "agent")
//	b.AddConditionalEdges("agent", route, []string{"tools", graphx.END})
//	b.AddEdge("tools", "agent")
//	g, err := b.Compile(graphx.Options{Saver: saver})
type Builder struct {
	nodes map[string]NodeFunc
	order []string
	edges map[string]edgeSpec
}

func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]NodeFunc),
		edges: make(map[string]edgeSpec),
	}
}

// AddNode registers a node. Names must be unique and not reserved.
func (b *Builder) AddNode(name string, fn NodeFunc) error {
	if name == "" {
		return ErrInvalidGraph().WithDetail("reason", "node name cannot be empty")
	}
	if name == START || name == END {
		return ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("node name %s is reserved", name))
	}
	if fn == nil {
		return ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("node %s has nil function", name))
	}
	if _, exists := b.nodes[name]; exists {
		return ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("node %s already exists", name))
	}

	b.nodes[name] = fn
	b.order = append(b.order, name)
	return nil
}

// AddEdge adds a fixed transition. Each source has exactly one outgoing edge.
func (b *Builder) AddEdge(from, to string) error {
	if err := b.checkSource(from); err != nil {
		return err
	}
	if to == "" {
		return ErrInvalidGraph().WithDetail("reason", "edge target cannot be empty")
	}
	if to == START {
		return ErrInvalidGraph().WithDetail("reason", "edges cannot target the start node")
	}

	b.edges[from] = edgeSpec{to: to}
	return nil
}

// AddConditionalEdges routes from a node to one of targets using router
func (b *Builder) AddConditionalEdges(from string, router RouterFunc, targets []string) error {
	if err := b.checkSource(from); err != nil {
		return err
	}
	if from == START {
		return ErrInvalidGraph().WithDetail("reason", "start edge must be fixed")
	}
	if router == nil {
		return ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("router for %s is nil", from))
	}
	if len(targets) == 0 {
		return ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("router for %s has no targets", from))
	}

	b.edges[from] = edgeSpec{router: router, targets: slices.Clone(targets)}
	return nil
}

func (b *Builder) checkSource(from string) error {
	if from == "" {
		return ErrInvalidGraph().WithDetail("reason", "edge source cannot be empty")
	}
	if from == END {
		return ErrInvalidGraph().WithDetail("reason", "edges cannot leave the end node")
	}
	if _, exists := b.edges[from]; exists {
		return ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("node %s already has an outgoing edge", from))
	}
	return nil
}

// Options configures a compiled graph
type Options struct {
	// Name labels log lines
	Name string

	// Saver stores a checkpoint per yielded snapshot. Defaults to an in-memory saver.
	Saver memoryx.Saver

	// MaxSteps bounds node executions per run. Defaults to 25.
	MaxSteps int
}

// Compile validates the structure and returns an immutable graph
func (b *Builder) Compile(opts Options) (*Graph, error) {
	if len(b.nodes) == 0 {
		return nil, ErrInvalidGraph().WithDetail("reason", "graph has no nodes")
	}
	if _, ok := b.edges[START]; !ok {
		return nil, ErrInvalidGraph().WithDetail("reason", "no edge from start")
	}

	known := func(name string) bool {
		if name == END {
			return true
		}
		_, ok := b.nodes[name]
		return ok
	}

	for from, e := range b.edges {
		if from != START && !known(from) {
			return nil, ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("edge source %s does not exist", from))
		}
		if e.router == nil {
			if !known(e.to) {
				return nil, ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("edge target %s does not exist", e.to))
			}
			continue
		}
		for _, target := range e.targets {
			if !known(target) {
				return nil, ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("route target %s does not exist", target))
			}
		}
	}

	for _, name := range b.order {
		if _, ok := b.edges[name]; !ok {
			return nil, ErrInvalidGraph().WithDetail("reason", fmt.Sprintf("node %s has no outgoing edge", name))
		}
	}

	if opts.Saver == nil {
		opts.Saver = memoryx.NewInMemorySaver()
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	if opts.Name == "" {
		opts.Name = "graph"
	}

	g := &Graph{
		name:     opts.Name,
		saver:    opts.Saver,
		maxSteps: opts.MaxSteps,
		nodes:    make(map[string]NodeFunc, len(b.nodes)),
		edges:    make(map[string]edgeSpec, len(b.edges)),
		locks:    lockx.NewKeyed(),
	}
	for name, fn := range b.nodes {
		g.nodes[name] = fn
	}
	for from, e := range b.edges {
		g.edges[from] = e
	}
	return g, nil
}

// Graph is a compiled graph. It is safe for concurrent use; runs on the same
// thread id are serialised.
type Graph struct {
	name     string
	saver    memoryx.Saver
	maxSteps int
	nodes    map[string]NodeFunc
	edges    map[string]edgeSpec
	locks    *lockx.Keyed
}

func (g *Graph) next(from string, state State) (string, error) {
	e := g.edges[from]
	if e.router == nil {
		return e.to, nil
	}

	to := e.router(state)
	if !slices.Contains(e.targets, to) {
		return "", ErrInvalidRoute().
			WithDetail("node", from).
			WithDetail("route", to)
	}
	return to, nil
}

// Stream returns a lazy iterator over the run's snapshots
func (g *Graph) Stream(ctx context.Context, input Update, threadID string) *Stream {
	return &Stream{
		graph:    g,
		ctx:      ctx,
		input:    input,
		threadID: threadID,
	}
}

// Invoke runs the graph to completion and returns the final state
func (g *Graph) Invoke(ctx context.Context, input Update, threadID string) (State, error) {
	stream := g.Stream(ctx, input, threadID)
	defer stream.Close()

	var final State
	for {
		snap, err := stream.Next()
		if err != nil {
			if isEOF(err) {
				return final, nil
			}
			return State{}, err
		}
		final = State{Messages: snap.Messages}
	}
}

// State returns the thread's latest state. Unknown threads have an empty state.
func (g *Graph) State(ctx context.Context, threadID string) (State, error) {
	cp, err := g.saver.Get(ctx, threadID)
	if err != nil {
		if isNotFound(err) {
			return State{}, nil
		}
		return State{}, err
	}
	return State{Messages: cp.Messages}, nil
}

// History returns every checkpoint of a thread, oldest first
func (g *Graph) History(ctx context.Context, threadID string) ([]memoryx.Checkpoint, error) {
	return g.saver.History(ctx, threadID)
}
