package graphx

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/logx"
)

// InterruptedToolResult answers tool calls left pending by an earlier run
const InterruptedToolResult = "Error: tool call was interrupted before it ran"

// Snapshot is the full state after one step of a run
type Snapshot struct {
	ThreadID string        `json:"thread_id"`
	Step     int           `json:"step"`
	Node     string        `json:"node"`
	Next     string        `json:"next"`
	Messages []llm.Message `json:"messages"`
}

// Last returns the message appended most recently
func (s Snapshot) Last() (llm.Message, bool) {
	return State{Messages: s.Messages}.Last()
}

// Stream yields one snapshot per Next call. The input snapshot comes first,
// then one per executed node. Next returns io.EOF once END is reached.
// The thread lock is held from the first Next until EOF, an error or Close.
type Stream struct {
	graph    *Graph
	ctx      context.Context
	input    Update
	threadID string

	started bool
	state   State
	step    int
	ran     int
	current string
	unlock  func()
	err     error
}

func (s *Stream) Next() (Snapshot, error) {
	if s.err != nil {
		return Snapshot{}, s.err
	}
	if !s.started {
		return s.start()
	}
	if s.current == END {
		return Snapshot{}, s.fail(io.EOF)
	}
	if err := s.ctx.Err(); err != nil {
		return Snapshot{}, s.fail(err)
	}
	if s.ran >= s.graph.maxSteps {
		return Snapshot{}, s.fail(ErrRecursionLimit().
			WithDetail("thread_id", s.threadID).
			WithDetail("max_steps", s.graph.maxSteps))
	}

	node := s.current
	fn := s.graph.nodes[node]
	update, err := fn(s.ctx, s.state.clone())
	if err != nil {
		return Snapshot{}, s.fail(&NodeError{Node: node, Step: s.step + 1, Err: err})
	}

	s.state.Messages = append(s.state.Messages, update.Messages...)
	s.step++
	s.ran++

	next, err := s.graph.next(node, s.state)
	if err != nil {
		return Snapshot{}, s.fail(err)
	}
	s.current = next

	logx.WithFields(logx.Fields{
		"graph":     s.graph.name,
		"thread_id": s.threadID,
		"step":      s.step,
	}).Debugf("node %s appended %d message(s), next %s", node, len(update.Messages), next)

	return s.emit(node)
}

// Close releases the thread lock. Further Next calls return io.EOF.
func (s *Stream) Close() {
	if s.err == nil {
		s.fail(io.EOF)
	}
}

func (s *Stream) start() (Snapshot, error) {
	s.started = true

	if s.threadID == "" {
		return Snapshot{}, s.fail(memoryx.ErrMissingThreadID())
	}

	unlock, err := s.graph.locks.Acquire(s.ctx, s.threadID)
	if err != nil {
		return Snapshot{}, s.fail(err)
	}
	s.unlock = unlock

	s.step = -1
	cp, err := s.graph.saver.Get(s.ctx, s.threadID)
	switch {
	case err == nil:
		s.state = State{Messages: slices.Clone(cp.Messages)}
		s.step = cp.Step
	case isNotFound(err):
	default:
		return Snapshot{}, s.fail(err)
	}

	// Every tool call is answered before new input lands, even when the
	// previous run stopped between the request and the tool node.
	for _, tc := range llm.UnansweredToolCalls(s.state.Messages) {
		s.state.Messages = append(s.state.Messages,
			llm.NewToolMessage(tc.ID, tc.Function.Name, InterruptedToolResult))
	}

	s.state.Messages = append(s.state.Messages, s.input.Messages...)
	s.step++
	s.current = s.graph.edges[START].to

	return s.emit(START)
}

func (s *Stream) emit(node string) (Snapshot, error) {
	snap := Snapshot{
		ThreadID: s.threadID,
		Step:     s.step,
		Node:     node,
		Next:     s.current,
		Messages: slices.Clone(s.state.Messages),
	}

	err := s.graph.saver.Put(s.ctx, memoryx.Checkpoint{
		ThreadID:  snap.ThreadID,
		Step:      snap.Step,
		Node:      snap.Node,
		Messages:  snap.Messages,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return Snapshot{}, s.fail(err)
	}
	return snap, nil
}

func (s *Stream) fail(err error) error {
	s.err = err
	if s.unlock != nil {
		s.unlock()
		s.unlock = nil
	}
	return err
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

func isNotFound(err error) bool {
	return errx.Is(err, memoryx.CodeCheckpointNotFound)
}
