package memoryx

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
)

// InMemorySaver keeps checkpoints for the lifetime of the process
type InMemorySaver struct {
	mu      sync.RWMutex
	threads map[string][]Checkpoint
}

func NewInMemorySaver() *InMemorySaver {
	return &InMemorySaver{
		threads: make(map[string][]Checkpoint),
	}
}

func (s *InMemorySaver) Get(_ context.Context, threadID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.threads[threadID]
	if len(history) == 0 {
		return nil, ErrCheckpointNotFound().WithDetail("thread_id", threadID)
	}

	cp := clone(history[len(history)-1])
	return &cp, nil
}

func (s *InMemorySaver) Put(_ context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Checkpoint
	if history := s.threads[cp.ThreadID]; len(history) > 0 {
		latest = &history[len(history)-1]
	}
	if err := ValidateNext(latest, cp); err != nil {
		return err
	}

	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.threads[cp.ThreadID] = append(s.threads[cp.ThreadID], clone(cp))
	return nil
}

func (s *InMemorySaver) History(_ context.Context, threadID string) ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.threads[threadID]
	out := make([]Checkpoint, len(history))
	for i, cp := range history {
		out[i] = clone(cp)
	}
	return out, nil
}

func (s *InMemorySaver) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InMemorySaver) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, threadID)
	return nil
}

// clone copies the message slice so callers cannot mutate stored history
func clone(cp Checkpoint) Checkpoint {
	cp.Messages = slices.Clone(cp.Messages)
	if cp.Messages == nil {
		cp.Messages = []llm.Message{}
	}
	return cp
}
