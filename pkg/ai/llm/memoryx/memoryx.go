package memoryx

import (
	"context"
	"net/http"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
)

// Checkpoint is a snapshot of one thread's message list after a graph step
type Checkpoint struct {
	ThreadID  string        `json:"thread_id" db:"thread_id"`
	Step      int           `json:"step" db:"step"`
	Node      string        `json:"node" db:"node"`
	Messages  []llm.Message `json:"messages" db:"-"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// Saver persists checkpoints keyed by thread id. Implementations keep every
// snapshot; nothing is evicted.
type Saver interface {
	// Get returns the latest checkpoint of a thread or ErrCheckpointNotFound
	Get(ctx context.Context, threadID string) (*Checkpoint, error)

	// Put appends a snapshot. The thread's message list may only grow.
	Put(ctx context.Context, cp Checkpoint) error

	// History returns every snapshot of a thread, oldest first
	History(ctx context.Context, threadID string) ([]Checkpoint, error)

	// List returns the ids of all threads with at least one checkpoint
	List(ctx context.Context) ([]string, error)

	// Delete drops a thread and its snapshots. Missing threads are not an error.
	Delete(ctx context.Context, threadID string) error
}

// ValidateNext checks that next may follow latest on the same thread.
// latest may be nil for a thread's first checkpoint.
func ValidateNext(latest *Checkpoint, next Checkpoint) error {
	if next.ThreadID == "" {
		return ErrMissingThreadID()
	}
	if latest == nil {
		return nil
	}
	if next.Step <= latest.Step {
		return ErrNonMonotonic().
			WithDetail("thread_id", next.ThreadID).
			WithDetail("latest_step", latest.Step).
			WithDetail("step", next.Step)
	}
	if len(next.Messages) < len(latest.Messages) {
		return ErrNonMonotonic().
			WithDetail("thread_id", next.ThreadID).
			WithDetail("latest_messages", len(latest.Messages)).
			WithDetail("messages", len(next.Messages))
	}
	return nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("CHECKPOINT")

var (
	CodeCheckpointNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "No checkpoint for thread")
	CodeNonMonotonic       = ErrRegistry.Register("NON_MONOTONIC", errx.TypeConflict, http.StatusConflict, "Checkpoint would rewrite thread history")
	CodeMissingThreadID    = ErrRegistry.Register("MISSING_THREAD_ID", errx.TypeValidation, http.StatusBadRequest, "Thread id is required")
)

func ErrCheckpointNotFound() *errx.Error {
	return ErrRegistry.New(CodeCheckpointNotFound)
}

func ErrNonMonotonic() *errx.Error {
	return ErrRegistry.New(CodeNonMonotonic)
}

func ErrMissingThreadID() *errx.Error {
	return ErrRegistry.New(CodeMissingThreadID)
}
