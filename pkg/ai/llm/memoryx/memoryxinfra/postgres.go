package memoryxinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/jmoiron/sqlx"
)

const checkpointsSchema = `
        CREATE TABLE IF NOT EXISTS checkpoints (
            thread_id  TEXT        NOT NULL,
            step       INTEGER     NOT NULL,
            node       TEXT        NOT NULL,
            messages   JSONB       NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (thread_id, step)
        )
    `

// PostgresSaver stores one row per checkpoint
type PostgresSaver struct {
	db *sqlx.DB
}

func NewPostgresSaver(db *sqlx.DB) *PostgresSaver {
	return &PostgresSaver{db: db}
}

var _ memoryx.Saver = (*PostgresSaver)(nil)

type checkpointRow struct {
	ThreadID  string    `db:"thread_id"`
	Step      int       `db:"step"`
	Node      string    `db:"node"`
	Messages  []byte    `db:"messages"`
	CreatedAt time.Time `db:"created_at"`
}

func (r checkpointRow) toCheckpoint() (memoryx.Checkpoint, error) {
	cp := memoryx.Checkpoint{
		ThreadID:  r.ThreadID,
		Step:      r.Step,
		Node:      r.Node,
		CreatedAt: r.CreatedAt,
	}
	if err := json.Unmarshal(r.Messages, &cp.Messages); err != nil {
		return cp, errx.Wrap(err, "failed to decode checkpoint messages", errx.TypeInternal)
	}
	return cp, nil
}

// EnsureSchema creates the checkpoints table when missing
func (s *PostgresSaver) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, checkpointsSchema); err != nil {
		return errx.Wrap(err, "failed to create checkpoints table", errx.TypeInternal)
	}
	return nil
}

func (s *PostgresSaver) Get(ctx context.Context, threadID string) (*memoryx.Checkpoint, error) {
	query := `
        SELECT thread_id, step, node, messages, created_at
        FROM checkpoints
        WHERE thread_id = $1
        ORDER BY step DESC
        LIMIT 1
    `

	var row checkpointRow
	err := s.db.GetContext(ctx, &row, query, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memoryx.ErrCheckpointNotFound().WithDetail("thread_id", threadID)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to get checkpoint", errx.TypeInternal)
	}

	cp, err := row.toCheckpoint()
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *PostgresSaver) Put(ctx context.Context, cp memoryx.Checkpoint) error {
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	messages, err := json.Marshal(cp.Messages)
	if err != nil {
		return errx.Wrap(err, "failed to encode checkpoint messages", errx.TypeInternal)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer tx.Rollback()

	latestQuery := `
        SELECT thread_id, step, node, messages, created_at
        FROM checkpoints
        WHERE thread_id = $1
        ORDER BY step DESC
        LIMIT 1
        FOR UPDATE
    `

	var prev *memoryx.Checkpoint
	var row checkpointRow
	err = tx.GetContext(ctx, &row, latestQuery, cp.ThreadID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return errx.Wrap(err, "failed to read latest checkpoint", errx.TypeInternal)
	default:
		stored, err := row.toCheckpoint()
		if err != nil {
			return err
		}
		prev = &stored
	}

	if err := memoryx.ValidateNext(prev, cp); err != nil {
		return err
	}

	insert := `
        INSERT INTO checkpoints (thread_id, step, node, messages, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	if _, err := tx.ExecContext(ctx, insert, cp.ThreadID, cp.Step, cp.Node, messages, cp.CreatedAt); err != nil {
		return errx.Wrap(err, "failed to insert checkpoint", errx.TypeInternal)
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit checkpoint", errx.TypeInternal)
	}
	return nil
}

func (s *PostgresSaver) History(ctx context.Context, threadID string) ([]memoryx.Checkpoint, error) {
	query := `
        SELECT thread_id, step, node, messages, created_at
        FROM checkpoints
        WHERE thread_id = $1
        ORDER BY step ASC
    `

	var rows []checkpointRow
	if err := s.db.SelectContext(ctx, &rows, query, threadID); err != nil {
		return nil, errx.Wrap(err, "failed to list checkpoints", errx.TypeInternal)
	}

	history := make([]memoryx.Checkpoint, 0, len(rows))
	for _, row := range rows {
		cp, err := row.toCheckpoint()
		if err != nil {
			return nil, err
		}
		history = append(history, cp)
	}
	return history, nil
}

func (s *PostgresSaver) List(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT thread_id FROM checkpoints ORDER BY thread_id`

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, errx.Wrap(err, "failed to list threads", errx.TypeInternal)
	}
	return ids, nil
}

func (s *PostgresSaver) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE thread_id = $1`, threadID); err != nil {
		return errx.Wrap(err, "failed to delete thread", errx.TypeInternal)
	}
	return nil
}
