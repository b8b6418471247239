package memoryxinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
        CREATE TABLE IF NOT EXISTS checkpoints (
            thread_id  TEXT     NOT NULL,
            step       INTEGER  NOT NULL,
            node       TEXT     NOT NULL,
            messages   TEXT     NOT NULL,
            created_at DATETIME NOT NULL,
            PRIMARY KEY (thread_id, step)
        )
    `

// SQLiteSaver keeps checkpoints in a single SQLite file. Writes go through
// one connection so the read-validate-insert in Put cannot interleave.
type SQLiteSaver struct {
	db *sqlx.DB
}

// NewSQLiteSaver opens dsn and creates the checkpoints table
func NewSQLiteSaver(dsn string) (*SQLiteSaver, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoints table: %w", err)
	}

	return &SQLiteSaver{db: db}, nil
}

var _ memoryx.Saver = (*SQLiteSaver)(nil)

func (s *SQLiteSaver) Close() error {
	return s.db.Close()
}

func (s *SQLiteSaver) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const sqliteLatest = `
        SELECT thread_id, step, node, messages, created_at
        FROM checkpoints
        WHERE thread_id = ?
        ORDER BY step DESC
        LIMIT 1
    `

func (s *SQLiteSaver) Get(ctx context.Context, threadID string) (*memoryx.Checkpoint, error) {
	var row checkpointRow
	err := s.db.GetContext(ctx, &row, sqliteLatest, threadID)
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

func (s *SQLiteSaver) Put(ctx context.Context, cp memoryx.Checkpoint) error {
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

	var prev *memoryx.Checkpoint
	var row checkpointRow
	err = tx.GetContext(ctx, &row, sqliteLatest, cp.ThreadID)
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

	insert := `INSERT INTO checkpoints (thread_id, step, node, messages, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, cp.ThreadID, cp.Step, cp.Node, string(messages), cp.CreatedAt.UTC()); err != nil {
		return errx.Wrap(err, "failed to insert checkpoint", errx.TypeInternal)
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit checkpoint", errx.TypeInternal)
	}
	return nil
}

func (s *SQLiteSaver) History(ctx context.Context, threadID string) ([]memoryx.Checkpoint, error) {
	query := `
        SELECT thread_id, step, node, messages, created_at
        FROM checkpoints
        WHERE thread_id = ?
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

func (s *SQLiteSaver) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT thread_id FROM checkpoints ORDER BY thread_id`); err != nil {
		return nil, errx.Wrap(err, "failed to list threads", errx.TypeInternal)
	}
	return ids, nil
}

func (s *SQLiteSaver) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE thread_id = ?`, threadID); err != nil {
		return errx.Wrap(err, "failed to delete thread", errx.TypeInternal)
	}
	return nil
}
