package memoryxinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/redis/go-redis/v9"
)

const (
	checkpointKeyPrefix = "checkpoint:thread:"
	threadsKey          = "checkpoint:threads"
)

// RedisSaver stores each thread as a redis list of JSON snapshots
type RedisSaver struct {
	client *redis.Client
}

func NewRedisSaver(client *redis.Client) *RedisSaver {
	return &RedisSaver{client: client}
}

var _ memoryx.Saver = (*RedisSaver)(nil)

func threadKey(threadID string) string {
	return checkpointKeyPrefix + threadID
}

type lindexer interface {
	LIndex(ctx context.Context, key string, index int64) *redis.StringCmd
}

func latest(ctx context.Context, c lindexer, threadID string) (*memoryx.Checkpoint, error) {
	raw, err := c.LIndex(ctx, threadKey(threadID), -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to read checkpoint from Redis", errx.TypeInternal)
	}

	var cp memoryx.Checkpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, errx.Wrap(err, "failed to decode checkpoint", errx.TypeInternal)
	}
	return &cp, nil
}

func (s *RedisSaver) Get(ctx context.Context, threadID string) (*memoryx.Checkpoint, error) {
	cp, err := latest(ctx, s.client, threadID)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, memoryx.ErrCheckpointNotFound().WithDetail("thread_id", threadID)
	}
	return cp, nil
}

func (s *RedisSaver) Put(ctx context.Context, cp memoryx.Checkpoint) error {
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return errx.Wrap(err, "failed to encode checkpoint", errx.TypeInternal)
	}

	key := threadKey(cp.ThreadID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		prev, err := latest(ctx, tx, cp.ThreadID)
		if err != nil {
			return err
		}
		if err := memoryx.ValidateNext(prev, cp); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, data)
			pipe.SAdd(ctx, threadsKey, cp.ThreadID)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return memoryx.ErrNonMonotonic().WithDetail("thread_id", cp.ThreadID).WithError(err)
	}
	if _, ok := errx.As(err); ok {
		return err
	}
	if err != nil {
		return errx.Wrap(err, "failed to store checkpoint in Redis", errx.TypeInternal)
	}
	return nil
}

func (s *RedisSaver) History(ctx context.Context, threadID string) ([]memoryx.Checkpoint, error) {
	raws, err := s.client.LRange(ctx, threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, errx.Wrap(err, "failed to read checkpoint history from Redis", errx.TypeInternal)
	}

	history := make([]memoryx.Checkpoint, 0, len(raws))
	for i, raw := range raws {
		var cp memoryx.Checkpoint
		if err := json.Unmarshal([]byte(raw), &cp); err != nil {
			return nil, errx.Wrap(err, fmt.Sprintf("failed to decode checkpoint %d", i), errx.TypeInternal)
		}
		history = append(history, cp)
	}
	return history, nil
}

func (s *RedisSaver) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, threadsKey).Result()
	if err != nil {
		return nil, errx.Wrap(err, "failed to list threads from Redis", errx.TypeInternal)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisSaver) Delete(ctx context.Context, threadID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, threadKey(threadID))
		pipe.SRem(ctx, threadsKey, threadID)
		return nil
	})
	if err != nil {
		return errx.Wrap(err, "failed to delete thread from Redis", errx.TypeInternal)
	}
	return nil
}
