package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"crossgate/pkg/domain"
	"crossgate/pkg/platform/sentinel"
)

const (
	transferKeyPrefix = "transfer:"
	transferSetKey    = "transfers"
)

// RedisStore persists transfers as JSON values under transfer:<id>. Writes
// run under WATCH so a concurrent writer aborts the transaction and the
// stale caller receives ErrConflict instead of silently overwriting.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, t *Transfer) error {
	key := transferKeyPrefix + t.ID.String()

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if t.Version != 0 {
				return sentinel.ErrNotFound
			}
		case err != nil:
			return fmt.Errorf("read transfer: %w", err)
		default:
			if t.Version == 0 {
				return sentinel.ErrConflict
			}
			var stored Transfer
			if err := json.Unmarshal(raw, &stored); err != nil {
				return fmt.Errorf("decode transfer: %w", err)
			}
			if stored.Version != t.Version {
				return sentinel.ErrConflict
			}
		}

		next := t.Version + 1
		copied, err := t.Clone()
		if err != nil {
			return err
		}
		copied.Version = next
		payload, err := json.Marshal(copied)
		if err != nil {
			return fmt.Errorf("encode transfer: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, transferSetKey, t.ID.String())
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return err
	}
	t.Version++
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id domain.TransferID) (*Transfer, error) {
	raw, err := s.client.Get(ctx, transferKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read transfer: %w", err)
	}
	var t Transfer
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	return &t, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Transfer, error) {
	ids, err := s.client.SMembers(ctx, transferSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	out := make([]*Transfer, 0, len(ids))
	for _, rawID := range ids {
		id, err := domain.ParseTransferID(rawID)
		if err != nil {
			continue // skip foreign keys in the index set
		}
		t, err := s.Find(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
