package evidence

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

const evidenceKeyPrefix = "evidence:"

func indexKey(transferID domain.TransferID) string {
	return "transfer:" + transferID.String() + ":evidence"
}

// RedisStore persists evidence as JSON values under evidence:<id> and
// maintains the transfer → evidence index set in the same transaction as
// every write. Versioned writes run under WATCH like the transfer store.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, e *Evidence) error {
	key := evidenceKeyPrefix + e.ID.String()

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if e.Version != 0 {
				return sentinel.ErrNotFound
			}
		case err != nil:
			return fmt.Errorf("read evidence: %w", err)
		default:
			if e.Version == 0 {
				return sentinel.ErrConflict
			}
			var stored Evidence
			if err := json.Unmarshal(raw, &stored); err != nil {
				return fmt.Errorf("decode evidence: %w", err)
			}
			if stored.Version != e.Version {
				return sentinel.ErrConflict
			}
		}

		copied, err := e.Clone()
		if err != nil {
			return err
		}
		copied.Version = e.Version + 1
		payload, err := json.Marshal(copied)
		if err != nil {
			return fmt.Errorf("encode evidence: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.SAdd(ctx, indexKey(e.TransferID), e.ID.String())
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
	e.Version++
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id domain.EvidenceID) (*Evidence, error) {
	raw, err := s.client.Get(ctx, evidenceKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read evidence: %w", err)
	}
	var e Evidence
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}
	return &e, nil
}

func (s *RedisStore) ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]*Evidence, error) {
	ids, err := s.client.SMembers(ctx, indexKey(transferID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	out := make([]*Evidence, 0, len(ids))
	for _, rawID := range ids {
		id, err := domain.ParseEvidenceID(rawID)
		if err != nil {
			continue
		}
		e, err := s.Find(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}
