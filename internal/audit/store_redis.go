package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"crossgate/pkg/domain"
)

const auditKeyPrefix = "audit:"

func trailKey(transferID domain.TransferID) string {
	return "transfer:" + transferID.String() + ":audit"
}

// RedisStore persists audit entries under audit:<id> and appends each ID to a
// per-transfer list in the same transaction, preserving append order without
// keyspace scans. Entries are write-once; no code path rewrites an audit key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, auditKeyPrefix+entry.ID.String(), payload, 0)
		pipe.RPush(ctx, trailKey(entry.TransferID), entry.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *RedisStore) ListByTransfer(ctx context.Context, transferID domain.TransferID) ([]Entry, error) {
	ids, err := s.client.LRange(ctx, trailKey(transferID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		raw, err := s.client.Get(ctx, auditKeyPrefix+id).Bytes()
		if err != nil {
			return nil, fmt.Errorf("read audit entry %s: %w", id, err)
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode audit entry %s: %w", id, err)
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformedAt.Before(out[j].PerformedAt) })
	return out, nil
}
