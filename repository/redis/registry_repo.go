package redis

import (
	"context"

	redislib "github.com/redis/go-redis/v9"

	"github.com/taskmirror/backend/repository"
)

const registryKey = "reminders:known_ids"

type registryRepository struct {
	client *redislib.Client
}

// NewExternalIDRegistry creates a Redis-backed ExternalIDRegistry. The set
// survives restarts so a cycle that only fetched a subset of collections
// still sees every identifier the engine ever confirmed externally.
func NewExternalIDRegistry(client *redislib.Client) repository.ExternalIDRegistry {
	return &registryRepository{client: client}
}

func (r *registryRepository) Replace(ctx context.Context, ids []string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, registryKey)
	if len(ids) > 0 {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.SAdd(ctx, registryKey, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *registryRepository) Union(ctx context.Context) (map[string]struct{}, error) {
	members, err := r.client.SMembers(ctx, registryKey).Result()
	if err != nil {
		if err == redislib.Nil {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	union := make(map[string]struct{}, len(members))
	for _, id := range members {
		union[id] = struct{}{}
	}
	return union, nil
}
