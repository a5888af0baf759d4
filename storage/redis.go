package storage

import (
	"context"
	stderrors "errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/hostelhub/go-hostel"
	"github.com/redis/go-redis/v9"
)

// Redis is the durable auth artifact scope: keys survive process restarts so
// a session can be restored after a redeploy. All keys live under a
// namespace so SCAN stays cheap and unrelated Redis usage is never touched.
type Redis struct {
	client    redis.UniversalClient
	namespace string
}

var _ hostel.ArtifactStore = (*Redis)(nil)

// NewRedis wraps an existing Redis client. The namespace defaults to
// "hostel:artifacts" when empty.
func NewRedis(client redis.UniversalClient, namespace string) *Redis {
	if namespace == "" {
		namespace = "hostel:artifacts"
	}

	return &Redis{
		client:    client,
		namespace: namespace,
	}
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	iter := r.client.Scan(ctx, 0, r.namespace+":*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, r.strip(iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "redis: scanning keys")
	}

	return keys, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.qualify(key), value, 0).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "redis: setting key").
			WithMetadata(map[string]any{"key": key})
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.qualify(key)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", goerrors.New("key not found", goerrors.CategoryNotFound).
				WithMetadata(map[string]any{"key": key})
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "redis: getting key").
			WithMetadata(map[string]any{"key": key})
	}

	return value, nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.qualify(key)).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "redis: removing key").
			WithMetadata(map[string]any{"key": key})
	}
	return nil
}

func (r *Redis) qualify(key string) string {
	return r.namespace + ":" + key
}

func (r *Redis) strip(qualified string) string {
	prefix := r.namespace + ":"
	if len(qualified) > len(prefix) && qualified[:len(prefix)] == prefix {
		return qualified[len(prefix):]
	}
	return qualified
}
