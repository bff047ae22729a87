package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
	"github.com/KirkDiggler/loadout-api/internal/errors"
	redisclient "github.com/KirkDiggler/loadout-api/internal/redis"
)

const (
	snapshotKeyPrefix = "catalog:snapshot:"

	errNameEmpty = "snapshot name cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis catalog repository.
type RedisConfig struct {
	Client redisclient.Client
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed catalog repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &redisRepository{
		client: cfg.Client,
	}, nil
}

// catalogData is the storage structure for a snapshot.
// This is what gets serialized to Redis.
type catalogData struct {
	Name  string         `json:"name"`
	Items []gear.Item    `json:"items"`
	Sets  []gear.SetInfo `json:"sets,omitempty"`
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNameEmpty)
	}

	key := snapshotKeyPrefix + input.Name
	result, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("catalog snapshot %s not found", input.Name)
		}
		return nil, errors.Wrapf(err, "failed to get catalog snapshot %s", input.Name)
	}

	var data catalogData
	if err := json.Unmarshal([]byte(result), &data); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal catalog snapshot %s", input.Name)
	}

	snap, err := catalog.New(&catalog.Config{Items: data.Items, Sets: data.Sets})
	if err != nil {
		return nil, errors.Wrapf(err, "stored catalog snapshot %s is invalid", input.Name)
	}

	return &GetOutput{
		Name:     input.Name,
		Snapshot: snap,
	}, nil
}

func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNameEmpty)
	}
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument("snapshot cannot be nil")
	}

	data := catalogData{
		Name:  input.Name,
		Items: input.Snapshot.Items(),
		Sets:  input.Snapshot.Sets(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal catalog snapshot %s", input.Name)
	}

	key := snapshotKeyPrefix + input.Name
	if err := r.client.Set(ctx, key, jsonData, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to store catalog snapshot %s", input.Name)
	}

	return &PutOutput{Name: input.Name}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNameEmpty)
	}

	key := snapshotKeyPrefix + input.Name

	// Check existence first to return a proper error
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check catalog snapshot existence")
	}

	if exists == 0 {
		return nil, errors.NotFoundf("catalog snapshot %s not found", input.Name)
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to delete catalog snapshot %s", input.Name)
	}

	return &DeleteOutput{}, nil
}

// GetKey returns the Redis key for a named snapshot.
// Exposed for testing purposes.
func GetKey(name string) string {
	return fmt.Sprintf("%s%s", snapshotKeyPrefix, name)
}
