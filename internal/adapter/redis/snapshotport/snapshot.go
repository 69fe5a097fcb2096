package snapshotport

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/primary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/core/ports/secondary"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/domain"
)

const (
	workerKeyPrefix = "jobinitiator:worker:"
	workerIndexKey  = "jobinitiator:workers"

	// DefaultExpiration lets a dead master's table age out.
	DefaultExpiration = time.Minute
)

var _ secondary.SnapshotRepository = &SnapshotRepository{}

// SnapshotRepository mirrors the worker table to Redis, one key per worker
// plus an index set of ids.
type SnapshotRepository struct {
	redisClient *redis.Client
	expiration  time.Duration
	logger      primary.Logger
}

// NewSnapshotRepository creates a new Redis snapshot repository
func NewSnapshotRepository(redisClient *redis.Client, expiration time.Duration, logger primary.Logger) *SnapshotRepository {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &SnapshotRepository{
		redisClient: redisClient,
		expiration:  expiration,
		logger:      logger,
	}
}

func workerKey(id string) string {
	return workerKeyPrefix + id
}

// SaveSnapshot replaces the mirrored table with workers
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, workers []domain.WorkerSnapshot) error {
	previous, err := r.redisClient.SMembers(ctx, workerIndexKey).Result()
	if err != nil && err != redis.Nil {
		r.logger.Error("Failed to read worker index", "error", err)
		return fmt.Errorf("failed to read worker index: %w", err)
	}

	live := make(map[string]struct{}, len(workers))
	pipe := r.redisClient.TxPipeline()
	for _, w := range workers {
		id := strconv.Itoa(w.WorkerID)
		live[id] = struct{}{}

		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("failed to marshal worker snapshot: %w", err)
		}
		pipe.Set(ctx, workerKey(id), data, r.expiration)
		pipe.SAdd(ctx, workerIndexKey, id)
	}

	// Drop workers that exited since the last snapshot
	for _, id := range previous {
		if _, ok := live[id]; ok {
			continue
		}
		pipe.Del(ctx, workerKey(id))
		pipe.SRem(ctx, workerIndexKey, id)
	}
	pipe.Expire(ctx, workerIndexKey, r.expiration)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save worker snapshot", "error", err)
		return fmt.Errorf("failed to save worker snapshot: %w", err)
	}
	return nil
}

// GetAllWorkers reads the mirrored table ordered by slot
func (r *SnapshotRepository) GetAllWorkers(ctx context.Context) ([]domain.WorkerSnapshot, error) {
	ids, err := r.redisClient.SMembers(ctx, workerIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read worker index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = workerKey(id)
	}

	// Use MGET to retrieve all worker data at once
	values, err := r.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve worker data: %w", err)
	}

	workers := make([]domain.WorkerSnapshot, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var w domain.WorkerSnapshot
		if err := json.Unmarshal([]byte(data), &w); err != nil {
			return nil, fmt.Errorf("failed to unmarshal worker data: %w", err)
		}
		workers = append(workers, w)
	}

	sort.Slice(workers, func(i, j int) bool { return workers[i].SlotIndex < workers[j].SlotIndex })
	return workers, nil
}
