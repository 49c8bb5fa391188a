package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"time"

	// Local Packages
	models "fraud-pipeline/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	failedRunsList   = "failed-runs"
	failedRunsMaxLen = 1000
	failedRunTTL     = 7 * 24 * time.Hour
)

// DeadLetterQueue keeps failed runs where operators can inspect them. Each
// failure is stored under "run:{run_id}" and its id pushed to a capped list.
type DeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger) *DeadLetterQueue {
	return &DeadLetterQueue{client: client, logger: logger, listName: failedRunsList}
}

func failureKey(runID string) string {
	return fmt.Sprintf("run:%s", runID)
}

// Record stores one failed run.
func (q *DeadLetterQueue) Record(ctx context.Context, failure models.RunFailure) error {
	data, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("marshal run failure: %w", err)
	}

	key := failureKey(failure.RunID)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, failedRunTTL)
		pipe.LPush(ctx, q.listName, failure.RunID)
		pipe.LTrim(ctx, q.listName, 0, failedRunsMaxLen-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store run failure %s: %w", key, err)
	}

	q.logger.Info("recorded failed run",
		zap.String("run_id", failure.RunID),
		zap.String("stage", failure.Stage),
		zap.String("kind", failure.Kind),
	)
	return nil
}

// Recent returns up to n most recent failures, newest first. Entries whose
// record already expired are skipped.
func (q *DeadLetterQueue) Recent(ctx context.Context, n int64) ([]models.RunFailure, error) {
	ids, err := q.client.LRange(ctx, q.listName, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list failed runs: %w", err)
	}

	failures := make([]models.RunFailure, 0, len(ids))
	for _, id := range ids {
		data, err := q.client.Get(ctx, failureKey(id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get failed run %s: %w", id, err)
		}
		var f models.RunFailure
		if err := json.Unmarshal(data, &f); err != nil {
			q.logger.Error("failed to unmarshal run failure", zap.String("run_id", id), zap.Error(err))
			continue
		}
		failures = append(failures, f)
	}
	return failures, nil
}
