package redis

import (
	// Go Internal Packages
	"context"
	"testing"
	"time"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"

	// External Packages
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestDeadLetterQueueRecord(t *testing.T) {
	mr, client := newTestClient(t)
	q := NewDeadLetterQueue(client, zap.NewNop())
	ctx := context.Background()

	failedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := models.RunFailure{RunID: "r1", Stage: "scoring", Kind: "scoring_endpoint_unavailable", Message: "timeout", TransNum: "T1", FailedAt: failedAt}
	second := models.RunFailure{RunID: "r2", Stage: "extracting", Kind: "empty_feed", Message: "no rows", FailedAt: failedAt}

	require.NoError(t, q.Record(ctx, first))
	require.NoError(t, q.Record(ctx, second))

	assert.True(t, mr.Exists("run:r1"))
	assert.Greater(t, mr.TTL("run:r1"), time.Duration(0))

	got, err := q.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second, got[0])
	assert.Equal(t, first, got[1])
}

func TestDeadLetterQueueSkipsExpired(t *testing.T) {
	mr, client := newTestClient(t)
	q := NewDeadLetterQueue(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, q.Record(ctx, models.RunFailure{RunID: "gone", Stage: "scoring"}))
	require.NoError(t, q.Record(ctx, models.RunFailure{RunID: "kept", Stage: "persisting"}))
	mr.Del("run:gone")

	got, err := q.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].RunID)
}

func TestRunLock(t *testing.T) {
	mr, client := newTestClient(t)
	lock := NewRunLock(client, "fraud-pipeline:run", time.Minute)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "run-a")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "run-b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.RunInProgress))
	assert.Contains(t, err.Error(), "run-a")

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("fraud-pipeline:run"))

	release, err = lock.Acquire(ctx, "run-b")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRunLockReleaseKeepsForeignHolder(t *testing.T) {
	mr, client := newTestClient(t)
	lock := NewRunLock(client, "fraud-pipeline:run", time.Minute)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "run-a")
	require.NoError(t, err)

	// lock expired and was taken over by another process
	mr.FastForward(2 * time.Minute)
	_, err = lock.Acquire(ctx, "run-b")
	require.NoError(t, err)

	require.NoError(t, release(ctx))
	holder, err := mr.Get("fraud-pipeline:run")
	require.NoError(t, err)
	assert.Equal(t, "run-b", holder)
}
