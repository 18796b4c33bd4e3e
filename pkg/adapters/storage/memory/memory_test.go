package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aescanero/warden/pkg/domain"
)

func TestPutGet(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	record := domain.NewWorkerRecord("w1", "worker-1", "10.0.0.1", 8001, time.Unix(1000, 0))
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, record, got)
}

func TestGetUnknownWorker(t *testing.T) {
	store := NewStatusStore()

	_, err := store.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrUnknownWorker)
}

func TestPutReplaces(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	first := domain.NewWorkerRecord("w1", "worker-1", "10.0.0.1", 8001, time.Unix(1000, 0))
	require.NoError(t, store.Put(ctx, first))

	second := domain.NewWorkerRecord("w1", "worker-1-v2", "10.0.0.2", 8002, time.Unix(2000, 0))
	require.NoError(t, store.Put(ctx, second))

	got, err := store.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "worker-1-v2", got.Name)
}

func TestStoredRecordsAreIsolated(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	record := domain.NewWorkerRecord("w1", "worker-1", "10.0.0.1", 8001, time.Unix(1000, 0))
	require.NoError(t, store.Put(ctx, record))

	// Mutating the original after Put must not affect the stored copy
	require.NoError(t, record.TransitionTo(domain.StatusConnected, time.Unix(1001, 0)))

	got, err := store.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRegistered, got.Status)

	// Mutating a Get result must not affect the stored copy either
	require.NoError(t, got.TransitionTo(domain.StatusConnected, time.Unix(1002, 0)))

	again, err := store.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRegistered, again.Status)
}

func TestListAndDelete(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	for _, workerID := range []string{"w1", "w2", "w3"} {
		record := domain.NewWorkerRecord(workerID, workerID, "10.0.0.1", 8001, time.Unix(1000, 0))
		require.NoError(t, store.Put(ctx, record))
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NoError(t, store.Delete(ctx, "w2"))
	require.NoError(t, store.Delete(ctx, "w2")) // idempotent

	records, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, err = store.Get(ctx, "w2")
	require.ErrorIs(t, err, domain.ErrUnknownWorker)
}
