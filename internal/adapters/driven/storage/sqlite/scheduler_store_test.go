package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

func TestSchedulerStore_TaskRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ss := store.SchedulerStore()
	ctx := context.Background()

	task := &domain.ScheduledTask{
		ID:       domain.TaskIDRetryFailed,
		Name:     "Retry failed documents",
		Interval: 15 * time.Minute,
		NextRun:  time.Now().UTC().Truncate(time.Second),
		Enabled:  true,
	}
	require.NoError(t, ss.SaveTask(ctx, task))

	got, err := ss.GetTask(ctx, domain.TaskIDRetryFailed)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, 15*time.Minute, got.Interval)
	assert.True(t, got.Enabled)
	assert.True(t, got.LastRun.IsZero())

	// Update after a run.
	task.LastRun = time.Now().UTC().Truncate(time.Second)
	task.LastSuccess = task.LastRun
	require.NoError(t, ss.SaveTask(ctx, task))

	got, err = ss.GetTask(ctx, domain.TaskIDRetryFailed)
	require.NoError(t, err)
	assert.False(t, got.LastRun.IsZero())
}

func TestSchedulerStore_GetTask_Missing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.SchedulerStore().GetTask(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveTask_Nil(t *testing.T) {
	store := newTestStore(t)
	err := store.SchedulerStore().SaveTask(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSchedulerStore_Results(t *testing.T) {
	store := newTestStore(t)
	ss := store.SchedulerStore()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		errMsg := ""
		if i == 1 {
			errMsg = "two documents failed"
		}
		require.NoError(t, ss.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDRetryFailed,
			StartedAt:      base.Add(time.Duration(i) * time.Minute),
			EndedAt:        base.Add(time.Duration(i)*time.Minute + time.Second),
			Success:        i != 1,
			Error:          errMsg,
			ItemsProcessed: i,
		}))
	}

	results, err := ss.ListResults(ctx, domain.TaskIDRetryFailed, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Most recent first.
	assert.Equal(t, 2, results[0].ItemsProcessed)
	assert.Equal(t, 1, results[1].ItemsProcessed)
	assert.False(t, results[1].Success)
	assert.Equal(t, "two documents failed", results[1].Error)
}
