package database

import (
	"context"
	"testing"
	"time"

	"gasthof/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncQueueCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:  "upsert",
		BookingID: "booking-1",
		Payload:   `{"test": true}`,
		Status:    "pending",
	}

	// Create
	err := db.CreateSyncTask(ctx, task)
	require.NoError(t, err)
	assert.NotZero(t, task.ID)

	// Get Pending
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "booking-1", tasks[0].BookingID)

	// Update Status
	err = db.UpdateSyncTaskStatus(ctx, tasks[0].ID, "completed", "", nil)
	require.NoError(t, err)

	tasks, _ = db.GetPendingSyncTasks(ctx, 10)
	assert.Len(t, tasks, 0)

	// Failed tasks
	err = db.CreateSyncTask(ctx, &models.SyncTask{TaskType: "upsert", BookingID: "booking-2", Status: "failed", LastError: "some error"})
	require.NoError(t, err)
	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "some error", failed[0].LastError)
}

func TestSyncQueueRetryScheduling(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.SyncTask{TaskType: "update_status", BookingID: "booking-3", Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))

	nextRetry := time.Now().Add(time.Hour)
	err := db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "temporary error", &nextRetry)
	require.NoError(t, err)

	// Задача с будущим next_retry_at не должна попадать в выборку
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, tasks, 0)

	pastRetry := time.Now().Add(-time.Hour)
	err = db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "temporary error", &pastRetry)
	require.NoError(t, err)

	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].RetryCount)
	assert.Equal(t, "temporary error", tasks[0].LastError)
}
