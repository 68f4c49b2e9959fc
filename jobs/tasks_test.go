package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUnlocker struct {
	released int64
	err      error
	calls    int
}

func (s *stubUnlocker) ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	s.calls++
	return s.released, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUnlockExpiredHandler(t *testing.T) {
	unlocker := &stubUnlocker{released: 3}
	handler := NewUnlockExpiredHandler(unlocker, discardLogger())

	err := handler(context.Background(), NewUnlockExpiredTask())
	require.NoError(t, err)
	assert.Equal(t, 1, unlocker.calls)
}

func TestUnlockExpiredHandlerPropagatesError(t *testing.T) {
	unlocker := &stubUnlocker{err: errors.New("pool closed")}
	handler := NewUnlockExpiredHandler(unlocker, discardLogger())

	err := handler(context.Background(), NewUnlockExpiredTask())
	assert.Error(t, err)
}

func TestLockoutNotifyRoundTrip(t *testing.T) {
	task, err := NewLockoutNotifyTask(LockoutNotifyPayload{
		UserID:   7,
		Username: "teller1",
		LockedAt: "2026-08-30T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskLockoutNotify, task.Type())

	handler := NewLockoutNotifyHandler(discardLogger())
	assert.NoError(t, handler(context.Background(), task))
}

func TestLockoutNotifySkipsRetryOnBadPayload(t *testing.T) {
	handler := NewLockoutNotifyHandler(discardLogger())

	err := handler(context.Background(), asynq.NewTask(TaskLockoutNotify, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
