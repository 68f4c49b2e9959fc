package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskUnlockExpired releases accounts whose auto-lock window has passed.
	TaskUnlockExpired = "account:unlock-expired"
	// TaskLockoutNotify notifies administrators about an auto-locked account.
	TaskLockoutNotify = "security:lockout-notify"
)

// AccountUnlocker releases expired automatic locks. Satisfied by the auth
// repository.
type AccountUnlocker interface {
	ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// NewUnlockExpiredTask constructs the periodic unlock task. It carries no
// payload.
func NewUnlockExpiredTask() *asynq.Task {
	return asynq.NewTask(TaskUnlockExpired, nil)
}

// NewUnlockExpiredHandler returns the handler for TaskUnlockExpired.
func NewUnlockExpiredHandler(unlocker AccountUnlocker, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		released, err := unlocker.ReleaseExpiredLocks(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		if released > 0 {
			logger.Info("released expired account locks", slog.Int64("count", released))
		}
		return nil
	}
}

// LockoutNotifyPayload describes the account that tripped the lockout
// threshold.
type LockoutNotifyPayload struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	LockedAt string `json:"locked_at"`
}

// NewLockoutNotifyTask constructs a lockout notification task.
func NewLockoutNotifyTask(payload LockoutNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLockoutNotify, data), nil
}

// NewLockoutNotifyHandler returns the handler for TaskLockoutNotify. The
// notification sink is the structured log for now; an SMTP integration can
// hang off the same task later.
func NewLockoutNotifyHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LockoutNotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Warn("account auto-locked",
			slog.Int64("user_id", payload.UserID),
			slog.String("username", payload.Username),
			slog.String("locked_at", payload.LockedAt))
		return nil
	}
}
