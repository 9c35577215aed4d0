package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"kvrdesk/models"

	"github.com/hibiken/asynq"
)

const TypeSweepExpiredHolds = "holds:sweep"

// NewSweepTask builds the periodic expired-hold sweep.
func NewSweepTask(reason string) (*asynq.Task, error) {
	b, err := json.Marshal(models.SweepPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSweepExpiredHolds, b), nil
}

// ExpiryTaskID names the one-off sweep for a hold. The token itself is a
// capability and must not end up in Redis keys or logs.
func ExpiryTaskID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "expiry:" + hex.EncodeToString(sum[:])[:16]
}

// NewHoldExpiryTask schedules a one-off sweep just after a hold lapses.
func NewHoldExpiryTask(token string, expiresAt time.Time) (*asynq.Task, []asynq.Option, error) {
	task, err := NewSweepTask("hold expiry")
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.ProcessAt(expiresAt.Add(time.Second)),
		asynq.TaskID(ExpiryTaskID(token)),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}
