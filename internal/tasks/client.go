package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"menuhub/internal/config"
	"menuhub/internal/utils/logger"

	"github.com/hibiken/asynq"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// TaskClient enqueues background tasks.
type TaskClient struct {
	client enqueuer
	logger *logger.Logger
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(cfg config.RedisConfig) *TaskClient {
	return &TaskClient{
		client: asynq.NewClient(RedisOpt(cfg)),
		logger: logger.New("TASKS"),
	}
}

// NewGuestCleanupTask builds the cleanup task; retention <= 0 lets the worker
// use its configured value.
func NewGuestCleanupTask(retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(GuestCleanupPayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, fmt.Errorf("marshal guest cleanup payload: %w", err)
	}
	return asynq.NewTask(TaskTypeGuestCleanup, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutMedium),
	), nil
}

// EnqueueGuestCleanup schedules an immediate cleanup run.
func (c *TaskClient) EnqueueGuestCleanup(ctx context.Context, retention time.Duration) (string, error) {
	task, err := NewGuestCleanupTask(retention)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", c.logger.Error("Failed to enqueue %s", err, TaskTypeGuestCleanup)
	}
	c.logger.Info("Enqueued %s as %s on %s", TaskTypeGuestCleanup, info.ID, info.Queue)
	return info.ID, nil
}

// Close closes the underlying asynq client
func (c *TaskClient) Close() error {
	return c.client.Close()
}
