package tasks

import (
	"time"

	"menuhub/internal/config"

	"github.com/hibiken/asynq"
)

// Task Types
const (
	// TaskTypeGuestCleanup hard-deletes stale guest identities.
	TaskTypeGuestCleanup = "identity:guest_cleanup"
)

// Task Queues
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low" // For background tasks like cleanup
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
)

// Task Retry Settings
const (
	RetryDefault = 3
	RetryMin     = 1
)

// GuestCleanupPayload optionally overrides the configured retention.
type GuestCleanupPayload struct {
	RetentionSeconds int64 `json:"retentionSeconds,omitempty"`
}

// RedisOpt converts the Redis settings for asynq.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
