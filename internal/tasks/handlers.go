package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"menuhub/internal/events"
	"menuhub/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// GuestPurger deletes guests that were created before a cutoff and never
// logged in.
type GuestPurger interface {
	DeleteStaleGuests(ctx context.Context, before time.Time) (int64, error)
}

// TaskHandler processes background tasks.
type TaskHandler struct {
	purger    GuestPurger
	retention time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(purger GuestPurger, retention time.Duration) *TaskHandler {
	return &TaskHandler{
		purger:    purger,
		retention: retention,
		now:       time.Now,
		logger:    logger.New("task_handler"),
	}
}

// HandleGuestCleanup removes guest identities older than the retention.
func (h *TaskHandler) HandleGuestCleanup(ctx context.Context, t *asynq.Task) error {
	var payload GuestCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", TaskTypeGuestCleanup, err, asynq.SkipRetry)
		}
	}

	retention := h.retention
	if payload.RetentionSeconds > 0 {
		retention = time.Duration(payload.RetentionSeconds) * time.Second
	}
	if retention <= 0 {
		return fmt.Errorf("guest retention must be positive: %w", asynq.SkipRetry)
	}

	cutoff := h.now().Add(-retention)
	deleted, err := h.purger.DeleteStaleGuests(ctx, cutoff)
	if err != nil {
		return h.logger.Error("Guest cleanup failed", err)
	}

	h.logger.Success("Guest cleanup removed %d identities created before %s", deleted, cutoff.Format(time.RFC3339))
	events.Emit(events.GuestsPurged, deleted)
	return nil
}
