package handlers

import (
	"context"
	"net/http"
	"time"

	"menuhub/internal/utils/logger"

	"github.com/labstack/echo/v4"
)

// CleanupEnqueuer queues a guest cleanup run.
type CleanupEnqueuer interface {
	EnqueueGuestCleanup(ctx context.Context, retention time.Duration) (string, error)
}

type MaintenanceHandler struct {
	cleanup CleanupEnqueuer
	log     *logger.Logger
}

func NewMaintenanceHandler(cleanup CleanupEnqueuer) *MaintenanceHandler {
	return &MaintenanceHandler{cleanup: cleanup, log: logger.New("MaintenanceHandler")}
}

type GuestCleanupRequest struct {
	// RetentionHours overrides the configured retention when positive.
	RetentionHours int `json:"retentionHours" validate:"gte=0"`
}

// GuestCleanup queues an immediate stale guest purge.
// @Summary Run guest cleanup
// @Description Development only. Enqueues the guest cleanup task outside its schedule.
// @Tags maintenance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GuestCleanupRequest false "Optional retention override"
// @Success 202 {object} map[string]string
// @Router /maintenance/guest-cleanup [post]
func (h *MaintenanceHandler) GuestCleanup(c echo.Context) error {
	var req GuestCleanupRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}
		if err := c.Validate(req); err != nil {
			return err
		}
	}

	id, err := h.cleanup.EnqueueGuestCleanup(c.Request().Context(), time.Duration(req.RetentionHours)*time.Hour)
	if err != nil {
		return h.log.Error("Failed to enqueue guest cleanup", err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"taskId": id})
}
