package routes

import (
	"menuhub/internal/api/middleware"
	"menuhub/internal/handlers"
	"menuhub/internal/models"

	"github.com/labstack/echo/v4"
)

// SetupMaintenanceRoutes registers operator endpoints. Callers only mount
// them outside production.
func SetupMaintenanceRoutes(api *echo.Group, maintenanceHandler *handlers.MaintenanceHandler, authMiddleware *middleware.AuthMiddleware) {
	maintenance := api.Group("/maintenance", authMiddleware.Authenticate(), middleware.RequireRole(models.RoleDev, models.RoleAdmin))

	maintenance.POST("/guest-cleanup", maintenanceHandler.GuestCleanup)
}
