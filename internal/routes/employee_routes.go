package routes

import (
	"menuhub/internal/api/middleware"
	"menuhub/internal/handlers"
	"menuhub/internal/models"

	"github.com/labstack/echo/v4"
)

// SetupEmployeeRoutes registers employee management. Only admins reach these
// handlers; branch ownership is checked by the service.
func SetupEmployeeRoutes(api *echo.Group, employeeHandler *handlers.EmployeeHandler, authMiddleware *middleware.AuthMiddleware) {
	employees := api.Group("/employees", authMiddleware.Authenticate(), middleware.RequireRole(models.RoleAdmin))

	employees.POST("", employeeHandler.Create)
	employees.POST("/promote", employeeHandler.Promote)
	employees.PUT("/:id/permissions", employeeHandler.UpdatePermissions)
	employees.POST("/:id/suspend", employeeHandler.Suspend)
	employees.POST("/:id/reactivate", employeeHandler.Reactivate)
}
