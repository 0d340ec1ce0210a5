package routes

import (
	"menuhub/internal/api/middleware"
	"menuhub/internal/handlers"

	"github.com/labstack/echo/v4"
)

func SetupAuthRoutes(api *echo.Group, authHandler *handlers.AuthHandler, authMiddleware *middleware.AuthMiddleware) {
	auth := api.Group("/auth")

	// Public routes (no auth required)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/session", authHandler.Session)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Current identity - accessible to any authenticated identity
	auth.GET("/me", authHandler.GetMe, authMiddleware.Authenticate())
}
