package api

import (
	"menuhub/internal/api/middleware"
	"menuhub/internal/api/registry"
	"menuhub/internal/handlers"
	"menuhub/internal/models"
	"menuhub/internal/routes"

	_ "menuhub/docs/swagger"

	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() error {
	// Health check
	// @Summary Health check
	// @Description Check if the server and its database are up
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Failure 503 {object} map[string]string "Database unreachable"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	api := s.echo.Group("/api/v1")
	auth := middleware.NewAuthMiddleware(s.deps.Codec, s.deps.Cookies)

	routes.SetupAuthRoutes(api, handlers.NewAuthHandler(s.deps.Sessions, s.deps.Cookies), auth)

	if s.deps.Employees != nil {
		routes.SetupEmployeeRoutes(api, handlers.NewEmployeeHandler(s.deps.Employees), auth)
	}

	if s.deps.Cleanup != nil && !s.config.IsProduction() {
		routes.SetupMaintenanceRoutes(api, handlers.NewMaintenanceHandler(s.deps.Cleanup), auth)
	}

	if s.deps.Companies == nil || s.db == nil {
		return nil
	}
	companyHandler := handlers.NewCompanyHandler(s.deps.Companies)
	routes.SetupCompanyRoutes(api, companyHandler, auth)

	// Branch scoped routes: staff only, confined to their own branch
	branch := api.Group("/branches/:branchId",
		auth.Authenticate(),
		middleware.RequireRole(models.RoleAdmin, models.RoleEmployee),
		middleware.RequireBranchAccess(s.deps.Store),
	)
	routes.SetupBranchRoutes(branch, companyHandler)

	// Register CRUD routes for the menu models
	return registry.RegisterMenuRoutes(branch, s.db)
}

