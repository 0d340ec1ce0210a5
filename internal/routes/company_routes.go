package routes

import (
	"menuhub/internal/api/middleware"
	"menuhub/internal/handlers"
	"menuhub/internal/models"

	"github.com/labstack/echo/v4"
)

// SetupCompanyRoutes registers the admin-only company tree.
func SetupCompanyRoutes(api *echo.Group, companyHandler *handlers.CompanyHandler, authMiddleware *middleware.AuthMiddleware) {
	companies := api.Group("/companies", authMiddleware.Authenticate(), middleware.RequireRole(models.RoleAdmin))

	companies.POST("", companyHandler.CreateCompany)
	companies.GET("", companyHandler.ListCompanies)
	companies.POST("/:companyId/branches", companyHandler.CreateBranch)
	companies.GET("/:companyId/branches", companyHandler.ListBranches)
}

// SetupBranchRoutes registers branch-level routes on a group that already
// authenticates the caller and resolves :branchId.
func SetupBranchRoutes(branch *echo.Group, companyHandler *handlers.CompanyHandler) {
	branch.GET("", companyHandler.GetBranch,
		middleware.RequirePermission(models.ModuleBranchInfo, models.ActionView))
	branch.PUT("/info", companyHandler.UpdateBranchInfo,
		middleware.RequirePermission(models.ModuleBranchInfo, models.ActionEdit))
	branch.PUT("/location", companyHandler.UpdateLocation,
		middleware.RequirePermission(models.ModuleLocation, models.ActionEdit))
}
