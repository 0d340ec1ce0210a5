package registry

import (
	"github.com/labstack/echo/v4"

	"menuhub/internal/api/controllers"
	"menuhub/internal/api/middleware"
	"menuhub/internal/models"
	"menuhub/internal/services"

	"gorm.io/gorm"
)

// menuResource registers CRUD routes for one branch-owned model under the
// permission module that guards it.
func menuResource[T any](g *echo.Group, db *gorm.DB, path string, module models.Module, model T) error {
	service, err := services.NewBaseService(db, model)
	if err != nil {
		return err
	}
	controllers.NewBaseController(service).RegisterRoutes(
		g.Group(path),
		middleware.RequirePermission(module, models.ActionView),
		middleware.RequirePermission(module, models.ActionEdit),
	)
	return nil
}

// 📝 RegisterMenuRoutes registers CRUD routes for the menu models of a branch - godoc
// g must already authenticate the caller and resolve :branchId.
func RegisterMenuRoutes(g *echo.Group, db *gorm.DB) error {
	// Categories
	// @Summary List categories
	// @Tags menu
	// @Produce json
	// @Security BearerAuth
	// @Param branchId path int true "Branch ID"
	// @Success 200 {object} map[string]interface{} "data, total, page, limit"
	// @Failure 403 {object} map[string]interface{} "Forbidden"
	// @Router /branches/{branchId}/categories [get]
	if err := menuResource(g, db, "/categories", models.ModuleCategories, models.Category{}); err != nil {
		return err
	}

	// Products
	// @Summary Create product
	// @Tags menu
	// @Accept json
	// @Produce json
	// @Security BearerAuth
	// @Param branchId path int true "Branch ID"
	// @Param product body models.Product true "Product object"
	// @Success 201 {object} models.Product
	// @Failure 400 {object} map[string]interface{} "Category not in this branch"
	// @Failure 403 {object} map[string]interface{} "Forbidden"
	// @Router /branches/{branchId}/products [post]
	if err := menuResource(g, db, "/products", models.ModuleProducts, models.Product{}); err != nil {
		return err
	}

	// Schedules
	// @Summary Update schedule
	// @Tags menu
	// @Accept json
	// @Produce json
	// @Security BearerAuth
	// @Param branchId path int true "Branch ID"
	// @Param id path int true "Schedule ID"
	// @Param schedule body models.Schedule true "Schedule object"
	// @Success 200 {object} models.Schedule
	// @Failure 404 {object} map[string]interface{} "Not found"
	// @Router /branches/{branchId}/schedules/{id} [put]
	if err := menuResource(g, db, "/schedules", models.ModuleSchedules, models.Schedule{}); err != nil {
		return err
	}

	// Socials
	// @Summary Delete social link
	// @Tags menu
	// @Security BearerAuth
	// @Param branchId path int true "Branch ID"
	// @Param id path int true "Social ID"
	// @Success 204 "No content"
	// @Failure 404 {object} map[string]interface{} "Not found"
	// @Router /branches/{branchId}/socials/{id} [delete]
	return menuResource(g, db, "/socials", models.ModuleSocials, models.Social{})
}
