package controllers

import (
	"net/http"
	"strconv"

	"menuhub/internal/api/middleware"
	"menuhub/internal/services"

	"github.com/labstack/echo/v4"
)

// reservedParams are query parameters that are never treated as filters.
var reservedParams = map[string]bool{"page": true, "limit": true, "sort": true, "order": true}

// BaseController provides generic CRUD operations for branch-owned models.
// The branch always comes from RequireBranchAccess, never from the body.
type BaseController[T any] struct {
	service services.BaseService[T]
}

// NewBaseController creates a new base controller
func NewBaseController[T any](service services.BaseService[T]) *BaseController[T] {
	return &BaseController[T]{
		service: service,
	}
}

func parseID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id parameter")
	}
	return id, nil
}

// Create handles creation of new entities
func (c *BaseController[T]) Create(ctx echo.Context) error {
	var entity T
	if err := ctx.Bind(&entity); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := ctx.Validate(&entity); err != nil {
		return err
	}

	if err := c.service.Create(ctx.Request().Context(), middleware.GetBranchID(ctx), &entity); err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, entity)
}

// Get handles retrieval of a single entity
func (c *BaseController[T]) Get(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	entity, err := c.service.Get(ctx.Request().Context(), middleware.GetBranchID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entity)
}

// List handles retrieval of multiple entities with pagination and filtering
func (c *BaseController[T]) List(ctx echo.Context) error {
	// Parse pagination parameters
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	// Parse filters from query parameters
	filters := make(map[string]string)
	for key, values := range ctx.QueryParams() {
		if !reservedParams[key] && len(values) > 0 {
			filters[key] = values[0]
		}
	}

	entities, total, err := c.service.List(ctx.Request().Context(), middleware.GetBranchID(ctx), services.ListQuery{
		Page:    page,
		Limit:   limit,
		Filters: filters,
		Sort:    ctx.QueryParam("sort"),
		Order:   ctx.QueryParam("order"),
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"data":  entities,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Update handles updating an existing entity
func (c *BaseController[T]) Update(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	var entity T
	if err := ctx.Bind(&entity); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := ctx.Validate(&entity); err != nil {
		return err
	}

	if err := c.service.Update(ctx.Request().Context(), middleware.GetBranchID(ctx), id, &entity); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entity)
}

// Delete handles deletion of an entity
func (c *BaseController[T]) Delete(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.Request().Context(), middleware.GetBranchID(ctx), id); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

// RegisterRoutes registers CRUD routes on g. Reads go through view, writes
// through edit.
func (c *BaseController[T]) RegisterRoutes(g *echo.Group, view, edit echo.MiddlewareFunc) {
	g.GET("", c.List, view)
	g.GET("/:id", c.Get, view)
	g.POST("", c.Create, edit)
	g.PUT("/:id", c.Update, edit)
	g.DELETE("/:id", c.Delete, edit)
}
