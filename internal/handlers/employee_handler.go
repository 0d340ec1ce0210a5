package handlers

import (
	"net/http"
	"strconv"

	"menuhub/internal/api/middleware"
	"menuhub/internal/auth"
	"menuhub/internal/services"

	"github.com/labstack/echo/v4"
)

type EmployeeHandler struct {
	employees *services.EmployeeService
}

func NewEmployeeHandler(employees *services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

type PermissionsRequest struct {
	Permissions map[string]map[string]bool `json:"permissions" validate:"required,dive,keys,permission_module,endkeys"`
}

// Create adds an employee to a branch the caller owns.
// @Summary Create employee
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.NewEmployee true "Employee details and grants"
// @Success 201 {object} models.Identity
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 403 {object} map[string]interface{} "Branch is not yours"
// @Failure 409 {object} map[string]interface{} "Account already exists"
// @Router /employees [post]
func (h *EmployeeHandler) Create(c echo.Context) error {
	var req services.NewEmployee
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	employee, err := h.employees.CreateEmployee(c.Request().Context(), middleware.GetClaims(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, employee)
}

// Promote turns a guest into an employee of the caller's branch.
// @Summary Promote guest
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.PromoteGuest true "Guest and branch"
// @Success 200 {object} models.Identity
// @Failure 400 {object} map[string]interface{} "Not a guest"
// @Failure 403 {object} map[string]interface{} "Branch is not yours"
// @Failure 404 {object} map[string]interface{} "Identity not found"
// @Router /employees/promote [post]
func (h *EmployeeHandler) Promote(c echo.Context) error {
	var req services.PromoteGuest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	employee, err := h.employees.PromoteGuest(c.Request().Context(), middleware.GetClaims(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employee)
}

// UpdatePermissions replaces an employee's permission record. Modules left
// out are denied.
// @Summary Update employee permissions
// @Tags employees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Employee ID"
// @Param request body PermissionsRequest true "module -> {canView, canEdit}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Unknown module or action"
// @Failure 403 {object} map[string]interface{} "Branch is not yours"
// @Failure 404 {object} map[string]interface{} "Employee not found"
// @Router /employees/{id}/permissions [put]
func (h *EmployeeHandler) UpdatePermissions(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req PermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	record, err := auth.ParseGrants(req.Permissions)
	if err != nil {
		return err
	}
	full, err := h.employees.UpdatePermissions(c.Request().Context(), middleware.GetClaims(c), id, record)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"identityId": id, "permissions": full})
}

// Suspend soft-disables an employee.
// @Summary Suspend employee
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Param id path int true "Employee ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Branch is not yours"
// @Failure 404 {object} map[string]interface{} "Employee not found"
// @Router /employees/{id}/suspend [post]
func (h *EmployeeHandler) Suspend(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.employees.Suspend(c.Request().Context(), middleware.GetClaims(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Employee suspended"})
}

// Reactivate restores a suspended employee.
// @Summary Reactivate employee
// @Tags employees
// @Produce json
// @Security BearerAuth
// @Param id path int true "Employee ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Branch is not yours"
// @Failure 404 {object} map[string]interface{} "Employee not found"
// @Router /employees/{id}/reactivate [post]
func (h *EmployeeHandler) Reactivate(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.employees.Reactivate(c.Request().Context(), middleware.GetClaims(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Employee reactivated"})
}

func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}
