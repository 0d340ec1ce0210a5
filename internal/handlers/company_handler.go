package handlers

import (
	"net/http"

	"menuhub/internal/api/middleware"
	"menuhub/internal/services"

	"github.com/labstack/echo/v4"
)

type CompanyHandler struct {
	companies *services.CompanyService
}

func NewCompanyHandler(companies *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// CreateCompany
// @Summary Create company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.NewCompany true "Company"
// @Success 201 {object} models.Company
// @Router /companies [post]
func (h *CompanyHandler) CreateCompany(c echo.Context) error {
	var req services.NewCompany
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	company, err := h.companies.CreateCompany(c.Request().Context(), middleware.GetClaims(c).SubjectID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, company)
}

// ListCompanies
// @Summary List own companies
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Company
// @Router /companies [get]
func (h *CompanyHandler) ListCompanies(c echo.Context) error {
	companies, err := h.companies.ListCompanies(c.Request().Context(), middleware.GetClaims(c).SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, companies)
}

// CreateBranch
// @Summary Create branch
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param companyId path int true "Company ID"
// @Param request body services.NewBranch true "Branch"
// @Success 201 {object} models.Branch
// @Failure 403 {object} map[string]interface{} "Company is not yours"
// @Router /companies/{companyId}/branches [post]
func (h *CompanyHandler) CreateBranch(c echo.Context) error {
	companyID, err := idParam(c, "companyId")
	if err != nil {
		return err
	}
	var req services.NewBranch
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	branch, err := h.companies.CreateBranch(c.Request().Context(), middleware.GetClaims(c).SubjectID, companyID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, branch)
}

// ListBranches
// @Summary List branches of a company
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param companyId path int true "Company ID"
// @Success 200 {array} models.Branch
// @Router /companies/{companyId}/branches [get]
func (h *CompanyHandler) ListBranches(c echo.Context) error {
	companyID, err := idParam(c, "companyId")
	if err != nil {
		return err
	}
	branches, err := h.companies.ListBranches(c.Request().Context(), middleware.GetClaims(c).SubjectID, companyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, branches)
}

// GetBranch
// @Summary Get branch
// @Tags branches
// @Produce json
// @Security BearerAuth
// @Param branchId path int true "Branch ID"
// @Success 200 {object} models.Branch
// @Router /branches/{branchId} [get]
func (h *CompanyHandler) GetBranch(c echo.Context) error {
	branch, err := h.companies.GetBranch(c.Request().Context(), middleware.GetBranchID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, branch)
}

// UpdateBranchInfo
// @Summary Update branch info
// @Tags branches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param branchId path int true "Branch ID"
// @Param request body services.BranchInfo true "Branch info"
// @Success 200 {object} models.Branch
// @Router /branches/{branchId}/info [put]
func (h *CompanyHandler) UpdateBranchInfo(c echo.Context) error {
	var req services.BranchInfo
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	branch, err := h.companies.UpdateBranchInfo(c.Request().Context(), middleware.GetBranchID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, branch)
}

// UpdateLocation
// @Summary Update branch location
// @Tags branches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param branchId path int true "Branch ID"
// @Param request body services.BranchLocation true "Branch location"
// @Success 200 {object} models.Branch
// @Router /branches/{branchId}/location [put]
func (h *CompanyHandler) UpdateLocation(c echo.Context) error {
	var req services.BranchLocation
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	branch, err := h.companies.UpdateLocation(c.Request().Context(), middleware.GetBranchID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, branch)
}
