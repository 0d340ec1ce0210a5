package services

import (
	"context"
	"fmt"
	"strings"

	"menuhub/internal/auth"
	"menuhub/internal/events"
	"menuhub/internal/models"

	"gorm.io/gorm"
)

type NewCompany struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type NewBranch struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Address string `json:"address" validate:"max=255"`
}

type BranchInfo struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type BranchLocation struct {
	Address string `json:"address" validate:"required,max=255"`
}

// CompanyService manages the tenancy tree: companies owned by admins and
// their branches.
type CompanyService struct {
	db *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

func (s *CompanyService) CreateCompany(ctx context.Context, ownerID int64, in NewCompany) (*models.Company, error) {
	company := &models.Company{Name: strings.TrimSpace(in.Name), OwnerID: ownerID}
	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		return nil, err
	}
	events.Emit("companies.created", company)
	return company, nil
}

func (s *CompanyService) ListCompanies(ctx context.Context, ownerID int64) ([]models.Company, error) {
	var companies []models.Company
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id asc").Find(&companies).Error
	return companies, err
}

// CreateBranch adds a branch to a company the owner holds.
func (s *CompanyService) CreateBranch(ctx context.Context, ownerID, companyID int64, in NewBranch) (*models.Branch, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ? AND owner_id = ?", companyID, ownerID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: company %d is not yours", auth.ErrPermissionDenied, companyID)
	}

	branch := &models.Branch{
		CompanyID: companyID,
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
	}
	if err := s.db.WithContext(ctx).Create(branch).Error; err != nil {
		return nil, err
	}
	events.Emit("branches.created", branch)
	return branch, nil
}

func (s *CompanyService) ListBranches(ctx context.Context, ownerID, companyID int64) ([]models.Branch, error) {
	var branches []models.Branch
	err := s.db.WithContext(ctx).
		Joins("JOIN companies ON companies.id = branches.company_id").
		Where("branches.company_id = ? AND companies.owner_id = ?", companyID, ownerID).
		Order("branches.id asc").
		Find(&branches).Error
	return branches, err
}

func (s *CompanyService) GetBranch(ctx context.Context, branchID int64) (*models.Branch, error) {
	var branch models.Branch
	if err := s.db.WithContext(ctx).First(&branch, "id = ?", branchID).Error; err != nil {
		return nil, translate(err)
	}
	return &branch, nil
}

func (s *CompanyService) UpdateBranchInfo(ctx context.Context, branchID int64, in BranchInfo) (*models.Branch, error) {
	return s.updateBranch(ctx, branchID, map[string]interface{}{"name": strings.TrimSpace(in.Name)})
}

func (s *CompanyService) UpdateLocation(ctx context.Context, branchID int64, in BranchLocation) (*models.Branch, error) {
	return s.updateBranch(ctx, branchID, map[string]interface{}{"address": strings.TrimSpace(in.Address)})
}

func (s *CompanyService) updateBranch(ctx context.Context, branchID int64, values map[string]interface{}) (*models.Branch, error) {
	result := s.db.WithContext(ctx).Model(&models.Branch{}).Where("id = ?", branchID).Updates(values)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, auth.ErrNotFound
	}
	branch, err := s.GetBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	events.Emit("branches.updated", branch)
	return branch, nil
}
