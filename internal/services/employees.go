package services

import (
	"context"
	"fmt"
	"strings"

	"menuhub/internal/auth"
	"menuhub/internal/events"
	"menuhub/internal/models"
	"menuhub/internal/utils/logger"
)

type NewEmployee struct {
	Email     string                     `json:"email" validate:"required,email"`
	Password  string                     `json:"password" validate:"required,min=8"`
	FirstName string                     `json:"firstName" validate:"required,max=100"`
	LastName  string                     `json:"lastName" validate:"max=100"`
	BranchID  int64                      `json:"branchId" validate:"required,gt=0"`
	Grants    map[string]map[string]bool `json:"permissions" validate:"omitempty,dive,keys,permission_module,endkeys"`
}

type PromoteGuest struct {
	IdentityID int64 `json:"identityId" validate:"required,gt=0"`
	BranchID   int64 `json:"branchId" validate:"required,gt=0"`
}

// EmployeeService manages employees on behalf of the admin who owns their
// branch.
type EmployeeService struct {
	store Store
	log   *logger.Logger
}

func NewEmployeeService(store Store) *EmployeeService {
	return &EmployeeService{store: store, log: logger.New("employee_service")}
}

// CreateEmployee creates an active employee with the given grants; modules
// left out are denied.
func (s *EmployeeService) CreateEmployee(ctx context.Context, actor *auth.Claims, in NewEmployee) (*models.Identity, error) {
	if err := s.requireBranchOwner(ctx, actor, in.BranchID); err != nil {
		return nil, err
	}
	record, err := auth.ParseGrants(in.Grants)
	if err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", auth.ErrInvalidPayload)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	branchID := in.BranchID
	identity := &models.Identity{
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      models.RoleEmployee,
		State:     models.StateActive,
		Active:    true,
		BranchID:  &branchID,
	}
	if err := s.store.CreateIdentity(ctx, identity, nil, record); err != nil {
		return nil, err
	}
	s.log.Success("Employee %d created on branch %d by %d", identity.ID, branchID, actor.SubjectID)
	events.Emit(events.IdentityCreated, identity)
	return identity, nil
}

// PromoteGuest turns a guest into an employee of the branch with a
// deny-by-default record.
func (s *EmployeeService) PromoteGuest(ctx context.Context, actor *auth.Claims, in PromoteGuest) (*models.Identity, error) {
	if err := s.requireBranchOwner(ctx, actor, in.BranchID); err != nil {
		return nil, err
	}
	target, err := s.store.FindByID(ctx, in.IdentityID)
	if err != nil {
		return nil, err
	}
	if target.Role != models.RoleGuest {
		return nil, fmt.Errorf("%w: only guests can be promoted", auth.ErrInvalidPayload)
	}
	if err := s.store.PromoteToEmployee(ctx, target.ID, in.BranchID); err != nil {
		return nil, err
	}

	branchID := in.BranchID
	target.Role = models.RoleEmployee
	target.BranchID = &branchID
	events.Emit(events.IdentityPromoted, target)
	return target, nil
}

// UpdatePermissions replaces an employee's record. Changes reach the
// employee's token at the next session resume.
func (s *EmployeeService) UpdatePermissions(ctx context.Context, actor *auth.Claims, employeeID int64, record models.PermissionRecord) (models.PermissionRecord, error) {
	if err := auth.ValidateRecord(record); err != nil {
		return nil, err
	}
	if _, err := s.ownedEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	full := models.DefaultPermissionRecord()
	for module, caps := range record {
		full[module] = caps
	}
	if err := s.store.UpdatePermissions(ctx, employeeID, full); err != nil {
		return nil, err
	}
	events.Emit(events.PermissionsUpdated, employeeID)
	return full, nil
}

// Suspend soft-disables an employee. Tokens already issued stay valid until
// they expire.
func (s *EmployeeService) Suspend(ctx context.Context, actor *auth.Claims, employeeID int64) error {
	if _, err := s.ownedEmployee(ctx, actor, employeeID); err != nil {
		return err
	}
	if err := s.store.UpdateState(ctx, employeeID, models.StateSuspended, false); err != nil {
		return err
	}
	events.Emit(events.IdentitySuspended, employeeID)
	return nil
}

func (s *EmployeeService) Reactivate(ctx context.Context, actor *auth.Claims, employeeID int64) error {
	if _, err := s.ownedEmployee(ctx, actor, employeeID); err != nil {
		return err
	}
	if err := s.store.UpdateState(ctx, employeeID, models.StateActive, true); err != nil {
		return err
	}
	events.Emit(events.IdentityReactivated, employeeID)
	return nil
}

func (s *EmployeeService) ownedEmployee(ctx context.Context, actor *auth.Claims, employeeID int64) (*models.Identity, error) {
	target, err := s.store.FindByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !target.IsEmployee() || target.BranchID == nil {
		return nil, fmt.Errorf("%w: identity %d is not an employee", auth.ErrNotFound, employeeID)
	}
	if err := s.requireBranchOwner(ctx, actor, *target.BranchID); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *EmployeeService) requireBranchOwner(ctx context.Context, actor *auth.Claims, branchID int64) error {
	if actor == nil || actor.Role != models.RoleAdmin {
		return auth.ErrPermissionDenied
	}
	owned, err := s.store.BranchOwnedBy(ctx, branchID, actor.SubjectID)
	if err != nil {
		return fmt.Errorf("check branch ownership: %w", err)
	}
	if !owned {
		return fmt.Errorf("%w: branch %d is not yours", auth.ErrPermissionDenied, branchID)
	}
	return nil
}
