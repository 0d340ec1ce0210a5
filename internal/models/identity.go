package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Identity is an authenticated subject. Branch and permissions exist only for
// employees.
type Identity struct {
	Base
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	ImageURL    *string        `json:"imageUrl,omitempty"`
	Role        Role           `gorm:"type:varchar(16);not null;index" json:"role"`
	State       LifecycleState `gorm:"type:varchar(16);not null" json:"state"`
	Active      bool           `gorm:"not null" json:"active"`
	BranchID    *int64         `gorm:"index" json:"branchId,omitempty"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
}

// ProviderLink ties an identity to a federated provider's stable subject id.
type ProviderLink struct {
	Base
	IdentityID int64  `gorm:"not null;index" json:"identityId"`
	Provider   string `gorm:"not null;uniqueIndex:idx_provider_subject" json:"provider"`
	Subject    string `gorm:"not null;uniqueIndex:idx_provider_subject" json:"subject"`
}

// EmployeePermission is the one-to-one permission record of an employee.
type EmployeePermission struct {
	IdentityID int64                              `gorm:"primaryKey;autoIncrement:false" json:"identityId"`
	Record     datatypes.JSONType[PermissionRecord] `gorm:"type:jsonb;not null" json:"record"`
	UpdatedAt  time.Time                          `json:"updatedAt"`
}

var ErrRoleInvariant = errors.New("only employees may carry a branch assignment")

// IsSuspended reports whether the identity is soft-disabled by either the
// lifecycle state or the active flag.
func (i *Identity) IsSuspended() bool {
	return i.State == StateSuspended || !i.Active
}

func (i *Identity) IsEmployee() bool {
	return i.Role == RoleEmployee
}

func (i *Identity) HasLocalPassword() bool {
	return i.Password != ""
}

// CheckInvariants enforces the role/branch pairing before writes.
func (i *Identity) CheckInvariants() error {
	if i.Role == RoleEmployee && i.BranchID == nil {
		return errors.New("employee requires a branch assignment")
	}
	if i.Role != RoleEmployee && i.BranchID != nil {
		return ErrRoleInvariant
	}
	return nil
}
