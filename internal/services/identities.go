package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menuhub/internal/auth"
	"menuhub/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store is the persistence contract of the identity core.
type Store interface {
	FindByID(ctx context.Context, id int64) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByProviderSubject(ctx context.Context, provider, subject string) (*models.Identity, error)
	FindPermissions(ctx context.Context, identityID int64) (models.PermissionRecord, error)
	CreateIdentity(ctx context.Context, identity *models.Identity, link *models.ProviderLink, record models.PermissionRecord) error
	TouchLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePermissions(ctx context.Context, identityID int64, record models.PermissionRecord) error
	UpdateState(ctx context.Context, id int64, state models.LifecycleState, active bool) error
	PromoteToEmployee(ctx context.Context, id, branchID int64) error
	BranchOwnedBy(ctx context.Context, branchID, adminID int64) (bool, error)
	DeleteStaleGuests(ctx context.Context, before time.Time) (int64, error)
}

// IdentityStore is the GORM implementation of Store.
type IdentityStore struct {
	db *gorm.DB
}

var _ Store = (*IdentityStore)(nil)

func NewIdentityStore(db *gorm.DB) *IdentityStore {
	return &IdentityStore{db: db}
}

func (s *IdentityStore) FindByID(ctx context.Context, id int64) (*models.Identity, error) {
	var identity models.Identity
	if err := s.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	if err := s.db.WithContext(ctx).First(&identity, "email = ?", models.NormalizeEmail(email)).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (s *IdentityStore) FindByProviderSubject(ctx context.Context, provider, subject string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).
		Joins("JOIN provider_links ON provider_links.identity_id = identities.id").
		Where("provider_links.provider = ? AND provider_links.subject = ?", provider, subject).
		First(&identity).Error
	if err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

// FindPermissions returns nil when the identity has no record.
func (s *IdentityStore) FindPermissions(ctx context.Context, identityID int64) (models.PermissionRecord, error) {
	var perm models.EmployeePermission
	err := s.db.WithContext(ctx).First(&perm, "identity_id = ?", identityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return perm.Record.Data(), nil
}

// CreateIdentity inserts the identity together with its optional provider
// link and permission record. Either everything is written or nothing is.
func (s *IdentityStore) CreateIdentity(ctx context.Context, identity *models.Identity, link *models.ProviderLink, record models.PermissionRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		if link != nil {
			link.IdentityID = identity.ID
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}
		if record != nil {
			perm := models.EmployeePermission{
				IdentityID: identity.ID,
				Record:     datatypes.NewJSONType(record),
			}
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		identity.ID = 0
		return translate(err)
	}
	return nil
}

func (s *IdentityStore) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	return s.updateColumns(ctx, id, map[string]interface{}{"last_login_at": at})
}

func (s *IdentityStore) UpdatePermissions(ctx context.Context, identityID int64, record models.PermissionRecord) error {
	result := s.db.WithContext(ctx).Model(&models.EmployeePermission{}).
		Where("identity_id = ?", identityID).
		UpdateColumns(map[string]interface{}{"record": datatypes.NewJSONType(record), "updated_at": time.Now()})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *IdentityStore) UpdateState(ctx context.Context, id int64, state models.LifecycleState, active bool) error {
	return s.updateColumns(ctx, id, map[string]interface{}{"state": state, "active": active})
}

// PromoteToEmployee assigns the branch and creates a deny-by-default record
// in one transaction.
func (s *IdentityStore) PromoteToEmployee(ctx context.Context, id, branchID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Identity{}).
			Where("id = ? AND role = ?", id, models.RoleGuest).
			UpdateColumns(map[string]interface{}{
				"role":       models.RoleEmployee,
				"branch_id":  branchID,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return auth.ErrNotFound
		}
		perm := models.EmployeePermission{
			IdentityID: id,
			Record:     datatypes.NewJSONType(models.DefaultPermissionRecord()),
		}
		return tx.Create(&perm).Error
	})
	return translate(err)
}

func (s *IdentityStore) BranchOwnedBy(ctx context.Context, branchID, adminID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Branch{}).
		Joins("JOIN companies ON companies.id = branches.company_id").
		Where("branches.id = ? AND companies.owner_id = ?", branchID, adminID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteStaleGuests hard-deletes guests created before the cutoff that never
// logged in, along with their provider links.
func (s *IdentityStore) DeleteStaleGuests(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.Identity{}).Select("id").
			Where("role = ? AND created_at < ? AND last_login_at IS NULL", models.RoleGuest, before)
		if err := tx.Where("identity_id IN (?)", stale).Delete(&models.ProviderLink{}).Error; err != nil {
			return err
		}
		result := tx.Where("role = ? AND created_at < ? AND last_login_at IS NULL", models.RoleGuest, before).
			Delete(&models.Identity{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *IdentityStore) updateColumns(ctx context.Context, id int64, values map[string]interface{}) error {
	values["updated_at"] = time.Now()
	result := s.db.WithContext(ctx).Model(&models.Identity{}).Where("id = ?", id).UpdateColumns(values)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the core error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrNotFound):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return auth.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", auth.ErrDuplicateAccount, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
