package services

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"menuhub/internal/auth"
	"menuhub/internal/events"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ListQuery carries pagination, equality filters and sorting for List.
// Filter and sort names may be Go field names or column names; unknown names
// are ignored.
type ListQuery struct {
	Page    int
	Limit   int
	Filters map[string]string
	Sort    string
	Order   string
}

// BaseService defines CRUD for menu entities that belong to a branch. Every
// call is confined to branchID.
type BaseService[T any] interface {
	Create(ctx context.Context, branchID int64, entity *T) error
	Get(ctx context.Context, branchID, id int64) (*T, error)
	List(ctx context.Context, branchID int64, q ListQuery) ([]T, int64, error)
	Update(ctx context.Context, branchID, id int64, entity *T) error
	Delete(ctx context.Context, branchID, id int64) error
}

// BaseServiceImpl implements BaseService
type BaseServiceImpl[T any] struct {
	db        *gorm.DB
	modelType T
	schema    *schema.Schema
}

// NewBaseService creates a new base service. T must have a BranchID int64
// field.
func NewBaseService[T any](db *gorm.DB, modelType T) (BaseService[T], error) {
	sch, err := schema.Parse(&modelType, &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if sch.LookUpField("BranchID") == nil {
		return nil, fmt.Errorf("%s has no BranchID field", sch.Name)
	}
	return &BaseServiceImpl[T]{
		db:        db,
		modelType: modelType,
		schema:    sch,
	}, nil
}

func (s *BaseServiceImpl[T]) table() string {
	return s.schema.Table
}

func (s *BaseServiceImpl[T]) Create(ctx context.Context, branchID int64, entity *T) error {
	setInt64Field(entity, "ID", 0)
	setInt64Field(entity, "BranchID", branchID)
	if err := s.checkReferences(ctx, branchID, entity); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return err
	}

	events.Emit(fmt.Sprintf("%s.created", s.table()), entity)
	return nil
}

func (s *BaseServiceImpl[T]) Get(ctx context.Context, branchID, id int64) (*T, error) {
	var entity T
	err := s.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		First(&entity, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (s *BaseServiceImpl[T]) List(ctx context.Context, branchID int64, q ListQuery) ([]T, int64, error) {
	var entities []T
	var total int64

	query := s.db.WithContext(ctx).Model(new(T)).Where("branch_id = ?", branchID)

	for key, value := range q.Filters {
		field := s.schema.LookUpField(key)
		if field == nil || field.DBName == "" || field.DBName == "branch_id" {
			continue
		}
		query = query.Where(fmt.Sprintf("%s = ?", field.DBName), value)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if field := s.schema.LookUpField(q.Sort); field != nil && field.DBName != "" {
		order := "asc"
		if strings.EqualFold(q.Order, "desc") {
			order = "desc"
		}
		query = query.Order(fmt.Sprintf("%s %s", field.DBName, order))
	} else {
		query = query.Order("id asc")
	}

	if q.Page > 0 && q.Limit > 0 {
		query = query.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}

	if err := query.Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (s *BaseServiceImpl[T]) Update(ctx context.Context, branchID, id int64, entity *T) error {
	setInt64Field(entity, "ID", id)
	setInt64Field(entity, "BranchID", branchID)
	if err := s.checkReferences(ctx, branchID, entity); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(entity).
		Where("id = ? AND branch_id = ?", id, branchID).
		Omit("id", "branch_id", "created_at").
		Select("*").
		Updates(entity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return auth.ErrNotFound
	}

	events.Emit(fmt.Sprintf("%s.updated", s.table()), entity)
	return nil
}

func (s *BaseServiceImpl[T]) Delete(ctx context.Context, branchID, id int64) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND branch_id = ?", id, branchID).
		Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return auth.ErrNotFound
	}

	events.Emit(fmt.Sprintf("%s.deleted", s.table()), id)
	return nil
}

// branchReferencer is implemented by entities pointing at other branch rows.
type branchReferencer interface {
	BranchReferences() map[string]int64
}

func (s *BaseServiceImpl[T]) checkReferences(ctx context.Context, branchID int64, entity *T) error {
	ref, ok := any(entity).(branchReferencer)
	if !ok {
		return nil
	}
	for table, id := range ref.BranchReferences() {
		var count int64
		err := s.db.WithContext(ctx).Table(table).
			Where("id = ? AND branch_id = ?", id, branchID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s %d is not part of branch %d", auth.ErrInvalidPayload, table, id, branchID)
		}
	}
	return nil
}

// setInt64Field assigns an int64 field by name when it exists.
func setInt64Field(entity interface{}, name string, value int64) {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	field := v.Elem().FieldByName(name)
	if field.IsValid() && field.CanSet() && field.Kind() == reflect.Int64 {
		field.SetInt(value)
	}
}
