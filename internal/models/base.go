package models

import (
	"strings"
	"time"
)

// Base contains common columns for all tables
type Base struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b Base) GetID() int64 { return b.ID }

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleGuest    Role = "guest"
	RoleDev      Role = "dev"
)

type LifecycleState string

const (
	StatePending   LifecycleState = "pending"
	StateActive    LifecycleState = "active"
	StateSuspended LifecycleState = "suspended"
)

type AuthMethod string

const (
	AuthMethodLocal     AuthMethod = "local"
	AuthMethodFederated AuthMethod = "federated"
)

// IsValidRole checks if a given role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleEmployee, RoleGuest, RoleDev:
		return true
	default:
		return false
	}
}

func IsValidState(state LifecycleState) bool {
	switch state {
	case StatePending, StateActive, StateSuspended:
		return true
	default:
		return false
	}
}

// NormalizeEmail lowercases and trims an address; emails are stored and
// compared only in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
