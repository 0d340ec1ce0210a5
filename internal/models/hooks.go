package models

import (
	"gorm.io/gorm"
)

// BeforeSave normalizes the email and rejects rows that break the role
// invariants. Creation events are emitted by the services after commit.
func (i *Identity) BeforeSave(tx *gorm.DB) error {
	i.Email = NormalizeEmail(i.Email)
	return i.CheckInvariants()
}
