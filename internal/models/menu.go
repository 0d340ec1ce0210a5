package models

// Company is owned by an admin identity and groups branches.
type Company struct {
	Base
	Name    string `gorm:"not null" json:"name" validate:"required,min=2"`
	OwnerID int64  `gorm:"not null;index" json:"ownerId"`
}

type Branch struct {
	Base
	CompanyID int64  `gorm:"not null;index" json:"companyId" validate:"required"`
	Name      string `gorm:"not null" json:"name" validate:"required,min=2"`
	Address   string `json:"address"`
}

type Category struct {
	Base
	BranchID int64  `gorm:"not null;index" json:"branchId"`
	Name     string `gorm:"not null" json:"name" validate:"required"`
	Position int    `json:"position"`
}

type Product struct {
	Base
	BranchID    int64  `gorm:"not null;index" json:"branchId"`
	CategoryID  int64  `gorm:"not null;index" json:"categoryId" validate:"required"`
	Name        string `gorm:"not null" json:"name" validate:"required"`
	Description string `json:"description"`
	PriceCents  int64  `gorm:"not null" json:"priceCents" validate:"min=0"`
	Available   bool   `json:"available"`
}

type Schedule struct {
	Base
	BranchID int64  `gorm:"not null;index" json:"branchId"`
	Weekday  int    `gorm:"not null" json:"weekday" validate:"min=0,max=6"`
	Opens    string `gorm:"not null" json:"opens" validate:"required"`
	Closes   string `gorm:"not null" json:"closes" validate:"required"`
}

type Social struct {
	Base
	BranchID int64  `gorm:"not null;index" json:"branchId"`
	Network  string `gorm:"not null" json:"network" validate:"required"`
	URL      string `gorm:"not null" json:"url" validate:"required,url"`
}

// BranchReferences lists rows in other tables that must belong to the same
// branch as the product.
func (p *Product) BranchReferences() map[string]int64 {
	return map[string]int64{"categories": p.CategoryID}
}
