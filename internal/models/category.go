package models

import "github.com/shopspring/decimal"

// Category is a budget line item. Spent is a cache of the expense ledger and
// never drops below zero.
type Category struct {
	Base
	UserID    string          `gorm:"type:uuid;not null;index" json:"userId"`
	BudgetID  string          `gorm:"type:uuid;not null;index" json:"budgetId"`
	SectionID string          `gorm:"type:uuid;not null;uniqueIndex:uq_categories_section_name" json:"sectionId"`
	Name      string          `gorm:"not null;uniqueIndex:uq_categories_section_name" json:"name"`
	Budgeted  decimal.Decimal `gorm:"type:DECIMAL(20,8);not null;default:0" json:"budgeted"`
	Spent     decimal.Decimal `gorm:"type:DECIMAL(20,8);not null;default:0" json:"spent"`

	// Relationships
	Section *Section `gorm:"foreignKey:SectionID" json:"section,omitempty"`
}
