package models

import "github.com/shopspring/decimal"

// Budget is a user's plan for one month. Envelope is the overall amount the
// user has to allocate; TotalBudgeted and TotalAvailable are derived from the
// categories of its sections and only written by reconciliation.
type Budget struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;uniqueIndex:uq_budgets_user_period" json:"userId"`
	Month          int             `gorm:"not null;uniqueIndex:uq_budgets_user_period" json:"month"`
	Year           int             `gorm:"not null;uniqueIndex:uq_budgets_user_period" json:"year"`
	Envelope       decimal.Decimal `gorm:"type:DECIMAL(20,8);not null;default:0" json:"envelope"`
	TotalBudgeted  decimal.Decimal `gorm:"type:DECIMAL(20,8);not null;default:0" json:"totalBudgeted"`
	TotalAvailable decimal.Decimal `gorm:"type:DECIMAL(20,8);not null;default:0" json:"totalAvailable"`
	Version        int64           `gorm:"not null;default:0" json:"version"`

	// Relationships
	Sections []Section `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"sections"`
}

// SectionByName returns the section whose name or display name equals name.
func (b *Budget) SectionByName(name string) *Section {
	for i := range b.Sections {
		if b.Sections[i].Name == name || b.Sections[i].DisplayName == name {
			return &b.Sections[i]
		}
	}
	return nil
}

// SectionByID returns the section with the given id.
func (b *Budget) SectionByID(id string) *Section {
	for i := range b.Sections {
		if b.Sections[i].ID == id {
			return &b.Sections[i]
		}
	}
	return nil
}
