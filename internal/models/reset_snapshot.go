package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CategorySummary is one category as it stood right before a reset.
type CategorySummary struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	SectionID  string          `json:"sectionId"`
	Section    string          `json:"section"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Spent      decimal.Decimal `json:"spent"`
}

// CategorySummaries is stored as a JSON text column.
type CategorySummaries []CategorySummary

// Value implements driver.Valuer.
func (s CategorySummaries) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *CategorySummaries) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = CategorySummaries{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for CategorySummaries", src)
	}
	return json.Unmarshal(raw, s)
}

// ResetSnapshot records the state of a budget at the moment it was reset.
type ResetSnapshot struct {
	Base
	UserID         string            `gorm:"type:uuid;not null;index" json:"userId"`
	BudgetID       string            `gorm:"type:uuid;not null;index" json:"budgetId"`
	Month          int               `gorm:"not null" json:"month"`
	Year           int               `gorm:"not null" json:"year"`
	TotalSpent     decimal.Decimal   `gorm:"type:DECIMAL(20,8);not null;default:0" json:"totalSpent"`
	TotalBudgeted  decimal.Decimal   `gorm:"type:DECIMAL(20,8);not null;default:0" json:"totalBudgeted"`
	TotalAvailable decimal.Decimal   `gorm:"type:DECIMAL(20,8);not null;default:0" json:"totalAvailable"`
	ExpenseCount   int               `gorm:"not null;default:0" json:"expenseCount"`
	Categories     CategorySummaries `gorm:"type:text;not null" json:"categories"`
}
