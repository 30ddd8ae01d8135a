package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseType distinguishes money going out from money coming in.
type ExpenseType string

const (
	ExpenseTypeExpense ExpenseType = "expense"
	ExpenseTypeIncome  ExpenseType = "income"
)

// Valid reports whether t is a known expense type.
func (t ExpenseType) Valid() bool {
	return t == ExpenseTypeExpense || t == ExpenseTypeIncome
}

// Expense is a single ledger entry against a category.
type Expense struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"userId"`
	BudgetID    string          `gorm:"type:uuid;not null;index" json:"budgetId"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"categoryId"`
	Amount      decimal.Decimal `gorm:"type:DECIMAL(20,8);not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Type        ExpenseType     `gorm:"type:varchar(16);not null;default:'expense'" json:"type"`
}

// Signed returns the amount as it counts toward spending: positive for
// expenses, negative for income.
func (e Expense) Signed() decimal.Decimal {
	if e.Type == ExpenseTypeIncome {
		return e.Amount.Neg()
	}
	return e.Amount
}

// SignedTotal sums the signed amounts of expenses.
func SignedTotal(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Signed())
	}
	return total
}
