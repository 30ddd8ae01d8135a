package models

// Section groups categories inside a budget. Categories point at the section
// id, so renaming only touches this row.
type Section struct {
	Base
	BudgetID    string `gorm:"type:uuid;not null;uniqueIndex:uq_sections_budget_name" json:"budgetId"`
	Name        string `gorm:"not null;uniqueIndex:uq_sections_budget_name" json:"name"`
	DisplayName string `gorm:"not null" json:"displayName"`
	Position    int    `gorm:"not null;default:0" json:"position"`
}
