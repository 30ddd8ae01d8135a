package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"presusimple/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates a budget for the current month with the given
// envelope and sections. Totals start at (0, envelope).
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, envelope int64, sectionNames ...string) *models.Budget {
	t.Helper()
	now := time.Now()
	return CreateTestBudgetForPeriod(t, db, userID, int(now.Month()), now.Year(), envelope, sectionNames...)
}

// CreateTestBudgetForPeriod creates a budget for an explicit month and year.
func CreateTestBudgetForPeriod(t *testing.T, db *gorm.DB, userID string, month, year int, envelope int64, sectionNames ...string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:         userID,
		Month:          month,
		Year:           year,
		Envelope:       decimal.NewFromInt(envelope),
		TotalBudgeted:  decimal.Zero,
		TotalAvailable: decimal.NewFromInt(envelope),
	}
	for i, name := range sectionNames {
		budget.Sections = append(budget.Sections, models.Section{Name: name, DisplayName: name, Position: i})
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestCategory inserts a category row directly, without reconciling the
// budget totals.
func CreateTestCategory(t *testing.T, db *gorm.DB, budget *models.Budget, section *models.Section, name string, budgeted, spent int64) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:    budget.UserID,
		BudgetID:  budget.ID,
		SectionID: section.ID,
		Name:      name,
		Budgeted:  decimal.NewFromInt(budgeted),
		Spent:     decimal.NewFromInt(spent),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense inserts an expense row directly, leaving the category's
// spent cache untouched.
func CreateTestExpense(t *testing.T, db *gorm.DB, category *models.Category, amount int64, expenseType models.ExpenseType) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:      category.UserID,
		BudgetID:    category.BudgetID,
		CategoryID:  category.ID,
		Amount:      decimal.NewFromInt(amount),
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		Date:        time.Now(),
		Type:        expenseType,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestFeatureFlag creates a feature flag.
func CreateTestFeatureFlag(t *testing.T, db *gorm.DB, key string, enabled bool, rollout int, allowed ...string) *models.FeatureFlag {
	t.Helper()

	flag := &models.FeatureFlag{
		Key:               key,
		Enabled:           enabled,
		RolloutPercentage: rollout,
	}
	flag.SetAllowList(allowed)
	if err := db.Create(flag).Error; err != nil {
		t.Fatalf("failed to create test feature flag: %v", err)
	}
	return flag
}

// ReloadBudget reads the budget row back from the database.
func ReloadBudget(t *testing.T, db *gorm.DB, budgetID string) *models.Budget {
	t.Helper()

	var budget models.Budget
	if err := db.Preload("Sections").First(&budget, "id = ?", budgetID).Error; err != nil {
		t.Fatalf("failed to reload budget: %v", err)
	}
	return &budget
}
