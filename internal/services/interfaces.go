package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"presusimple/internal/models"
	"presusimple/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, budgeted decimal.Decimal, sectionRef string, budgetID *string) (*models.Category, error)
	ListCategories(userID string, budgetID *string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name string, budgeted decimal.Decimal) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// SectionRenameResult is returned by a section rename.
type SectionRenameResult struct {
	Budget            *models.Budget `json:"budget"`
	UpdatedCategories int64          `json:"updatedCategories"`
}

// CategorySpending is one category line of a budget summary.
type CategorySpending struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	SectionID  string          `json:"sectionId"`
	Section    string          `json:"section"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// BudgetSummary reports spending per category computed from the expense ledger.
type BudgetSummary struct {
	BudgetID       string             `json:"budgetId"`
	Month          int                `json:"month"`
	Year           int                `json:"year"`
	Envelope       decimal.Decimal    `json:"envelope"`
	TotalBudgeted  decimal.Decimal    `json:"totalBudgeted"`
	TotalAvailable decimal.Decimal    `json:"totalAvailable"`
	TotalSpent     decimal.Decimal    `json:"totalSpent"`
	Categories     []CategorySpending `json:"categories"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, month, year int, envelope decimal.Decimal, sectionNames []string) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	GetCurrentBudget(userID string) (*models.Budget, error)
	UpdateEnvelope(userID, budgetID string, envelope decimal.Decimal) (*models.Budget, error)
	RenameSection(userID, budgetID, oldSectionName, newSectionName string) (*SectionRenameResult, error)
	AddSection(userID, budgetID, name string) (*models.Section, error)
	DeleteSection(userID, budgetID, sectionID string) error
	DeleteBudget(userID, budgetID string) error
	GetBudgetSummary(userID, budgetID string) (*BudgetSummary, error)
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	BudgetID   *string
	CategoryID *string
	Type       *models.ExpenseType
	FromDate   *time.Time
	ToDate     *time.Time
}

// ExpenseUpdate carries the fields of an expense update; nil leaves a field as is.
type ExpenseUpdate struct {
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
	Type        *models.ExpenseType
}

// ExpenseServicer defines the contract for the expense ledger.
type ExpenseServicer interface {
	CreateExpense(userID, categoryID string, amount decimal.Decimal, description string, date time.Time, expenseType models.ExpenseType) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, update ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
}

// UserDirectory resolves a session email to a user id.
type UserDirectory interface {
	LookupUserID(ctx context.Context, email string) (string, error)
}

// ResetNotifier delivers a reset summary to the user.
type ResetNotifier interface {
	NotifyReset(email string, snapshot *models.ResetSnapshot) error
}

// ResetServicer defines the contract for the end-of-period reset.
type ResetServicer interface {
	ResetBudget(ctx context.Context, email string) (*models.ResetSnapshot, error)
	ListSnapshots(userID string) ([]models.ResetSnapshot, error)
	GetSnapshot(userID, snapshotID string) (*models.ResetSnapshot, error)
}

// FeatureFlagInput describes the desired state of a feature flag.
type FeatureFlagInput struct {
	Description       string
	Enabled           bool
	RolloutPercentage int
	AllowedUserIDs    []string
}

// FeatureFlagServicer defines the contract for feature flag evaluation.
type FeatureFlagServicer interface {
	IsEnabled(key, userID string) bool
	EvaluateAll(userID string) (map[string]bool, error)
	UpsertFlag(key string, input FeatureFlagInput) (*models.FeatureFlag, error)
}

// MobileCode is a one-time code bound to the user that requested it.
type MobileCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"-"`
	Email     string    `json:"-"`
}

// MobileAuthServicer defines the contract for the mobile code exchange.
type MobileAuthServicer interface {
	IssueCode(userID, email string) (*MobileCode, error)
	ExchangeCode(code string) (*MobileCode, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
