package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/models"
	"presusimple/internal/pagination"
)

// expenseService handles the expense ledger and keeps each category's spent
// cache in step with it.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

// CreateExpense records an expense or income against one of the user's
// categories. Only expense-type entries count toward the category's spent.
func (s *expenseService) CreateExpense(
	userID string,
	categoryID string,
	amount decimal.Decimal,
	description string,
	date time.Time,
	expenseType models.ExpenseType,
) (*models.Expense, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if expenseType == "" {
		expenseType = models.ExpenseTypeExpense
	}
	if !expenseType.Valid() {
		return nil, apperrors.ErrInvalidExpenseType
	}
	if date.IsZero() {
		date = time.Now()
	}

	var expense *models.Expense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, userID, categoryID)
		if err != nil {
			return err
		}

		expense = &models.Expense{
			UserID:      userID,
			BudgetID:    category.BudgetID,
			CategoryID:  category.ID,
			Amount:      amount,
			Description: description,
			Date:        date,
			Type:        expenseType,
		}
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return adjustSpent(tx, category, spentContribution(expense))
	})
	if err != nil {
		return nil, apperrors.Ensure(err)
	}
	return expense, nil
}

// GetUserExpenses retrieves a paginated, filtered list of the user's expenses.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	base = applyExpenseFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyExpenseFilters(q *gorm.DB, f ExpenseFilter) *gorm.DB {
	if f.BudgetID != nil {
		q = q.Where("budget_id = ?", *f.BudgetID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	return q
}

// GetExpenseByID retrieves an expense by ID for a specific user
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	return findExpense(s.db, userID, expenseID)
}

// UpdateExpense applies a partial update and moves the spent cache by the
// difference between the old and new contribution.
func (s *expenseService) UpdateExpense(userID, expenseID string, update ExpenseUpdate) (*models.Expense, error) {
	if update.Amount != nil && !update.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if update.Type != nil && !update.Type.Valid() {
		return nil, apperrors.ErrInvalidExpenseType
	}

	var expense *models.Expense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		expense, err = findExpense(tx, userID, expenseID)
		if err != nil {
			return err
		}
		before := spentContribution(expense)

		updates := make(map[string]interface{})
		if update.Amount != nil {
			expense.Amount = *update.Amount
			updates["amount"] = *update.Amount
		}
		if update.Description != nil {
			expense.Description = *update.Description
			updates["description"] = *update.Description
		}
		if update.Date != nil {
			expense.Date = *update.Date
			updates["date"] = *update.Date
		}
		if update.Type != nil {
			expense.Type = *update.Type
			updates["type"] = *update.Type
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.Expense{}).Where("id = ?", expense.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		delta := spentContribution(expense).Sub(before)
		if delta.IsZero() {
			return nil
		}
		category, err := findCategory(tx, userID, expense.CategoryID)
		if err != nil {
			return err
		}
		return adjustSpent(tx, category, delta)
	})
	if err != nil {
		return nil, apperrors.Ensure(err)
	}
	return expense, nil
}

// DeleteExpense removes an expense and takes its amount back out of spent.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		expense, err := findExpense(tx, userID, expenseID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.Expense{}, "id = ?", expense.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		contribution := spentContribution(expense)
		if contribution.IsZero() {
			return nil
		}
		category, err := findCategory(tx, userID, expense.CategoryID)
		if errors.Is(err, apperrors.ErrCategoryNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return adjustSpent(tx, category, contribution.Neg())
	})
	return apperrors.Ensure(err)
}

func findExpense(db *gorm.DB, userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// spentContribution is how much an entry adds to its category's spent.
func spentContribution(e *models.Expense) decimal.Decimal {
	if e.Type != models.ExpenseTypeExpense {
		return decimal.Zero
	}
	return e.Amount
}

// adjustSpent moves the category's spent cache by delta, flooring at zero.
// The sum is computed by the UPDATE against the stored value.
func adjustSpent(tx *gorm.DB, category *models.Category, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	err := tx.Model(&models.Category{}).
		Where("id = ?", category.ID).
		Update("spent", gorm.Expr("CASE WHEN spent + ? < 0 THEN 0 ELSE spent + ? END", delta, delta)).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var current models.Category
	if err := tx.Select("spent").Where("id = ?", category.ID).First(&current).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	category.Spent = current.Spent
	return nil
}
