package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/logger"
	"presusimple/internal/models"
)

// maxBudgetAttempts bounds how often a unit of work is replayed after losing
// the optimistic version race on its budget.
const maxBudgetAttempts = 3

// errStaleBudget signals that the budget row changed between read and write.
var errStaleBudget = errors.New("budget version changed during update")

// BudgetTotals are the figures derived from a budget's categories.
type BudgetTotals struct {
	TotalBudgeted  decimal.Decimal `json:"totalBudgeted"`
	TotalAvailable decimal.Decimal `json:"totalAvailable"`
}

// ComputeTotals sums category allocations and derives the unallocated part of
// the envelope. With clamp set, a negative remainder is reported as zero.
func ComputeTotals(envelope decimal.Decimal, categories []models.Category, clamp bool) BudgetTotals {
	budgeted := decimal.Zero
	for _, c := range categories {
		budgeted = budgeted.Add(c.Budgeted)
	}

	available := envelope.Sub(budgeted)
	if clamp && available.IsNegative() {
		available = decimal.Zero
	}

	return BudgetTotals{TotalBudgeted: budgeted, TotalAvailable: available}
}

// reconcileBudget recomputes totals from the categories of the budget's
// current sections and writes them guarded by the version the caller read.
// It must run inside the caller's transaction.
func reconcileBudget(tx *gorm.DB, budget *models.Budget, clamp bool) error {
	var categories []models.Category
	if err := tx.Where("section_id IN (?)", sectionIDsOf(tx, budget.ID)).Find(&categories).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := ComputeTotals(budget.Envelope, categories, clamp)

	result := tx.Model(&models.Budget{}).
		Where("id = ? AND version = ?", budget.ID, budget.Version).
		Updates(map[string]interface{}{
			"total_budgeted":  totals.TotalBudgeted,
			"total_available": totals.TotalAvailable,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return errStaleBudget
	}

	budget.TotalBudgeted = totals.TotalBudgeted
	budget.TotalAvailable = totals.TotalAvailable
	budget.Version++
	return nil
}

// withBudgetRetry runs fn in a transaction, replaying it when reconciliation
// lost the version race. fn must re-read the budget on every attempt.
func withBudgetRetry(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	for attempt := 1; ; attempt++ {
		err := db.Transaction(fn)
		if !errors.Is(err, errStaleBudget) {
			return apperrors.Ensure(err)
		}
		if attempt == maxBudgetAttempts {
			return apperrors.Wrap(apperrors.ErrConcurrentUpdate, err)
		}
		logger.Get().Warnw("budget changed concurrently, retrying", "attempt", attempt)
	}
}

// loadBudget reads a user's budget with its sections in display order.
func loadBudget(db *gorm.DB, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	err := db.Preload("Sections", orderedSections).
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// normalizeName trims and NFC-normalizes a user-supplied name so visually
// identical names compare equal.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
