package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"presusimple/internal/client"
	apperrors "presusimple/internal/errors"
	"presusimple/internal/logger"
	"presusimple/internal/models"
)

// resetService runs the end-of-period reset.
type resetService struct {
	db       *gorm.DB
	users    UserDirectory
	notifier ResetNotifier
}

// NewResetService creates a new ResetServicer. notifier may be nil.
func NewResetService(db *gorm.DB, users UserDirectory, notifier ResetNotifier) ResetServicer {
	return &resetService{db: db, users: users, notifier: notifier}
}

// ResetBudget zeroes spending on the user's current budget while keeping every
// allocation. The user is resolved from the session email through the users
// directory. Zeroing, deleting expenses, recomputing totals and saving the
// snapshot commit together.
func (s *resetService) ResetBudget(ctx context.Context, email string) (*models.ResetSnapshot, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.ErrUnauthorized
	}

	userID, err := s.users.LookupUserID(ctx, email)
	if err != nil {
		if errors.Is(err, client.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrUpstreamUnavailable, err)
	}

	current, err := currentBudget(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	var snapshot *models.ResetSnapshot
	err = withBudgetRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		budget, err := loadBudget(tx, userID, current.ID)
		if err != nil {
			return err
		}

		var categories []models.Category
		if err := tx.Where("section_id IN (?)", sectionIDsOf(tx, budget.ID)).
			Order("created_at ASC").
			Find(&categories).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var expenses []models.Expense
		if err := tx.Where("user_id = ?", userID).Find(&expenses).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		summaries := make(models.CategorySummaries, 0, len(categories))
		for _, c := range categories {
			sectionName := ""
			if section := budget.SectionByID(c.SectionID); section != nil {
				sectionName = section.Name
			}
			summaries = append(summaries, models.CategorySummary{
				CategoryID: c.ID,
				Name:       c.Name,
				SectionID:  c.SectionID,
				Section:    sectionName,
				Budgeted:   c.Budgeted,
				Spent:      c.Spent,
			})
		}

		// Every expense of the user goes, so every spent cache of the user is emptied.
		if err := tx.Model(&models.Category{}).
			Where("user_id = ?", userID).
			Update("spent", decimal.Zero).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Expense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := reconcileBudget(tx, budget, false); err != nil {
			return err
		}

		snapshot = &models.ResetSnapshot{
			UserID:         userID,
			BudgetID:       budget.ID,
			Month:          budget.Month,
			Year:           budget.Year,
			TotalSpent:     models.SignedTotal(expenses),
			TotalBudgeted:  budget.TotalBudgeted,
			TotalAvailable: budget.TotalAvailable,
			ExpenseCount:   len(expenses),
			Categories:     summaries,
		}
		if err := tx.Create(snapshot).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return recordEvent(tx, AggregateBudget, budget.ID, EventBudgetReset, map[string]interface{}{
			"budgetId":       budget.ID,
			"userId":         userID,
			"snapshotId":     snapshot.ID,
			"expenseCount":   snapshot.ExpenseCount,
			"totalSpent":     snapshot.TotalSpent,
			"totalBudgeted":  snapshot.TotalBudgeted,
			"totalAvailable": snapshot.TotalAvailable,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyReset(email, snapshot); err != nil {
			logger.Get().Warnw("failed to send reset summary",
				"error", err,
				"user_id", userID,
				"snapshot_id", snapshot.ID,
			)
		}
	}

	return snapshot, nil
}

// ListSnapshots returns the user's reset snapshots, newest first.
func (s *resetService) ListSnapshots(userID string) ([]models.ResetSnapshot, error) {
	snapshots := []models.ResetSnapshot{}
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snapshots, nil
}

// GetSnapshot returns one of the user's reset snapshots.
func (s *resetService) GetSnapshot(userID, snapshotID string) (*models.ResetSnapshot, error) {
	var snapshot models.ResetSnapshot
	if err := s.db.Where("id = ? AND user_id = ?", snapshotID, userID).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snapshot, nil
}
