package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/models"
	"presusimple/internal/uuid"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a category in the section identified by sectionRef and
// reconciles the owning budget in the same transaction. The owning budget is
// budgetID when given, otherwise the user's most recent budget that has a
// section matching sectionRef by id or name.
func (s *categoryService) CreateCategory(
	userID string,
	name string,
	budgeted decimal.Decimal,
	sectionRef string,
	budgetID *string,
) (*models.Category, error) {
	name = normalizeName(name)
	sectionRef = strings.TrimSpace(sectionRef)
	if name == "" || sectionRef == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, budgeted and sectionId are required")
	}
	if budgeted.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgeted must not be negative")
	}

	var created *models.Category
	err := withBudgetRetry(s.db, func(tx *gorm.DB) error {
		budget, section, err := resolveOwningSection(tx, userID, sectionRef, budgetID)
		if err != nil {
			return err
		}

		if err := ensureUniqueCategoryName(tx, section.ID, name, ""); err != nil {
			return err
		}

		category := &models.Category{
			UserID:    userID,
			BudgetID:  budget.ID,
			SectionID: section.ID,
			Name:      name,
			Budgeted:  budgeted,
			Spent:     decimal.Zero,
		}
		if err := tx.Create(category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateCategory
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := reconcileBudget(tx, budget, true); err != nil {
			return err
		}

		category.Section = section
		created = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListCategories returns the user's categories, optionally limited to one budget.
func (s *categoryService) ListCategories(userID string, budgetID *string) ([]models.Category, error) {
	query := s.db.Preload("Section").Where("user_id = ?", userID)
	if budgetID != nil && *budgetID != "" {
		query = query.Where("budget_id = ?", *budgetID)
	}

	categories := []models.Category{}
	if err := query.Order("created_at ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Preload("Section").Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory replaces a category's name and allocation and reconciles its
// budget. A zero allocation is valid.
func (s *categoryService) UpdateCategory(userID, categoryID, name string, budgeted decimal.Decimal) (*models.Category, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name and budgeted are required")
	}
	if budgeted.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgeted must not be negative")
	}

	var updated models.Category
	err := withBudgetRetry(s.db, func(tx *gorm.DB) error {
		category, err := findCategory(tx, userID, categoryID)
		if err != nil {
			return err
		}

		if name != category.Name {
			if err := ensureUniqueCategoryName(tx, category.SectionID, name, category.ID); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Category{}).Where("id = ?", category.ID).Updates(map[string]interface{}{
			"name":     name,
			"budgeted": budgeted,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateCategory
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		budget, err := loadBudget(tx, userID, category.BudgetID)
		if err != nil {
			return err
		}
		if err := reconcileBudget(tx, budget, false); err != nil {
			return err
		}

		if err := tx.Preload("Section").First(&updated, "id = ?", category.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory removes a category together with its expenses and
// reconciles the budget from the remaining categories.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	return withBudgetRetry(s.db, func(tx *gorm.DB) error {
		category, err := findCategory(tx, userID, categoryID)
		if err != nil {
			return err
		}

		expenses := tx.Where("category_id = ?", category.ID).Delete(&models.Expense{})
		if expenses.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, expenses.Error)
		}

		if err := tx.Delete(&models.Category{}, "id = ?", category.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		budget, err := loadBudget(tx, userID, category.BudgetID)
		if err != nil {
			return err
		}
		if err := reconcileBudget(tx, budget, false); err != nil {
			return err
		}

		return recordEvent(tx, AggregateCategory, category.ID, EventCategoryDeleted, map[string]interface{}{
			"categoryId":      category.ID,
			"budgetId":        budget.ID,
			"userId":          userID,
			"name":            category.Name,
			"expensesDeleted": expenses.RowsAffected,
			"totalBudgeted":   budget.TotalBudgeted,
			"totalAvailable":  budget.TotalAvailable,
		})
	})
}

func findCategory(tx *gorm.DB, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// resolveOwningSection finds the budget and section a new category belongs to.
func resolveOwningSection(tx *gorm.DB, userID, sectionRef string, budgetID *string) (*models.Budget, *models.Section, error) {
	if budgetID != nil && *budgetID != "" {
		budget, err := loadBudget(tx, userID, *budgetID)
		if err != nil {
			return nil, nil, err
		}
		section := budget.SectionByID(sectionRef)
		if section == nil {
			section = budget.SectionByName(normalizeName(sectionRef))
		}
		if section == nil {
			return nil, nil, apperrors.ErrSectionNotFound
		}
		return budget, section, nil
	}

	query := tx.Model(&models.Section{}).
		Joins("JOIN budgets ON budgets.id = sections.budget_id").
		Where("budgets.user_id = ?", userID)
	if uuid.IsValid(sectionRef) {
		query = query.Where("sections.id = ?", sectionRef)
	} else {
		name := normalizeName(sectionRef)
		query = query.Where("sections.name = ? OR sections.display_name = ?", name, name)
	}

	var section models.Section
	if err := query.Order("budgets.year DESC, budgets.month DESC").First(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrSectionNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget, err := loadBudget(tx, userID, section.BudgetID)
	if err != nil {
		return nil, nil, err
	}
	return budget, budget.SectionByID(section.ID), nil
}

// ensureUniqueCategoryName rejects a name already used in the section. The
// unique index backs this check for racing writers.
func ensureUniqueCategoryName(tx *gorm.DB, sectionID, name, excludeID string) error {
	query := tx.Model(&models.Category{}).Where("section_id = ? AND name = ?", sectionID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}
