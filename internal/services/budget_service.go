package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/models"
	"presusimple/internal/pagination"
)

const (
	minBudgetYear = 2000
	maxBudgetYear = 2100
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget sets up a month's budget with its envelope and sections.
// Totals start at zero budgeted and the whole envelope available.
func (s *budgetService) CreateBudget(
	userID string,
	month, year int,
	envelope decimal.Decimal,
	sectionNames []string,
) (*models.Budget, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < minBudgetYear || year > maxBudgetYear {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be between 2000 and 2100")
	}
	if envelope.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "envelope must not be negative")
	}

	sections := make([]models.Section, 0, len(sectionNames))
	seen := make(map[string]struct{}, len(sectionNames))
	for i, raw := range sectionNames {
		name := normalizeName(raw)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "section names must not be empty")
		}
		if _, dup := seen[name]; dup {
			return nil, apperrors.ErrDuplicateSection
		}
		seen[name] = struct{}{}
		sections = append(sections, models.Section{Name: name, DisplayName: name, Position: i})
	}

	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{
		UserID:         userID,
		Month:          month,
		Year:           year,
		Envelope:       envelope,
		TotalBudgeted:  decimal.Zero,
		TotalAvailable: envelope,
		Sections:       sections,
	}
	if err := s.db.Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns the user's budgets, most recent period first.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Sections", orderedSections).
		Order("year DESC, month DESC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	return loadBudget(s.db, userID, budgetID)
}

// GetCurrentBudget returns the user's budget for the latest year and month.
func (s *budgetService) GetCurrentBudget(userID string) (*models.Budget, error) {
	return currentBudget(s.db, userID)
}

// UpdateEnvelope changes the overall envelope and recomputes what is available.
func (s *budgetService) UpdateEnvelope(userID, budgetID string, envelope decimal.Decimal) (*models.Budget, error) {
	if envelope.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "envelope must not be negative")
	}

	var updated *models.Budget
	err := withBudgetRetry(s.db, func(tx *gorm.DB) error {
		budget, err := loadBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}

		result := tx.Model(&models.Budget{}).
			Where("id = ? AND version = ?", budget.ID, budget.Version).
			Update("envelope", envelope)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return errStaleBudget
		}

		budget.Envelope = envelope
		if err := reconcileBudget(tx, budget, false); err != nil {
			return err
		}
		updated = budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RenameSection renames one section of the budget. Categories reference the
// section by id and follow the rename without being rewritten.
func (s *budgetService) RenameSection(userID, budgetID, oldSectionName, newSectionName string) (*SectionRenameResult, error) {
	oldName := normalizeName(oldSectionName)
	newName := normalizeName(newSectionName)
	if oldName == "" || newName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "oldSectionName and newSectionName are required")
	}

	var result *SectionRenameResult
	err := withBudgetRetry(s.db, func(tx *gorm.DB) error {
		budget, err := loadBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}

		section := budget.SectionByName(oldName)
		if section == nil {
			return apperrors.ErrSectionNotFound
		}
		if other := budget.SectionByName(newName); other != nil && other.ID != section.ID {
			return apperrors.ErrDuplicateSection
		}

		if err := tx.Model(&models.Section{}).Where("id = ?", section.ID).Updates(map[string]interface{}{
			"name":         newName,
			"display_name": newName,
		}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateSection
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var moved int64
		if err := tx.Model(&models.Category{}).Where("section_id = ?", section.ID).Count(&moved).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := reconcileBudget(tx, budget, false); err != nil {
			return err
		}

		renamed, err := loadBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}
		result = &SectionRenameResult{Budget: renamed, UpdatedCategories: moved}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddSection appends a new, empty section to the budget.
func (s *budgetService) AddSection(userID, budgetID, name string) (*models.Section, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "section name is required")
	}

	budget, err := loadBudget(s.db, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.SectionByName(name) != nil {
		return nil, apperrors.ErrDuplicateSection
	}

	section := &models.Section{
		BudgetID:    budget.ID,
		Name:        name,
		DisplayName: name,
		Position:    len(budget.Sections),
	}
	if err := s.db.Create(section).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateSection
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return section, nil
}

// DeleteSection removes a section that no longer holds categories.
func (s *budgetService) DeleteSection(userID, budgetID, sectionID string) error {
	return withBudgetRetry(s.db, func(tx *gorm.DB) error {
		budget, err := loadBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}
		if budget.SectionByID(sectionID) == nil {
			return apperrors.ErrSectionNotFound
		}

		var count int64
		if err := tx.Model(&models.Category{}).Where("section_id = ?", sectionID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrSectionNotEmpty
		}

		if err := tx.Delete(&models.Section{}, "id = ?", sectionID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return reconcileBudget(tx, budget, false)
	})
}

// DeleteBudget removes the budget with its sections, categories and expenses
// in one transaction and records a budget.deleted event.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	return withBudgetRetry(s.db, func(tx *gorm.DB) error {
		budget, err := loadBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}

		expenses := tx.Where("budget_id = ? OR category_id IN (?)", budget.ID, categoryIDsOf(tx, budget.ID)).
			Delete(&models.Expense{})
		if expenses.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, expenses.Error)
		}

		categories := tx.Where("budget_id = ? OR section_id IN (?)", budget.ID, sectionIDsOf(tx, budget.ID)).
			Delete(&models.Category{})
		if categories.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, categories.Error)
		}

		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.Section{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		deleted := tx.Where("id = ? AND version = ?", budget.ID, budget.Version).Delete(&models.Budget{})
		if deleted.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, deleted.Error)
		}
		if deleted.RowsAffected == 0 {
			return errStaleBudget
		}

		return recordEvent(tx, AggregateBudget, budget.ID, EventBudgetDeleted, map[string]interface{}{
			"budgetId":          budget.ID,
			"userId":            userID,
			"month":             budget.Month,
			"year":              budget.Year,
			"categoriesDeleted": categories.RowsAffected,
			"expensesDeleted":   expenses.RowsAffected,
		})
	})
}

// GetBudgetSummary sums the expense ledger per category for display.
func (s *budgetService) GetBudgetSummary(userID, budgetID string) (*BudgetSummary, error) {
	budget, err := loadBudget(s.db, userID, budgetID)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Where("section_id IN (?)", sectionIDsOf(s.db, budget.ID)).
		Order("created_at ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := s.db.Where("user_id = ? AND budget_id = ?", userID, budget.ID).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spentByCategory := make(map[string]decimal.Decimal, len(categories))
	for _, e := range expenses {
		spentByCategory[e.CategoryID] = spentByCategory[e.CategoryID].Add(e.Signed())
	}

	summary := &BudgetSummary{
		BudgetID:       budget.ID,
		Month:          budget.Month,
		Year:           budget.Year,
		Envelope:       budget.Envelope,
		TotalBudgeted:  budget.TotalBudgeted,
		TotalAvailable: budget.TotalAvailable,
		TotalSpent:     models.SignedTotal(expenses),
		Categories:     make([]CategorySpending, 0, len(categories)),
	}
	for _, c := range categories {
		spent := spentByCategory[c.ID]
		sectionName := ""
		if section := budget.SectionByID(c.SectionID); section != nil {
			sectionName = section.Name
		}
		summary.Categories = append(summary.Categories, CategorySpending{
			CategoryID: c.ID,
			Name:       c.Name,
			SectionID:  c.SectionID,
			Section:    sectionName,
			Budgeted:   c.Budgeted,
			Spent:      spent,
			Remaining:  c.Budgeted.Sub(spent),
		})
	}
	return summary, nil
}

// currentBudget returns the user's budget for the latest period.
func currentBudget(db *gorm.DB, userID string) (*models.Budget, error) {
	var budget models.Budget
	err := db.Preload("Sections", orderedSections).
		Where("user_id = ?", userID).
		Order("year DESC, month DESC").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

func orderedSections(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, created_at ASC")
}

func sectionIDsOf(db *gorm.DB, budgetID string) *gorm.DB {
	return db.Model(&models.Section{}).Select("id").Where("budget_id = ?", budgetID)
}

func categoryIDsOf(db *gorm.DB, budgetID string) *gorm.DB {
	return db.Model(&models.Category{}).Select("id").Where("section_id IN (?)", sectionIDsOf(db, budgetID))
}
