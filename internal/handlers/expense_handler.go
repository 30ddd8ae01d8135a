package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/models"
	"presusimple/internal/pagination"
	"presusimple/internal/services"
)

// ExpenseHandler handles expense ledger requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpenseRequest represents the request payload for recording an expense.
type CreateExpenseRequest struct {
	CategoryID  string           `json:"categoryId" binding:"required,uuid"`
	Amount      *decimal.Decimal `json:"amount" binding:"required,positive_money"`
	Description string           `json:"description" binding:"max=255"`
	Date        *time.Time       `json:"date"`
	Type        string           `json:"type" binding:"omitempty,expense_type"`
}

// UpdateExpenseRequest carries the fields to change; omitted fields stay as they are.
type UpdateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"omitempty,positive_money"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
	Date        *time.Time       `json:"date"`
	Type        *string          `json:"type" binding:"omitempty,expense_type"`
}

// CreateExpense handles POST /expenses.
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err, "categoryId and a positive amount are required"))
		return
	}

	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	expense, err := h.expenseService.CreateExpense(userID, req.CategoryID, *req.Amount, req.Description, date, models.ExpenseType(req.Type))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, expense)
}

// GetExpenses handles GET /expenses with optional filters.
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err, ""))
		return
	}

	filter, err := parseExpenseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.GetUserExpenses(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseExpenseFilter(c *gin.Context) (services.ExpenseFilter, error) {
	var filter services.ExpenseFilter
	var err error

	if filter.BudgetID, err = optionalQueryID(c, "budgetId"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = optionalQueryID(c, "categoryId"); err != nil {
		return filter, err
	}

	if v := c.Query("type"); v != "" {
		t := models.ExpenseType(v)
		if !t.Valid() {
			return filter, apperrors.ErrInvalidExpenseType
		}
		filter.Type = &t
	}

	if v := c.Query("from"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	return filter, nil
}

// GetExpenseByID handles GET /expenses/:id.
func (h *ExpenseHandler) GetExpenseByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// UpdateExpense handles PUT /expenses/:id.
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err, ""))
		return
	}

	update := services.ExpenseUpdate{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	}
	if req.Type != nil {
		t := models.ExpenseType(*req.Type)
		update.Type = &t
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, expense)
}

// DeleteExpense handles DELETE /expenses/:id.
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
