package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"presusimple/internal/pagination"
	"presusimple/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	Month    int              `json:"month" binding:"required,month"`
	Year     int              `json:"year" binding:"required,min=2000,max=2100"`
	Envelope *decimal.Decimal `json:"envelope" binding:"required,money"`
	Sections []string         `json:"sections" binding:"omitempty,dive,section_name"`
}

// UpdateEnvelopeRequest sets a budget's envelope.
type UpdateEnvelopeRequest struct {
	Envelope *decimal.Decimal `json:"envelope" binding:"required,money"`
}

// RenameSectionRequest renames one section of a budget.
type RenameSectionRequest struct {
	OldSectionName string `json:"oldSectionName" binding:"required"`
	NewSectionName string `json:"newSectionName" binding:"required,section_name"`
}

// AddSectionRequest adds a section to a budget.
type AddSectionRequest struct {
	Name string `json:"name" binding:"required,section_name"`
}

// CreateBudget handles the creation of a new budget.
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err, ""))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, req.Month, req.Year, *req.Envelope, req.Sections)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, budget)
}

// GetBudgets handles listing budgets for the authenticated user.
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
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

	result, err := h.budgetService.GetUserBudgets(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCurrentBudget returns the budget for the latest period.
func (h *BudgetHandler) GetCurrentBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetCurrentBudget(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

// GetBudgetByID handles getting a single budget.
func (h *BudgetHandler) GetBudgetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

// UpdateEnvelope changes the amount the budget distributes.
func (h *BudgetHandler) UpdateEnvelope(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err, "envelope must be a non-negative amount"))
		return
	}

	budget, err := h.budgetService.UpdateEnvelope(userID, budgetID, *req.Envelope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

// RenameSection handles PUT /budgets/:id/update-section.
func (h *BudgetHandler) RenameSection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RenameSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err, "oldSectionName and newSectionName are required"))
		return
	}

	result, err := h.budgetService.RenameSection(userID, budgetID, req.OldSectionName, req.NewSectionName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionRenameSection, "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"from": req.OldSectionName, "to": req.NewSectionName})

	c.JSON(http.StatusOK, result)
}

// AddSection appends a section to the budget.
func (h *BudgetHandler) AddSection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err, "name is required"))
		return
	}

	section, err := h.budgetService.AddSection(userID, budgetID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, section)
}

// DeleteSection removes an empty section.
func (h *BudgetHandler) DeleteSection(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	sectionID, err := parsePathID(c, "sectionId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteSection(userID, budgetID, sectionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteSection, "section", sectionID, c.ClientIP(),
		map[string]interface{}{"budgetId": budgetID})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteBudget handles deleting a budget with everything under it.
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteBudget, "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetBudgetSummary reports spending per category from the expense ledger.
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetBudgetSummary(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
