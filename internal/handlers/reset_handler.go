package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/export"
	"presusimple/internal/services"
)

// ResetHandler handles the end-of-period reset and its snapshots.
type ResetHandler struct {
	resetService services.ResetServicer
	auditService services.AuditServicer
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(resetService services.ResetServicer, auditService services.AuditServicer) *ResetHandler {
	return &ResetHandler{resetService: resetService, auditService: auditService}
}

// ResetBudget handles POST /budgets/reset for the session user.
func (h *ResetHandler) ResetBudget(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.resetService.ResetBudget(c.Request.Context(), getUserEmail(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(snapshot.UserID, services.AuditActionResetBudget, "budget", snapshot.BudgetID, c.ClientIP(),
		map[string]interface{}{"snapshotId": snapshot.ID, "expenseCount": snapshot.ExpenseCount})

	c.JSON(http.StatusOK, snapshot)
}

// ListSnapshots returns the caller's reset history.
func (h *ResetHandler) ListSnapshots(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshots, err := h.resetService.ListSnapshots(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshots)
}

// ExportSnapshot streams a snapshot as ?format=xlsx (default) or csv.
func (h *ResetHandler) ExportSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshotID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", export.FormatXLSX))
	contentType := export.ContentType(format)
	if contentType == "" {
		respondWithError(c, apperrors.ErrUnsupportedExportFormat)
		return
	}

	snapshot, err := h.resetService.GetSnapshot(userID, snapshotID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, snapshot, format); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(snapshot, format)))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
