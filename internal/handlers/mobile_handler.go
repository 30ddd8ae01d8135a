package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/services"
)

// MobileAuthHandler lets a signed-in web session hand its identity to the
// mobile app through a short-lived one-time code.
type MobileAuthHandler struct {
	codes       services.MobileAuthServicer
	userService services.UserServicer
}

// NewMobileAuthHandler creates a new MobileAuthHandler.
func NewMobileAuthHandler(codes services.MobileAuthServicer, userService services.UserServicer) *MobileAuthHandler {
	return &MobileAuthHandler{codes: codes, userService: userService}
}

// ExchangeCodeRequest carries the one-time code from the mobile app.
type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// IssueCode creates a code for the authenticated user.
func (h *MobileAuthHandler) IssueCode(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	code, err := h.codes.IssueCode(userID, getUserEmail(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

// ExchangeCode consumes a code and returns tokens for its user.
func (h *MobileAuthHandler) ExchangeCode(c *gin.Context) {
	var req ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.ErrInvalidExchangeCode)
		return
	}

	code, err := h.codes.ExchangeCode(req.Code)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(code.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidExchangeCode)
		return
	}

	resp, err := issueTokens(h.userService, user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
