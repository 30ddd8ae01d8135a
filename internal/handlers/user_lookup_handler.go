package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/services"
)

// UserLookupHandler serves the internal email to user id lookup.
type UserLookupHandler struct {
	userService services.UserServicer
}

// NewUserLookupHandler creates a new UserLookupHandler.
func NewUserLookupHandler(userService services.UserServicer) *UserLookupHandler {
	return &UserLookupHandler{userService: userService}
}

// Lookup returns {id, email} for ?email=.
func (h *UserLookupHandler) Lookup(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required"))
		return
	}

	user, err := h.userService.GetUserByEmail(email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
}
