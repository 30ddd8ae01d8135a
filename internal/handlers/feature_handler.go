package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"presusimple/internal/services"
)

// FeatureHandler exposes feature flags.
type FeatureHandler struct {
	flags services.FeatureFlagServicer
}

// NewFeatureHandler creates a new FeatureHandler.
func NewFeatureHandler(flags services.FeatureFlagServicer) *FeatureHandler {
	return &FeatureHandler{flags: flags}
}

// UpsertFlagRequest is the desired state of a flag.
type UpsertFlagRequest struct {
	Description       string   `json:"description" binding:"max=255"`
	Enabled           bool     `json:"enabled"`
	RolloutPercentage int      `json:"rolloutPercentage" binding:"min=0,max=100"`
	AllowedUserIDs    []string `json:"allowedUserIds" binding:"omitempty,dive,uuid"`
}

// GetFeatures returns every flag evaluated for the caller.
func (h *FeatureHandler) GetFeatures(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	flags, err := h.flags.EvaluateAll(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"features": flags})
}

// UpsertFlag handles PUT /internal/features/:key.
func (h *FeatureHandler) UpsertFlag(c *gin.Context) {
	var req UpsertFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err, "rolloutPercentage must be between 0 and 100"))
		return
	}

	flag, err := h.flags.UpsertFlag(c.Param("key"), services.FeatureFlagInput{
		Description:       req.Description,
		Enabled:           req.Enabled,
		RolloutPercentage: req.RolloutPercentage,
		AllowedUserIDs:    req.AllowedUserIDs,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":               flag.Key,
		"description":       flag.Description,
		"enabled":           flag.Enabled,
		"rolloutPercentage": flag.RolloutPercentage,
		"allowedUserIds":    flag.AllowList(),
	})
}
