package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"presusimple/internal/logger"
	"presusimple/internal/models"
)

// Audit actions recorded for destructive or sensitive operations.
const (
	AuditActionDeleteCategory = "DELETE_CATEGORY"
	AuditActionDeleteBudget   = "DELETE_BUDGET"
	AuditActionDeleteSection  = "DELETE_SECTION"
	AuditActionRenameSection  = "RENAME_SECTION"
	AuditActionResetBudget    = "RESET_BUDGET"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Failures are logged and never returned.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
