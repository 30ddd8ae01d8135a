package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/models"
)

// Domain event types written to the outbox.
const (
	EventCategoryDeleted = "category.deleted"
	EventBudgetDeleted   = "budget.deleted"
	EventBudgetReset     = "budget.reset"
)

// Aggregate types carried on outbox events.
const (
	AggregateBudget   = "budget"
	AggregateCategory = "category"
)

// recordEvent appends an event to the outbox inside tx so it commits or rolls
// back together with the change it describes.
func recordEvent(tx *gorm.DB, aggregateType, aggregateID, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	event := &models.OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       string(data),
	}
	if err := tx.Create(event).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
