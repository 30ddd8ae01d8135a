package models

import "time"

// OutboxEvent is a domain event written in the same transaction as the change
// it describes. The relay publishes rows with a nil PublishedAt.
type OutboxEvent struct {
	Base
	AggregateType string     `gorm:"not null" json:"aggregateType"`
	AggregateID   string     `gorm:"type:uuid;not null;index" json:"aggregateId"`
	EventType     string     `gorm:"not null" json:"eventType"`
	Payload       string     `gorm:"type:text;not null" json:"payload"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	PublishedAt   *time.Time `gorm:"index" json:"publishedAt,omitempty"`
}
