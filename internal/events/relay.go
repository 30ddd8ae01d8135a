package events

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"presusimple/internal/logger"
	"presusimple/internal/models"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 50
)

// Relay polls the outbox and publishes unpublished events in creation order.
type Relay struct {
	db        *gorm.DB
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewRelay creates a relay. Non-positive interval or batch size fall back to
// defaults.
func NewRelay(db *gorm.DB, publisher Publisher, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Relay{
		db:        db,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run flushes the outbox every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	log := logger.Named("outbox")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Infow("outbox relay started", "interval", r.interval.String(), "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			log.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				log.Warnw("outbox flush failed", "error", err)
			}
		}
	}
}

// Flush publishes up to one batch and returns how many events went out. It
// stops at the first failure so later events never overtake an earlier one;
// the failed row keeps its place and its attempt count goes up.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	var pending []models.OutboxEvent
	if err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC, id ASC").
		Limit(r.batchSize).
		Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("load outbox: %w", err)
	}

	published := 0
	for i := range pending {
		event := &pending[i]
		msg := Message{
			ID:            event.ID,
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			AggregateID:   event.AggregateID,
			Body:          []byte(event.Payload),
			OccurredAt:    event.CreatedAt,
		}

		if err := r.publisher.Publish(ctx, msg); err != nil {
			if uerr := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
				Where("id = ?", event.ID).
				Update("attempts", gorm.Expr("attempts + 1")).Error; uerr != nil {
				logger.Named("outbox").Errorw("failed to record publish attempt", "error", uerr, "event_id", event.ID)
			}
			return published, fmt.Errorf("publish %s %s: %w", event.EventType, event.ID, err)
		}

		if err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
			Where("id = ?", event.ID).
			Updates(map[string]interface{}{
				"published_at": r.now(),
				"attempts":     gorm.Expr("attempts + 1"),
			}).Error; err != nil {
			return published, fmt.Errorf("mark %s published: %w", event.ID, err)
		}
		published++
	}
	return published, nil
}
