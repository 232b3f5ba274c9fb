// internal/services/event_service.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/merchstudio/photostudio-backend/internal/models"
	"github.com/merchstudio/photostudio-backend/internal/utils"
)

// EventService persists studio analytics events. Recording is best
// effort: without a database it logs and moves on, and persistence
// failures never reach the editing flow.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) Record(ctx context.Context, event *models.StudioEvent) {
	if s.db == nil {
		logrus.WithFields(logrus.Fields{
			"event":       event.EventName,
			"instance_id": event.InstanceID,
		}).Debug("Event recording skipped, no database configured")
		return
	}

	go func() {
		if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(event).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"event":       event.EventName,
				"instance_id": event.InstanceID,
			}).WithError(err).Warn("Failed to record studio event")
		}
	}()
}

// ListEvents returns the recorded events of one instance for the activity
// feed, newest first unless the caller sorts otherwise.
func (s *EventService) ListEvents(instanceID string, params utils.PaginationParams) (*utils.PaginationResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not configured")
	}

	var events []models.StudioEvent
	var total int64

	query := s.db.Model(&models.StudioEvent{}).Where("instance_id = ?", instanceID)

	if params.Search != "" {
		query = query.Where("event_name ILIKE ? OR product_id ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "event_name", "product_id"})
	query = utils.ApplyPagination(query, params)

	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := utils.CreatePaginationResult(events, total, params)
	return &result, nil
}
