package service

import (
	"context"

	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
)

// historyLimit caps device history responses, newest readings first.
const historyLimit = 1000

type EventService struct {
	repo repository.Repository
}

func NewEventService(repo repository.Repository) *EventService {
	return &EventService{repo: repo}
}

// DeviceHistory returns the latest readings for a device the user owns.
func (s *EventService) DeviceHistory(ctx context.Context, userID, deviceID string) ([]*models.TelemetryEvent, error) {
	device, err := s.repo.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != userID {
		return nil, ErrNotOwner
	}

	return s.repo.ListTelemetryByDevice(ctx, deviceID, historyLimit)
}

// ListCorrelatedEvents returns all correlated events for the user,
// newest first.
func (s *EventService) ListCorrelatedEvents(ctx context.Context, userID string) ([]*models.CorrelatedEvent, error) {
	return s.repo.ListCorrelatedEvents(ctx, userID)
}

// LatestCorrelatedEvent returns the newest correlated event for the
// user, or nil when none exists.
func (s *EventService) LatestCorrelatedEvent(ctx context.Context, userID string) (*models.CorrelatedEvent, error) {
	return s.repo.LatestCorrelatedEvent(ctx, userID)
}
