package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/neurowatch-systems/neurowatch/internal/models"
)

// InMemoryRepository is a map-backed Repository for development and tests.
type InMemoryRepository struct {
	users       map[string]*models.User
	usersByName map[string]*models.User
	devices     map[string]*models.Device
	telemetry   []*models.TelemetryEvent
	events      []*models.CorrelatedEvent
	mu          sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:       make(map[string]*models.User),
		usersByName: make(map[string]*models.User),
		devices:     make(map[string]*models.Device),
	}
}

func (r *InMemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByName[user.Username]; exists {
		return ErrUserExists
	}

	r.users[user.ID] = user
	r.usersByName[user.Username] = user
	return nil
}

func (r *InMemoryRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByName[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *InMemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *InMemoryRepository) ListUsers(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *InMemoryRepository) CreateDevice(_ context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[device.DeviceID]; exists {
		return ErrDeviceExists
	}

	r.devices[device.DeviceID] = device
	return nil
}

func (r *InMemoryRepository) GetDevice(_ context.Context, deviceID string) (*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, exists := r.devices[deviceID]
	if !exists {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

func (r *InMemoryRepository) ListDevicesByOwner(_ context.Context, userID string) ([]*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := []*models.Device{}
	for _, d := range r.devices {
		if d.OwnerID == userID {
			devices = append(devices, d)
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.Before(devices[j].CreatedAt)
	})
	return devices, nil
}

func (r *InMemoryRepository) UpdateDeviceLabel(_ context.Context, deviceID, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, exists := r.devices[deviceID]
	if !exists {
		return ErrDeviceNotFound
	}

	device.Label = label
	return nil
}

func (r *InMemoryRepository) DeleteDevice(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[deviceID]; !exists {
		return ErrDeviceNotFound
	}

	delete(r.devices, deviceID)
	return nil
}

func (r *InMemoryRepository) InsertTelemetry(_ context.Context, event *models.TelemetryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.telemetry = append(r.telemetry, event)
	return nil
}

func (r *InMemoryRepository) QueryAbnormal(_ context.Context, deviceIDs []string, from, to time.Time) ([]*models.TelemetryEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		wanted[id] = struct{}{}
	}

	events := []*models.TelemetryEvent{}
	for _, e := range r.telemetry {
		if !e.SeizureFlag {
			continue
		}
		if _, ok := wanted[e.DeviceID]; !ok {
			continue
		}
		// Bounds are inclusive on both ends.
		if e.ObservedAt.Before(from) || e.ObservedAt.After(to) {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *InMemoryRepository) ListTelemetryByDevice(_ context.Context, deviceID string, limit int) ([]*models.TelemetryEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []*models.TelemetryEvent{}
	for _, e := range r.telemetry {
		if e.DeviceID == deviceID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ObservedAt.After(events[j].ObservedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *InMemoryRepository) InsertCorrelatedEvent(_ context.Context, event *models.CorrelatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *InMemoryRepository) FindRecentCorrelatedEvent(_ context.Context, userID string, from, to time.Time) (*models.CorrelatedEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.CorrelatedEvent
	for _, e := range r.events {
		if e.UserID != userID {
			continue
		}
		if e.TriggeredAt.Before(from) || e.TriggeredAt.After(to) {
			continue
		}
		if found == nil || e.TriggeredAt.After(found.TriggeredAt) {
			found = e
		}
	}
	return found, nil
}

func (r *InMemoryRepository) ListCorrelatedEvents(_ context.Context, userID string) ([]*models.CorrelatedEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []*models.CorrelatedEvent{}
	for _, e := range r.events {
		if e.UserID == userID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].TriggeredAt.After(events[j].TriggeredAt)
	})
	return events, nil
}

func (r *InMemoryRepository) LatestCorrelatedEvent(_ context.Context, userID string) (*models.CorrelatedEvent, error) {
	var latest *models.CorrelatedEvent

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		if e.UserID != userID {
			continue
		}
		if latest == nil || e.TriggeredAt.After(latest.TriggeredAt) {
			latest = e
		}
	}
	return latest, nil
}
