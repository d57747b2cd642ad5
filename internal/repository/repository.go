package repository

import (
	"context"
	"errors"
	"time"

	"github.com/neurowatch-systems/neurowatch/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserExists     = errors.New("user already exists")
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceExists   = errors.New("device already registered")
)

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	CreateDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)
	ListDevicesByOwner(ctx context.Context, userID string) ([]*models.Device, error)
	UpdateDeviceLabel(ctx context.Context, deviceID, label string) error
	DeleteDevice(ctx context.Context, deviceID string) error

	InsertTelemetry(ctx context.Context, event *models.TelemetryEvent) error
	// QueryAbnormal returns abnormal-flagged readings for the given devices
	// with observed_at in [from, to], bounds inclusive.
	QueryAbnormal(ctx context.Context, deviceIDs []string, from, to time.Time) ([]*models.TelemetryEvent, error)
	ListTelemetryByDevice(ctx context.Context, deviceID string, limit int) ([]*models.TelemetryEvent, error)

	InsertCorrelatedEvent(ctx context.Context, event *models.CorrelatedEvent) error
	// FindRecentCorrelatedEvent returns the newest correlated event for the
	// user with triggered_at in [from, to], or nil when none exists.
	FindRecentCorrelatedEvent(ctx context.Context, userID string, from, to time.Time) (*models.CorrelatedEvent, error)
	ListCorrelatedEvents(ctx context.Context, userID string) ([]*models.CorrelatedEvent, error)
	LatestCorrelatedEvent(ctx context.Context, userID string) (*models.CorrelatedEvent, error)
}
