package correlation

import (
	"context"
	"errors"
	"time"

	"github.com/neurowatch-systems/neurowatch/internal/models"
)

var (
	// ErrUnknownDevice means the triggering device is not registered.
	// The ingestion path rejects unregistered devices before storing
	// telemetry, so seeing this indicates a caller bug or a race with
	// device deletion.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrStoreUnavailable means a dependency could not answer within its
	// timeout or returned an infrastructure error. It is never collapsed
	// into a negative correlation result.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPersistFailed means quorum and dedup checks passed but the
	// correlated event could not be written. The decision is still
	// reported in the Result; compensation is the caller's policy.
	ErrPersistFailed = errors.New("failed to persist correlated event")
)

// Outcome classifies the result of handling one abnormal-flagged event.
type Outcome string

const (
	OutcomeNoCorrelation       Outcome = "no_correlation"
	OutcomeSuppressedDuplicate Outcome = "suppressed_duplicate"
	OutcomeConfirmed           Outcome = "confirmed"
	OutcomeUnknownDevice       Outcome = "unknown_device"
	OutcomeStoreUnavailable    Outcome = "store_unavailable"
	OutcomePersistFailed       Outcome = "persist_failed"
)

// Result is returned for every invocation. ContributingDevices is set
// when quorum was reached (Confirmed and PersistFailed), so a failed
// write does not lose the detection from the caller's perspective.
type Result struct {
	Outcome             Outcome
	UserID              string
	ContributingDevices []string
	Event               *models.CorrelatedEvent
}

// DeviceDirectory maps devices to their owner and owners to their fleet.
type DeviceDirectory interface {
	ResolveOwner(ctx context.Context, deviceID string) (string, error)
	DevicesOf(ctx context.Context, userID string) ([]string, error)
}

// TelemetryStore reads abnormal-flagged readings. Bounds are inclusive.
type TelemetryStore interface {
	QueryAbnormal(ctx context.Context, deviceIDs []string, from, to time.Time) ([]*models.TelemetryEvent, error)
}

// EventStore persists and looks up correlated events.
type EventStore interface {
	FindRecentCorrelatedEvent(ctx context.Context, userID string, from, to time.Time) (*models.CorrelatedEvent, error)
	InsertCorrelatedEvent(ctx context.Context, event *models.CorrelatedEvent) error
}
