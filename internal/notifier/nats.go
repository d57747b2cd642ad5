// Package notifier publishes confirmed correlated events to NATS so
// downstream channels (caregiver paging, dashboards) can react without
// polling the event store.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neurowatch-systems/neurowatch/internal/models"
)

// SubjectSeizureConfirmed carries one message per persisted correlated event.
const SubjectSeizureConfirmed = "neurowatch.seizure.confirmed"

// SeizureAlert is the wire payload published on SubjectSeizureConfirmed.
type SeizureAlert struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	TriggeredAt time.Time `json:"triggered_at"`
	DeviceIDs   []string  `json:"device_ids"`
}

// Publisher is the narrow surface the ingest service needs.
type Publisher interface {
	PublishSeizureConfirmed(ctx context.Context, event *models.CorrelatedEvent) error
	Close()
}

// NATSPublisher implements Publisher over a core NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// Config holds NATS connection settings.
type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "neurowatch",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NewNATSPublisher connects to NATS with the given configuration.
func NewNATSPublisher(cfg Config) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

// PublishSeizureConfirmed publishes one alert for a persisted event.
func (p *NATSPublisher) PublishSeizureConfirmed(ctx context.Context, event *models.CorrelatedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	alert := SeizureAlert{
		EventID:     event.ID,
		UserID:      event.UserID,
		TriggeredAt: event.TriggeredAt,
		DeviceIDs:   event.DeviceIDs,
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	return p.conn.Publish(SubjectSeizureConfirmed, data)
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	p.conn.Close()
}
