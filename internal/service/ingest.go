package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/neurowatch-systems/neurowatch/internal/correlation"
	"github.com/neurowatch-systems/neurowatch/internal/logging"
	"github.com/neurowatch-systems/neurowatch/internal/metrics"
	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/notifier"
	"github.com/neurowatch-systems/neurowatch/internal/ratelimit"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
)

var (
	ErrDeviceNotRegistered = errors.New("device not registered")
	ErrRateLimited         = errors.New("device is posting too fast")
)

// IngestService is the ingestion path: it validates the posting device,
// persists every reading, and hands abnormal-flagged readings to the
// correlation engine. Normal readings are stored but never reach the
// engine.
type IngestService struct {
	repo      repository.Repository
	engine    *correlation.Engine
	publisher notifier.Publisher
	limiter   ratelimit.RateLimiter
	logger    *logging.Logger
}

func NewIngestService(repo repository.Repository, engine *correlation.Engine, publisher notifier.Publisher, limiter ratelimit.RateLimiter, logger *logging.Logger) *IngestService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		repo:      repo,
		engine:    engine,
		publisher: publisher,
		limiter:   limiter,
		logger:    logger,
	}
}

// Ingest stores one reading and returns the correlation result for
// abnormal-flagged readings. For normal readings the result outcome is
// empty and only the write happens.
func (s *IngestService) Ingest(ctx context.Context, req *models.TelemetryRequest) (correlation.Result, error) {
	if _, err := s.repo.GetDevice(ctx, req.DeviceID); err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			metrics.TelemetryTotal.WithLabelValues("rejected").Inc()
			return correlation.Result{}, ErrDeviceNotRegistered
		}
		metrics.TelemetryTotal.WithLabelValues("error").Inc()
		return correlation.Result{}, err
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, req.DeviceID)
		if err != nil {
			// A broken limiter must not drop telemetry; log and continue.
			s.logger.WarnContext(ctx, "rate limiter unavailable", "error", err)
		} else if !allowed {
			metrics.RateLimitHits.WithLabelValues(req.DeviceID).Inc()
			return correlation.Result{}, ErrRateLimited
		}
	}

	id, _ := uuid.NewV7()
	event := &models.TelemetryEvent{
		ID:          id.String(),
		DeviceID:    req.DeviceID,
		ObservedAt:  time.UnixMilli(req.TimestampMS).UTC(),
		SeizureFlag: req.SeizureFlag,
		Attributes:  req.Sensors,
	}

	if err := s.repo.InsertTelemetry(ctx, event); err != nil {
		metrics.TelemetryTotal.WithLabelValues("error").Inc()
		return correlation.Result{}, err
	}
	metrics.TelemetryTotal.WithLabelValues("stored").Inc()

	if !event.SeizureFlag {
		return correlation.Result{}, nil
	}

	start := time.Now()
	result, err := s.engine.HandleAbnormalEvent(ctx, event)
	metrics.CorrelationDuration.Observe(time.Since(start).Seconds())
	metrics.CorrelationOutcomes.WithLabelValues(string(result.Outcome)).Inc()

	if err != nil {
		s.logger.ErrorContext(ctx, "correlation failed",
			"device_id", event.DeviceID,
			"outcome", string(result.Outcome),
			"error", err,
		)
		return result, err
	}

	if result.Outcome == correlation.OutcomeConfirmed && s.publisher != nil {
		if pubErr := s.publisher.PublishSeizureConfirmed(ctx, result.Event); pubErr != nil {
			// The event is already persisted; fan-out failure is logged,
			// not surfaced to the posting device.
			metrics.AlertPublishErrors.Inc()
			s.logger.ErrorContext(ctx, "failed to publish seizure alert",
				"event_id", result.Event.ID, "error", pubErr)
		} else {
			metrics.AlertsPublished.Inc()
		}
	}

	return result, nil
}
