package correlation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neurowatch-systems/neurowatch/internal/logging"
	"github.com/neurowatch-systems/neurowatch/internal/models"
)

// Engine decides whether an abnormal-flagged reading, together with
// recent readings from the user's other devices, constitutes a
// corroborated seizure episode. Its only side effect is inserting a
// CorrelatedEvent into the event store.
type Engine struct {
	directory DeviceDirectory
	evaluator *windowEvaluator
	dedup     *deduplicator
	events    EventStore

	window       time.Duration
	quorum       int
	storeTimeout time.Duration

	nowFn  func() time.Time
	logger *logging.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Options configures an Engine. Window and Quorum come from process
// configuration and do not change after startup.
type Options struct {
	Window       time.Duration
	Quorum       int
	StoreTimeout time.Duration
	Logger       *logging.Logger
}

// NewEngine wires the evaluator and deduplicator over the given stores.
func NewEngine(directory DeviceDirectory, telemetry TelemetryStore, events EventStore, opts Options) *Engine {
	if opts.Window <= 0 {
		opts.Window = 5 * time.Second
	}
	if opts.Quorum < 1 {
		opts.Quorum = 3
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	return &Engine{
		directory:    directory,
		evaluator:    &windowEvaluator{directory: directory, telemetry: telemetry, window: opts.Window},
		dedup:        &deduplicator{events: events, window: opts.Window},
		events:       events,
		window:       opts.Window,
		quorum:       opts.Quorum,
		storeTimeout: opts.StoreTimeout,
		nowFn:        time.Now,
		logger:       opts.Logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

// WithClock replaces the engine's time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.nowFn = now
	return e
}

// Window returns the configured trailing window length.
func (e *Engine) Window() time.Duration { return e.window }

// Quorum returns the configured distinct-device threshold.
func (e *Engine) Quorum() int { return e.quorum }

// HandleAbnormalEvent runs the correlation decision for one
// abnormal-flagged reading. The caller must have persisted the reading
// already and must only pass events whose seizure flag is set.
//
// The evaluate, dedup-check and write steps run under a per-user mutex,
// so two near-simultaneous abnormal readings from the same user's fleet
// cannot both pass the dedup check and double-write. Different users
// proceed in parallel.
func (e *Engine) HandleAbnormalEvent(ctx context.Context, event *models.TelemetryEvent) (Result, error) {
	userID, err := e.resolveOwner(ctx, event.DeviceID)
	if err != nil {
		if errors.Is(err, ErrUnknownDevice) {
			return Result{Outcome: OutcomeUnknownDevice}, fmt.Errorf("device %s: %w", event.DeviceID, ErrUnknownDevice)
		}
		return Result{Outcome: OutcomeStoreUnavailable}, err
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := e.nowFn()

	triggered, err := e.evaluateWindow(ctx, userID, now)
	if err != nil {
		return Result{Outcome: OutcomeStoreUnavailable, UserID: userID}, err
	}

	if len(triggered) < e.quorum {
		return Result{Outcome: OutcomeNoCorrelation, UserID: userID}, nil
	}

	recent, err := e.hasRecentEvent(ctx, userID, now)
	if err != nil {
		return Result{Outcome: OutcomeStoreUnavailable, UserID: userID}, err
	}
	if recent {
		return Result{Outcome: OutcomeSuppressedDuplicate, UserID: userID}, nil
	}

	id, _ := uuid.NewV7()
	correlated := &models.CorrelatedEvent{
		ID:          id.String(),
		UserID:      userID,
		TriggeredAt: now,
		DeviceIDs:   triggered,
	}

	if err := e.insert(ctx, correlated); err != nil {
		// The detection stands even though no record exists; surface
		// both so the caller can compensate through a side channel.
		return Result{
			Outcome:             OutcomePersistFailed,
			UserID:              userID,
			ContributingDevices: triggered,
		}, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	if e.logger != nil {
		e.logger.InfoContext(ctx, "correlated seizure event confirmed",
			"user_id", userID,
			"devices", len(triggered),
			"event_id", correlated.ID,
		)
	}

	return Result{
		Outcome:             OutcomeConfirmed,
		UserID:              userID,
		ContributingDevices: triggered,
		Event:               correlated,
	}, nil
}

func (e *Engine) resolveOwner(ctx context.Context, deviceID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	userID, err := e.directory.ResolveOwner(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrUnknownDevice) {
			return "", err
		}
		return "", fmt.Errorf("%w: resolving owner of %s: %v", ErrStoreUnavailable, deviceID, err)
	}
	return userID, nil
}

func (e *Engine) evaluateWindow(ctx context.Context, userID string, asOf time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	triggered, err := e.evaluator.evaluate(ctx, userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return triggered, nil
}

func (e *Engine) hasRecentEvent(ctx context.Context, userID string, asOf time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	recent, err := e.dedup.hasRecentEvent(ctx, userID, asOf)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return recent, nil
}

func (e *Engine) insert(ctx context.Context, event *models.CorrelatedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return e.events.InsertCorrelatedEvent(ctx, event)
}

// userLock returns the mutex for userID, creating it on first use.
// Locks are never reclaimed; the population is bounded by the number of
// accounts, which stays small for wearable fleets.
func (e *Engine) userLock(userID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}
