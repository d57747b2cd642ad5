package correlation

import (
	"context"
	"fmt"
	"time"
)

// deduplicator suppresses a new correlated event when one was already
// recorded for the user inside the trailing window. The window is the
// same W used for evaluation and is re-measured from asOf on every call,
// so continuous abnormal traffic extends suppression (sliding cooldown).
type deduplicator struct {
	events EventStore
	window time.Duration
}

func (d *deduplicator) hasRecentEvent(ctx context.Context, userID string, asOf time.Time) (bool, error) {
	from := asOf.Add(-d.window)
	event, err := d.events.FindRecentCorrelatedEvent(ctx, userID, from, asOf)
	if err != nil {
		return false, fmt.Errorf("failed to look up recent correlated event: %w", err)
	}
	return event != nil, nil
}
