package correlation

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// windowEvaluator computes the set of distinct devices that reported an
// abnormal flag inside the trailing window ending at asOf.
type windowEvaluator struct {
	directory DeviceDirectory
	telemetry TelemetryStore
	window    time.Duration
}

// evaluate fetches abnormal readings with observed_at in [asOf-window, asOf]
// for every device owned by userID and returns the distinct device IDs,
// sorted. Duplicate reports from one device count once. Event time is
// authoritative; arrival time plays no part.
func (w *windowEvaluator) evaluate(ctx context.Context, userID string, asOf time.Time) ([]string, error) {
	deviceIDs, err := w.directory.DevicesOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices for user %s: %w", userID, err)
	}
	if len(deviceIDs) == 0 {
		return []string{}, nil
	}

	from := asOf.Add(-w.window)
	events, err := w.telemetry.QueryAbnormal(ctx, deviceIDs, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query abnormal telemetry: %w", err)
	}

	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if !e.SeizureFlag {
			continue
		}
		seen[e.DeviceID] = struct{}{}
	}

	distinct := make([]string, 0, len(seen))
	for id := range seen {
		distinct = append(distinct, id)
	}
	sort.Strings(distinct)

	return distinct, nil
}
