package models

import "time"

// CorrelatedEvent records that the quorum of a user's devices reported
// seizure activity inside one evaluation window. TriggeredAt is assigned
// by the engine at detection time, not taken from any device reading.
type CorrelatedEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TriggeredAt time.Time `json:"triggered_at"`
	DeviceIDs   []string  `json:"device_ids"`
}
