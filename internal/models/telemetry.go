package models

import "time"

// TelemetryEvent is one reading from one device at one instant.
// ObservedAt is the device-reported event time and is authoritative for
// correlation; arrival order is not guaranteed to match it.
// Attributes carries the raw sensor payload and is never interpreted
// beyond the seizure flag.
type TelemetryEvent struct {
	ID          string                 `json:"id"`
	DeviceID    string                 `json:"device_id"`
	ObservedAt  time.Time              `json:"observed_at"`
	SeizureFlag bool                   `json:"seizure_flag"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
}
