package models

import "time"

// Device identifies a physical wearable unit and its ownership.
// A device has exactly one owner at any time.
type Device struct {
	DeviceID  string    `json:"device_id"`
	OwnerID   string    `json:"owner_id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxDevicesPerUser caps how many devices one account may register.
const MaxDevicesPerUser = 4
