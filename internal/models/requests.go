package models

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id"`
	Label    string `json:"label,omitempty"`
}

type UpdateDeviceRequest struct {
	Label string `json:"label"`
}

// TelemetryRequest is the wire format devices post to the data endpoint.
// Sensors is opaque and stored as-is.
type TelemetryRequest struct {
	DeviceID    string                 `json:"device_id"`
	TimestampMS int64                  `json:"timestamp_ms"`
	Sensors     map[string]interface{} `json:"sensors"`
	SeizureFlag bool                   `json:"seizure_flag"`
}

type TelemetryResponse struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome,omitempty"`
}
