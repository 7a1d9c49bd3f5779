package grpc

import "time"

type Empty struct{}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CreateUserRequest struct {
	Username string       `json:"username"`
	Password string       `json:"password"`
	Location *Coordinates `json:"location,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by CreateUser and Login. Token goes into the
// access_token metadata of subsequent calls.
type AuthResponse struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RegisterPushTokenRequest struct {
	DeviceToken string `json:"device_token"`
	DeviceType  string `json:"device_type"`
}

type PushTokenResponse struct {
	ID         string    `json:"id"`
	DeviceType string    `json:"device_type"`
	SessionID  string    `json:"session_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type DeleteCountResponse struct {
	Deleted int64 `json:"deleted"`
}

type SendNotificationRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type SendNotificationResponse struct {
	Sent        int   `json:"sent"`
	Failed      int   `json:"failed"`
	Invalidated int64 `json:"invalidated"`
}

type RunWeatherJobResponse struct {
	Evaluated  int `json:"evaluated"`
	Notified   int `json:"notified"`
	Suppressed int `json:"suppressed"`
	Failed     int `json:"failed"`
}

type LocationResponse struct {
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	LastTemperature *float64   `json:"last_temperature,omitempty"`
	LastNotifiedAt  *time.Time `json:"last_notified_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
