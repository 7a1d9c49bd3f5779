package models

import (
	"fmt"
	"time"
)

// DeviceType selects the push provider used to reach a device.
type DeviceType string

const (
	DeviceTypeIOS DeviceType = "ios"
	DeviceTypeWeb DeviceType = "web"
)

// ParseDeviceType accepts the wire spelling of a device type.
func ParseDeviceType(s string) (DeviceType, error) {
	switch DeviceType(s) {
	case DeviceTypeIOS, DeviceTypeWeb:
		return DeviceType(s), nil
	}
	return "", fmt.Errorf("unknown device type %q", s)
}

// PushToken binds a provider-issued device address to a user and to the
// session it was registered under.
type PushToken struct {
	ID          string
	UserID      string
	DeviceToken string
	DeviceType  DeviceType
	SessionID   string
	UpdatedAt   time.Time
}
