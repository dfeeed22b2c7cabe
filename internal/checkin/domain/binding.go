package domain

import "time"

// Binding ties one identity to one device address. A device is bound to at
// most one identity and an identity to at most one device.
type Binding struct {
	Identity      string
	DeviceAddress string
	BoundAt       time.Time
}
