package domain

import "time"

// DeviceLink maps a physical access device to the asset it guards.
// An asset has at most one linked device and a device guards one asset.
type DeviceLink struct {
	DeviceID  string
	AssetID   int64
	LinkedBy  string
	CreatedAt time.Time
}
