package models

import "vent_controller/internal/vent"

// Wire records for the binary device API. Field indexes are part of the
// protocol: payloads are CBOR maps with integer keys, so tags here must
// never be renumbered.

// VentPosition is the response for GET /vent/position.
type VentPosition struct {
	Angle uint8      `cbor:"0,keyasint" json:"angle"`
	State vent.State `cbor:"1,keyasint" json:"state"`
}

// TargetRequest is the request for PUT /vent/target.
type TargetRequest struct {
	Angle uint8 `cbor:"0,keyasint" json:"angle"`
}

// TargetResponse is the response for PUT /vent/target.
type TargetResponse struct {
	Angle         uint8      `cbor:"0,keyasint" json:"angle"`
	State         vent.State `cbor:"1,keyasint" json:"state"`
	PreviousAngle uint8      `cbor:"2,keyasint" json:"previous_angle"`
}

// DeviceIdentity is the response for GET /device/identity.
type DeviceIdentity struct {
	EUI64           string `cbor:"0,keyasint" json:"eui64"`
	FirmwareVersion string `cbor:"1,keyasint" json:"firmware_version"`
	UptimeS         uint32 `cbor:"2,keyasint" json:"uptime_s"`
}

// DeviceConfig is the body for GET and PUT /device/config. Nil means the
// field is unset (GET) or untouched (PUT); partial updates only apply
// fields that are present.
type DeviceConfig struct {
	Room  *string `cbor:"0,keyasint,omitempty" json:"room,omitempty"`
	Floor *string `cbor:"1,keyasint,omitempty" json:"floor,omitempty"`
	Name  *string `cbor:"2,keyasint,omitempty" json:"name,omitempty"`
}

// PowerSource reports how the device is powered.
type PowerSource uint8

const (
	PowerUSB PowerSource = iota
	PowerBattery
)

func (p PowerSource) String() string {
	switch p {
	case PowerUSB:
		return "usb"
	case PowerBattery:
		return "battery"
	default:
		return "unknown"
	}
}

// DeviceHealth is the response for GET /device/health. BatteryMV is only
// present on battery power.
type DeviceHealth struct {
	RSSI         int8        `cbor:"0,keyasint" json:"rssi"`
	PollPeriodMS uint32      `cbor:"1,keyasint" json:"poll_period_ms"`
	PowerSource  PowerSource `cbor:"2,keyasint" json:"power_source"`
	FreeHeap     uint32      `cbor:"3,keyasint" json:"free_heap"`
	BatteryMV    *uint16     `cbor:"4,keyasint,omitempty" json:"battery_mv,omitempty"`
}
