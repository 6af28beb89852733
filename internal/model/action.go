package model

// Action is a human-friendly operating mode for one hour of the battery
// day trace. Keep these values stable; they appear in serialized traces.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)
