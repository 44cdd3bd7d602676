package models

import "time"

// Event types recorded in the controller log.
const (
	EventTargetSet     = "TARGET_SET"
	EventMoveCompleted = "MOVE_COMPLETED"
	EventRecovery      = "RECOVERY"
	EventConfigChange  = "CONFIG_CHANGE"
)

// VentEvent is a single controller log entry, served as JSON on the
// maintenance surface.
type VentEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
