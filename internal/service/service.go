package service

import (
	"context"
	"sync"
	"time"

	"vent_controller/internal/actuator"
	"vent_controller/internal/logger"
	"vent_controller/internal/models"
	"vent_controller/internal/repository"
	"vent_controller/internal/vent"
)

// Vent exposes position reads and target-angle commands. Every mutation
// follows the write-ahead protocol: intent is durable before the state
// machine (and therefore the actuator) sees the new target.
type Vent interface {
	Position() models.VentPosition
	SetTarget(ctx context.Context, angle uint8) (models.TargetResponse, error)
	SetTargetPercent(ctx context.Context, pct uint16) (models.TargetResponse, error)
}

// DeviceConfig reads and partially updates the placement strings.
type DeviceConfig interface {
	Get(ctx context.Context) (models.DeviceConfig, error)
	Put(ctx context.Context, req models.DeviceConfig) (models.DeviceConfig, error)
}

// Telemetry serves device identity and health snapshots.
type Telemetry interface {
	Identity(ctx context.Context) (models.DeviceIdentity, error)
	Health() models.DeviceHealth
}

// EventLog exposes the append-only controller log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.VentEvent, error)
}

// Mover runs the actuation loop that drains the state machine one step at
// a time and commits when a move completes. Stop via context cancellation.
// OnMoveCompleted hooks must be registered before Run starts.
type Mover interface {
	Run(ctx context.Context, stepInterval, idleInterval time.Duration)
	OnMoveCompleted(fn func(models.VentPosition))
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", TARGET_SET, MOVE_COMPLETED, RECOVERY, CONFIG_CHANGE
}

// Options carries the static device parameters resolved at boot.
type Options struct {
	FirmwareVersion string
	PowerSource     models.PowerSource
	PollPeriodMS    uint32
	BatteryMV       uint16 // reported only on battery power
}

type Service struct {
	Vent
	DeviceConfig
	Telemetry
	EventLog
	Mover
}

// NewService wires repositories, the recovered state machine and the
// actuator into the sub-services. A single mutex is shared by everything
// that touches the state machine, the checkpoint cells or the config
// strings: the protocol router and the bridge both funnel through it, so
// two ingress paths can never interleave a read-modify-write.
func NewService(repos *repository.Repository, machine *vent.StateMachine, act actuator.Actuator, radio RadioStats, log *logger.Logger, opts Options) *Service {
	gate := &sync.Mutex{}
	wal := &walLog{cp: repos.Checkpoint}

	return &Service{
		Vent:         NewVentService(gate, machine, wal, repos.Events, log),
		DeviceConfig: NewDeviceConfigService(gate, repos.Config, repos.Events, log),
		Telemetry:    NewTelemetryService(repos.Config, radio, opts),
		EventLog:     NewEventLogService(repos.Events),
		Mover:        NewMoverService(gate, machine, wal, act, repos.Events, log),
	}
}
