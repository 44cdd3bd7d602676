package repository

import (
	"context"
	"database/sql"
	"time"

	"vent_controller/internal/models"
)

// CheckpointRepo is the durable store behind the write-ahead protocol:
// three fixed cells (checkpoint angle, pending target, commit flag) plus
// the first-boot marker. Absent cells are reported via the bool return,
// never as an error.
type CheckpointRepo interface {
	CheckpointAngle(ctx context.Context) (uint8, bool, error)
	SetCheckpoint(ctx context.Context, angle uint8) error

	PendingTarget(ctx context.Context) (uint8, bool, error)
	SetPending(ctx context.Context, angle uint8) error

	// IsCommitted reports whether the last recorded move finished. An
	// absent flag means no move was ever pending, which counts as
	// committed.
	IsCommitted(ctx context.Context) (bool, error)
	SetCommitted(ctx context.Context, committed bool) error

	IsFirstBoot(ctx context.Context) (bool, error)
	MarkInitialized(ctx context.Context) error
}

// ConfigRepo stores the optional device placement strings. Nil means the
// value was never set, which is distinct from an empty string.
type ConfigRepo interface {
	Room(ctx context.Context) (*string, error)
	SetRoom(ctx context.Context, room string) error

	Floor(ctx context.Context) (*string, error)
	SetFloor(ctx context.Context, floor string) error

	Name(ctx context.Context) (*string, error)
	SetName(ctx context.Context, name string) error

	// EUI64 persists a generated device identifier when no hardware MAC
	// is available.
	EUI64(ctx context.Context) (*string, error)
	SetEUI64(ctx context.Context, eui64 string) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.VentEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.VentEvent, error)
}

type Repository struct {
	Checkpoint CheckpointRepo
	Config     ConfigRepo
	Events     EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Checkpoint: NewCheckpointSQLite(db),
		Config:     NewConfigSQLite(db),
		Events:     NewEventSQLite(db),
	}
}
