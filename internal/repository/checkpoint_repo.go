package repository

import (
	"context"
	"database/sql"
)

// CheckpointSQLite stores the write-ahead cells in device_kv.
type CheckpointSQLite struct {
	db *sql.DB
}

func NewCheckpointSQLite(db *sql.DB) *CheckpointSQLite {
	return &CheckpointSQLite{db: db}
}

func (r *CheckpointSQLite) CheckpointAngle(ctx context.Context) (uint8, bool, error) {
	return getByte(ctx, r.db, keyCheckpoint)
}

func (r *CheckpointSQLite) SetCheckpoint(ctx context.Context, angle uint8) error {
	return setRaw(ctx, r.db, keyCheckpoint, []byte{angle})
}

func (r *CheckpointSQLite) PendingTarget(ctx context.Context) (uint8, bool, error) {
	return getByte(ctx, r.db, keyPending)
}

func (r *CheckpointSQLite) SetPending(ctx context.Context, angle uint8) error {
	return setRaw(ctx, r.db, keyPending, []byte{angle})
}

// IsCommitted treats an absent flag as committed: a fresh device has
// nothing pending.
func (r *CheckpointSQLite) IsCommitted(ctx context.Context) (bool, error) {
	flag, ok, err := getByte(ctx, r.db, keyCommitFlag)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return flag == 1, nil
}

func (r *CheckpointSQLite) SetCommitted(ctx context.Context, committed bool) error {
	flag := byte(0)
	if committed {
		flag = 1
	}
	return setRaw(ctx, r.db, keyCommitFlag, []byte{flag})
}

func (r *CheckpointSQLite) IsFirstBoot(ctx context.Context) (bool, error) {
	_, ok, err := getRaw(ctx, r.db, keyInitialized)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (r *CheckpointSQLite) MarkInitialized(ctx context.Context) error {
	return setRaw(ctx, r.db, keyInitialized, []byte{1})
}
