package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Fixed keys in device_kv. The three WAL cells are each one byte and are
// overwritten in place on every command cycle.
const (
	keyCheckpoint  = "angle"  // last committed angle
	keyPending     = "target" // write-ahead target
	keyCommitFlag  = "wal"    // 1 = committed, 0 = pending
	keyInitialized = "init"   // first-boot marker
	keyRoom        = "room"
	keyFloor       = "floor"
	keyName        = "name"
	keyEUI64       = "eui64"
)

const (
	upsertKVSQL = `
		INSERT INTO device_kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`
	selectKVSQL = `SELECT value FROM device_kv WHERE key=?`
)

// getRaw reads one cell. The second return is false when the key has never
// been written.
func getRaw(ctx context.Context, db *sql.DB, key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(ctx, selectKVSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// setRaw overwrites one cell in place.
func setRaw(ctx context.Context, db *sql.DB, key string, value []byte) error {
	_, err := db.ExecContext(ctx, upsertKVSQL, key, value)
	return err
}

// getByte reads a single-byte cell.
func getByte(ctx context.Context, db *sql.DB, key string) (byte, bool, error) {
	value, ok, err := getRaw(ctx, db, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(value) != 1 {
		return 0, false, errors.New("repository: cell " + key + " is not a single byte")
	}
	return value[0], true, nil
}
