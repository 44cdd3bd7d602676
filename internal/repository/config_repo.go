package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// maxConfigValueLen bounds stored placement strings, mirroring the fixed
// read buffer the device firmware would use.
const maxConfigValueLen = 64

// ConfigSQLite stores the optional placement strings, each under its own
// key in device_kv.
type ConfigSQLite struct {
	db *sql.DB
}

func NewConfigSQLite(db *sql.DB) *ConfigSQLite {
	return &ConfigSQLite{db: db}
}

func (r *ConfigSQLite) getString(ctx context.Context, key string) (*string, error) {
	value, ok, err := getRaw(ctx, r.db, key)
	if err != nil || !ok {
		return nil, err
	}
	s := string(value)
	return &s, nil
}

func (r *ConfigSQLite) setString(ctx context.Context, key, value string) error {
	if len(value) > maxConfigValueLen {
		return fmt.Errorf("repository: %s value exceeds %d bytes", key, maxConfigValueLen)
	}
	return setRaw(ctx, r.db, key, []byte(value))
}

func (r *ConfigSQLite) Room(ctx context.Context) (*string, error) {
	return r.getString(ctx, keyRoom)
}

func (r *ConfigSQLite) SetRoom(ctx context.Context, room string) error {
	return r.setString(ctx, keyRoom, room)
}

func (r *ConfigSQLite) Floor(ctx context.Context) (*string, error) {
	return r.getString(ctx, keyFloor)
}

func (r *ConfigSQLite) SetFloor(ctx context.Context, floor string) error {
	return r.setString(ctx, keyFloor, floor)
}

func (r *ConfigSQLite) Name(ctx context.Context) (*string, error) {
	return r.getString(ctx, keyName)
}

func (r *ConfigSQLite) SetName(ctx context.Context, name string) error {
	return r.setString(ctx, keyName, name)
}

func (r *ConfigSQLite) EUI64(ctx context.Context) (*string, error) {
	return r.getString(ctx, keyEUI64)
}

func (r *ConfigSQLite) SetEUI64(ctx context.Context, eui64 string) error {
	return r.setString(ctx, keyEUI64, eui64)
}
