package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"vent_controller/internal/models"
)

var errStoreRejected = errors.New("store rejected write")

// fakeCheckpointRepo is an in-memory stand-in for the durable cells. It
// records every write in order so tests can assert the WAL protocol's
// strict write sequence.
type fakeCheckpointRepo struct {
	mu          sync.Mutex
	angle       *uint8
	pending     *uint8
	committed   *bool
	initialized bool

	checkpointErr error
	pendingErr    error
	commitFlagErr error

	writes []string // e.g. "pending=150", "wal=0", "angle=150", "wal=1"
}

func (f *fakeCheckpointRepo) CheckpointAngle(ctx context.Context) (uint8, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.angle == nil {
		return 0, false, nil
	}
	return *f.angle, true, nil
}

func (f *fakeCheckpointRepo) SetCheckpoint(ctx context.Context, angle uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkpointErr != nil {
		return f.checkpointErr
	}
	f.angle = &angle
	f.writes = append(f.writes, "angle="+itoa(angle))
	return nil
}

func (f *fakeCheckpointRepo) PendingTarget(ctx context.Context) (uint8, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return 0, false, nil
	}
	return *f.pending, true, nil
}

func (f *fakeCheckpointRepo) SetPending(ctx context.Context, angle uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingErr != nil {
		return f.pendingErr
	}
	f.pending = &angle
	f.writes = append(f.writes, "pending="+itoa(angle))
	return nil
}

func (f *fakeCheckpointRepo) IsCommitted(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.committed == nil {
		return true, nil
	}
	return *f.committed, nil
}

func (f *fakeCheckpointRepo) SetCommitted(ctx context.Context, committed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitFlagErr != nil {
		return f.commitFlagErr
	}
	f.committed = &committed
	if committed {
		f.writes = append(f.writes, "wal=1")
	} else {
		f.writes = append(f.writes, "wal=0")
	}
	return nil
}

func (f *fakeCheckpointRepo) IsFirstBoot(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.initialized, nil
}

func (f *fakeCheckpointRepo) MarkInitialized(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = true
	return nil
}

func (f *fakeCheckpointRepo) snapshot() (angle, pending *uint8, committed *bool, writes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.angle, f.pending, f.committed, append([]string(nil), f.writes...)
}

func itoa(v uint8) string { return strconv.Itoa(int(v)) }

type fakeConfigRepo struct {
	values  map[string]string
	failKey string
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{values: map[string]string{}}
}

func (f *fakeConfigRepo) get(key string) (*string, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeConfigRepo) set(key, value string) error {
	if f.failKey == key {
		return errStoreRejected
	}
	f.values[key] = value
	return nil
}

func (f *fakeConfigRepo) Room(ctx context.Context) (*string, error)  { return f.get("room") }
func (f *fakeConfigRepo) Floor(ctx context.Context) (*string, error) { return f.get("floor") }
func (f *fakeConfigRepo) Name(ctx context.Context) (*string, error)  { return f.get("name") }
func (f *fakeConfigRepo) EUI64(ctx context.Context) (*string, error) { return f.get("eui64") }

func (f *fakeConfigRepo) SetRoom(ctx context.Context, v string) error  { return f.set("room", v) }
func (f *fakeConfigRepo) SetFloor(ctx context.Context, v string) error { return f.set("floor", v) }
func (f *fakeConfigRepo) SetName(ctx context.Context, v string) error  { return f.set("name", v) }
func (f *fakeConfigRepo) SetEUI64(ctx context.Context, v string) error { return f.set("eui64", v) }

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.VentEvent
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.VentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.VentEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.VentEvent
	for _, e := range f.events {
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) byType(typ string) []models.VentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.VentEvent
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type fakeActuator struct {
	mu     sync.Mutex
	angles []uint8
}

func (f *fakeActuator) SetAngle(angle uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.angles = append(f.angles, angle)
	return nil
}

func (f *fakeActuator) Close() error { return nil }

func (f *fakeActuator) seen() []uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint8(nil), f.angles...)
}
