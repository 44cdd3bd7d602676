package service

import (
	"context"
	"sync"

	"vent_controller/internal/logger"
	"vent_controller/internal/models"
	"vent_controller/internal/repository"
)

// DeviceConfigService applies partial updates to the placement strings
// under the shared gate, so two config writers (or a config writer and a
// reader) never interleave.
type DeviceConfigService struct {
	mu     *sync.Mutex
	cfg    repository.ConfigRepo
	events repository.EventRepo
	log    *logger.Logger
}

func NewDeviceConfigService(mu *sync.Mutex, cfg repository.ConfigRepo, events repository.EventRepo, log *logger.Logger) *DeviceConfigService {
	return &DeviceConfigService{mu: mu, cfg: cfg, events: events, log: log}
}

// Get returns the full stored config. Unset fields stay nil.
func (s *DeviceConfigService) Get(ctx context.Context) (models.DeviceConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Put applies only the fields present in the request. The first
// persistence failure stops further field updates — already-applied
// fields stay applied, there is no rollback. On success the full current
// config is returned, not just the changed fields.
func (s *DeviceConfigService) Put(ctx context.Context, req models.DeviceConfig) (models.DeviceConfig, error) {
	s.mu.Lock()
	if req.Room != nil {
		if err := s.cfg.SetRoom(ctx, *req.Room); err != nil {
			s.mu.Unlock()
			return models.DeviceConfig{}, err
		}
	}
	if req.Floor != nil {
		if err := s.cfg.SetFloor(ctx, *req.Floor); err != nil {
			s.mu.Unlock()
			return models.DeviceConfig{}, err
		}
	}
	if req.Name != nil {
		if err := s.cfg.SetName(ctx, *req.Name); err != nil {
			s.mu.Unlock()
			return models.DeviceConfig{}, err
		}
	}
	full, err := s.read(ctx)
	s.mu.Unlock()
	if err != nil {
		return models.DeviceConfig{}, err
	}

	if s.log != nil {
		s.log.Infow("config_updated",
			"room", strOrUnset(full.Room),
			"floor", strOrUnset(full.Floor),
			"name", strOrUnset(full.Name),
		)
	}
	if s.events != nil {
		_ = s.events.Append(ctx, models.VentEvent{
			Type:        models.EventConfigChange,
			Description: "Device config updated",
			Metadata: map[string]any{
				"room":  strOrUnset(full.Room),
				"floor": strOrUnset(full.Floor),
				"name":  strOrUnset(full.Name),
			},
		})
	}
	return full, nil
}

func (s *DeviceConfigService) read(ctx context.Context) (models.DeviceConfig, error) {
	room, err := s.cfg.Room(ctx)
	if err != nil {
		return models.DeviceConfig{}, err
	}
	floor, err := s.cfg.Floor(ctx)
	if err != nil {
		return models.DeviceConfig{}, err
	}
	name, err := s.cfg.Name(ctx)
	if err != nil {
		return models.DeviceConfig{}, err
	}
	return models.DeviceConfig{Room: room, Floor: floor, Name: name}, nil
}

func strOrUnset(s *string) string {
	if s == nil {
		return "<unset>"
	}
	return *s
}
