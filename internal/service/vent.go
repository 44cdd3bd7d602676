package service

import (
	"context"
	"sync"

	"vent_controller/internal/logger"
	"vent_controller/internal/models"
	"vent_controller/internal/repository"
	"vent_controller/internal/vent"
)

// VentService owns command ingress for the flap. Both the binary protocol
// router and the bridge surface call into it; the shared gate serializes
// them against each other and against the mover loop.
type VentService struct {
	mu      *sync.Mutex
	machine *vent.StateMachine
	wal     *walLog
	events  repository.EventRepo
	log     *logger.Logger
}

func NewVentService(mu *sync.Mutex, machine *vent.StateMachine, wal *walLog, events repository.EventRepo, log *logger.Logger) *VentService {
	return &VentService{mu: mu, machine: machine, wal: wal, events: events, log: log}
}

// Position returns the current angle and derived state.
func (s *VentService) Position() models.VentPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.VentPosition{
		Angle: s.machine.CurrentAngle(),
		State: s.machine.State(),
	}
}

// SetTarget clamps the requested angle, records the intent durably and
// only then redirects the state machine. If the write-ahead fails the
// machine is left untouched: the actuator must never move without a
// durable record of what it was told to do.
func (s *VentService) SetTarget(ctx context.Context, angle uint8) (models.TargetResponse, error) {
	clamped := vent.ClampAngle(angle)

	s.mu.Lock()
	if err := s.wal.WriteAhead(ctx, clamped); err != nil {
		s.mu.Unlock()
		if s.log != nil {
			s.log.Errorw("target_write_ahead_failed", "err", err, "target", clamped)
		}
		return models.TargetResponse{}, err
	}
	prev := s.machine.SetTarget(clamped)
	resp := models.TargetResponse{
		Angle:         clamped,
		State:         s.machine.State(),
		PreviousAngle: prev,
	}
	// A zero-length move never steps, so the mover would never commit it
	// and the cleared flag would outlive its move. Commit here instead.
	var commitErr error
	if !s.machine.IsMoving() {
		commitErr = s.wal.Commit(ctx, clamped)
	}
	s.mu.Unlock()

	if commitErr != nil && s.log != nil {
		s.log.Errorw("target_commit_failed", "err", commitErr, "angle", clamped)
	}

	if s.log != nil {
		s.log.Infow("target_set", "from", prev, "to", clamped)
	}
	if s.events != nil {
		_ = s.events.Append(ctx, models.VentEvent{
			Type:        models.EventTargetSet,
			Description: "Target angle set",
			Metadata:    map[string]any{"target": clamped, "previous": prev},
		})
	}
	return resp, nil
}

// SetTargetPercent converts a Window-Covering percentage into the angle
// domain and issues the same guarded command.
func (s *VentService) SetTargetPercent(ctx context.Context, pct uint16) (models.TargetResponse, error) {
	return s.SetTarget(ctx, vent.PercentToAngle(pct))
}
