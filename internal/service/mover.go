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

// MoverService is the actuation loop. It drains the state machine one
// degree per step interval, pushes each new angle to the actuator and
// commits the checkpoint once a move converges. The step interval bounds
// slew rate and current draw; the idle interval yields the processor
// between moves.
type MoverService struct {
	mu       *sync.Mutex
	machine  *vent.StateMachine
	wal      *walLog
	actuator actuator.Actuator
	events   repository.EventRepo
	log      *logger.Logger

	completed []func(models.VentPosition)
}

func NewMoverService(mu *sync.Mutex, machine *vent.StateMachine, wal *walLog, act actuator.Actuator, events repository.EventRepo, log *logger.Logger) *MoverService {
	return &MoverService{
		mu:       mu,
		machine:  machine,
		wal:      wal,
		actuator: act,
		events:   events,
		log:      log,
	}
}

// OnMoveCompleted registers a hook invoked (outside the gate) with the
// final position after each committed move. Register before Run starts.
func (s *MoverService) OnMoveCompleted(fn func(models.VentPosition)) {
	s.completed = append(s.completed, fn)
}

// Run loops until ctx is canceled. One pass: under the gate, take one step
// and, if the move just converged, commit within the same critical section
// so a concurrent redirect cannot slip between the completion check and
// the commit. The actuator push happens outside the gate; it is
// fire-and-forget and has no durability to protect.
func (s *MoverService) Run(ctx context.Context, stepInterval, idleInterval time.Duration) {
	for {
		s.mu.Lock()
		stepped := s.machine.Step()
		angle := s.machine.CurrentAngle()
		converged := stepped && !s.machine.IsMoving()
		var commitErr error
		if converged {
			commitErr = s.wal.Commit(ctx, angle)
		}
		state := s.machine.State()
		s.mu.Unlock()

		if stepped {
			if err := s.actuator.SetAngle(angle); err != nil && s.log != nil {
				s.log.Errorw("actuator_step_failed", "err", err, "angle", angle)
			}
		}

		if converged {
			s.finishMove(ctx, models.VentPosition{Angle: angle, State: state}, commitErr)
		}

		interval := idleInterval
		if stepped {
			interval = stepInterval
		}
		if !sleepCtx(ctx, interval) {
			return
		}
	}
}

func (s *MoverService) finishMove(ctx context.Context, pos models.VentPosition, commitErr error) {
	if commitErr != nil {
		// The move is physically done but not durably recorded; the next
		// boot will replay it from the pending cell, which is harmless.
		if s.log != nil {
			s.log.Errorw("move_commit_failed", "err", commitErr, "angle", pos.Angle)
		}
		return
	}
	if s.log != nil {
		s.log.Infow("move_completed", "angle", pos.Angle, "state", pos.State.String())
	}
	if s.events != nil {
		_ = s.events.Append(ctx, models.VentEvent{
			Type:        models.EventMoveCompleted,
			Description: "Vent reached target",
			Metadata:    map[string]any{"angle": pos.Angle, "state": pos.State.String()},
		})
	}
	for _, fn := range s.completed {
		fn(pos)
	}
}

// sleepCtx sleeps for d or until ctx is canceled. Returns false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
