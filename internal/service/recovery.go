package service

import (
	"context"

	"vent_controller/internal/logger"
	"vent_controller/internal/models"
	"vent_controller/internal/repository"
	"vent_controller/internal/vent"
)

// Recover builds the state machine from the checkpoint cells. Runs once at
// boot, before any request is accepted.
//
// Committed (or no record at all): start at the checkpoint, nothing
// pending. Uncommitted: start at the checkpoint — the last known-good
// position before the interrupted move — and replay the pending target so
// the mover finishes the move and commits it normally. The flap mechanism
// retains position without power, so resuming from the checkpoint is safe
// even if power died mid-move.
func Recover(ctx context.Context, cp repository.CheckpointRepo, events repository.EventRepo, log *logger.Logger) *vent.StateMachine {
	firstBoot, err := cp.IsFirstBoot(ctx)
	if err != nil && log != nil {
		log.Warnw("first_boot_check_failed", "err", err)
	}
	if firstBoot {
		if log != nil {
			log.Infow("first_boot_detected")
		}
		if err := cp.MarkInitialized(ctx); err != nil && log != nil {
			log.Warnw("mark_initialized_failed", "err", err)
		}
	}

	// A store read failure here degrades to the fresh-device defaults:
	// boot must not be blocked on a flaky cell.
	committed, err := cp.IsCommitted(ctx)
	if err != nil {
		if log != nil {
			log.Warnw("commit_flag_read_failed", "err", err)
		}
		committed = true
	}

	checkpoint, ok, err := cp.CheckpointAngle(ctx)
	if err != nil && log != nil {
		log.Warnw("checkpoint_read_failed", "err", err)
	}
	if err != nil || !ok {
		checkpoint = vent.AngleClosed
	}

	machine := vent.NewStateMachine(checkpoint)
	if committed {
		if log != nil {
			log.Infow("checkpoint_restored", "angle", checkpoint)
		}
		return machine
	}

	pending, ok, err := cp.PendingTarget(ctx)
	if err != nil || !ok {
		// Write-ahead clears the flag only after the pending cell is
		// durable, so a cleared flag without a readable pending cell
		// means the store itself is damaged. Stay at the checkpoint.
		if log != nil {
			log.Warnw("pending_target_unreadable", "err", err, "checkpoint", checkpoint)
		}
		return machine
	}

	machine.SetTarget(pending)
	if !machine.IsMoving() {
		// The interrupted move was zero-length (or already done when the
		// pending target equals the checkpoint); close it out so the
		// cleared flag does not replay on every boot.
		wal := &walLog{cp: cp}
		if err := wal.Commit(ctx, machine.CurrentAngle()); err != nil && log != nil {
			log.Warnw("recovery_commit_failed", "err", err)
		}
		return machine
	}
	if log != nil {
		log.Warnw("move_resumed_after_restart", "checkpoint", checkpoint, "pending", pending)
	}
	if events != nil {
		_ = events.Append(ctx, models.VentEvent{
			Type:        models.EventRecovery,
			Description: "Interrupted move resumed after restart",
			Metadata:    map[string]any{"checkpoint": checkpoint, "pending": pending},
		})
	}
	return machine
}
