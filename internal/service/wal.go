package service

import (
	"context"
	"fmt"

	"vent_controller/internal/repository"
)

// walLog is the write-ahead persistence protocol over the three fixed
// checkpoint cells. Not an append-only log: each cell is overwritten in
// place, so a command cycle costs exactly four durable writes no matter
// how far the flap travels.
//
//	1. WriteAhead(target)  before the actuator is commanded
//	2. movement            volatile only, no durable writes
//	3. Commit(angle)       once the state machine reaches its target
//
// The commit flag is false only between a WriteAhead and its matching
// Commit. Recovery reads that window to decide whether to resume.
type walLog struct {
	cp repository.CheckpointRepo
}

// WriteAhead durably records the move intent: pending target first, then
// the cleared commit flag. Write order must not change — recovery assumes
// a cleared flag implies the pending cell holds this move's target. Any
// failure aborts the move; the caller must not mutate the state machine.
func (w *walLog) WriteAhead(ctx context.Context, target uint8) error {
	if err := w.cp.SetPending(ctx, target); err != nil {
		return fmt.Errorf("write-ahead pending target: %w", err)
	}
	if err := w.cp.SetCommitted(ctx, false); err != nil {
		return fmt.Errorf("write-ahead commit flag: %w", err)
	}
	return nil
}

// Commit durably records move completion: checkpoint angle first, then
// the set commit flag. Once the flag flips, the checkpoint is the single
// source of boot position.
func (w *walLog) Commit(ctx context.Context, angle uint8) error {
	if err := w.cp.SetCheckpoint(ctx, angle); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	if err := w.cp.SetCommitted(ctx, true); err != nil {
		return fmt.Errorf("commit flag: %w", err)
	}
	return nil
}
