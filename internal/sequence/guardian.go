// Package sequence keeps the user identity generator ahead of the largest
// stored id. Rows written outside the generator (backfills, restores) leave it
// behind, and the next normal insert then collides on the primary key.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrIdentityConflict is returned by a store when an insert collides on
	// the identity column.
	ErrIdentityConflict = errors.New("identity conflict")

	// ErrRepairFailed means the single retry after a repair also failed.
	ErrRepairFailed = errors.New("insert failed after sequence repair")
)

// Sequencer is the store side of the guardian.
type Sequencer interface {
	// MaxID returns the largest stored id, or 0 for an empty table.
	MaxID(ctx context.Context) (int64, error)
	// AdvanceSequence makes next the generator's next value unless the
	// generator is already past it. It never moves the generator backward
	// and returns the resulting next value.
	AdvanceSequence(ctx context.Context, next int64) (int64, error)
}

type Guardian struct {
	seq Sequencer
}

func NewGuardian(seq Sequencer) *Guardian {
	return &Guardian{seq: seq}
}

// Sync moves the generator to max(id)+1, or 1 for an empty table. It is
// idempotent and safe to run alongside inserts.
func (g *Guardian) Sync(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("user-directory/sequence").Start(ctx, "sequence.Sync")
	defer span.End()

	maxID, err := g.seq.MaxID(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("read max id: %w", err)
	}
	next, err := g.seq.AdvanceSequence(ctx, maxID+1)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("advance sequence to %d: %w", maxID+1, err)
	}
	span.SetAttributes(attribute.Int64("sequence.max_id", maxID), attribute.Int64("sequence.next", next))
	return next, nil
}

// SyncOnStartup runs Sync and logs the outcome.
func (g *Guardian) SyncOnStartup(ctx context.Context) error {
	next, err := g.Sync(ctx)
	if err != nil {
		return err
	}
	slog.Info("identity sequence synchronized", "next_id", next)
	return nil
}

// RepairAndRetry runs insert once. If it fails with ErrIdentityConflict the
// generator is repaired and insert runs exactly one more time.
func (g *Guardian) RepairAndRetry(ctx context.Context, insert func(context.Context) error) error {
	err := insert(ctx)
	if !errors.Is(err, ErrIdentityConflict) {
		return err
	}

	slog.Warn("identity sequence out of sync, repairing", "error", err)
	next, repairErr := g.Sync(ctx)
	if repairErr != nil {
		return fmt.Errorf("%w: %w", ErrRepairFailed, repairErr)
	}
	slog.Info("identity sequence repaired, retrying insert", "next_id", next)

	if err := insert(ctx); err != nil {
		if errors.Is(err, ErrIdentityConflict) {
			return fmt.Errorf("%w: %w", ErrRepairFailed, err)
		}
		return err
	}
	return nil
}
