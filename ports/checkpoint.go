package ports

import (
	"context"

	"adogo/domain/core"
)

// Checkpoint is a serialized posterior snapshot. The raw vector is
// meaningless without its index-to-parameter-point mapping, so every
// checkpoint records the exact grid definition it corresponds to.
type Checkpoint struct {
	ID          core.CheckpointID
	SessionID   core.SessionID
	Trial       int
	Posterior   []float64
	GridNames   []string
	GridPoints  [][]float64
	Fingerprint core.GridFingerprint
	CreatedAt   core.Timestamp
}

// CheckpointRepository persists posterior snapshots per trial.
type CheckpointRepository interface {
	// Save stores a checkpoint.
	Save(ctx context.Context, cp *Checkpoint) error

	// Latest returns the most recent checkpoint for a session.
	Latest(ctx context.Context, sessionID core.SessionID) (*Checkpoint, error)

	// ListBySession returns all checkpoints for a session in trial order.
	ListBySession(ctx context.Context, sessionID core.SessionID) ([]*Checkpoint, error)
}
