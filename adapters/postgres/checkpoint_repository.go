package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"adogo/domain/core"
	"adogo/internal/errors"
	"adogo/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CheckpointRepositoryImpl implements CheckpointRepository for PostgreSQL
type CheckpointRepositoryImpl struct {
	db *sqlx.DB
}

// NewCheckpointRepository creates a new PostgreSQL checkpoint repository
func NewCheckpointRepository(db *sqlx.DB) ports.CheckpointRepository {
	return &CheckpointRepositoryImpl{db: db}
}

// EnsureSchema creates the checkpoint table if it does not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posterior_checkpoints (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL,
			trial INT NOT NULL,
			posterior JSONB NOT NULL,
			grid_names JSONB NOT NULL,
			grid_points JSONB NOT NULL,
			fingerprint TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (session_id, trial)
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create posterior_checkpoints table")
	}
	return nil
}

type checkpointRow struct {
	ID          uuid.UUID `db:"id"`
	SessionID   uuid.UUID `db:"session_id"`
	Trial       int       `db:"trial"`
	Posterior   []byte    `db:"posterior"`
	GridNames   []byte    `db:"grid_names"`
	GridPoints  []byte    `db:"grid_points"`
	Fingerprint string    `db:"fingerprint"`
	CreatedAt   time.Time `db:"created_at"`
}

// Save stores a checkpoint. The posterior vector is persisted together with
// the exact parameter-grid definition it indexes.
func (r *CheckpointRepositoryImpl) Save(ctx context.Context, cp *ports.Checkpoint) error {
	id := cp.ID
	if id == "" {
		id = core.CheckpointID(core.NewID())
	}
	posterior, err := json.Marshal(cp.Posterior)
	if err != nil {
		return errors.Wrap(err, "failed to marshal posterior")
	}
	names, err := json.Marshal(cp.GridNames)
	if err != nil {
		return errors.Wrap(err, "failed to marshal grid names")
	}
	points, err := json.Marshal(cp.GridPoints)
	if err != nil {
		return errors.Wrap(err, "failed to marshal grid points")
	}

	// A reset session re-records trials from 1, so the same (session, trial)
	// pair legitimately recurs; the newer posterior wins.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO posterior_checkpoints (id, session_id, trial, posterior, grid_names, grid_points, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, trial) DO UPDATE
		SET posterior = EXCLUDED.posterior,
		    grid_names = EXCLUDED.grid_names,
		    grid_points = EXCLUDED.grid_points,
		    fingerprint = EXCLUDED.fingerprint,
		    created_at = EXCLUDED.created_at
	`, id.String(), cp.SessionID.String(), cp.Trial, posterior, names, points,
		cp.Fingerprint.String(), cp.CreatedAt.Time())
	if err != nil {
		return errors.Wrap(err, "failed to insert checkpoint")
	}
	return nil
}

// Latest returns the most recent checkpoint for a session.
func (r *CheckpointRepositoryImpl) Latest(ctx context.Context, sessionID core.SessionID) (*ports.Checkpoint, error) {
	var row checkpointRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, session_id, trial, posterior, grid_names, grid_points, fingerprint, created_at
		FROM posterior_checkpoints
		WHERE session_id = $1
		ORDER BY trial DESC
		LIMIT 1
	`, sessionID.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("checkpoint for session " + sessionID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load latest checkpoint")
	}
	return rowToCheckpoint(&row)
}

// ListBySession returns all checkpoints for a session in trial order.
func (r *CheckpointRepositoryImpl) ListBySession(ctx context.Context, sessionID core.SessionID) ([]*ports.Checkpoint, error) {
	var rows []checkpointRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, session_id, trial, posterior, grid_names, grid_points, fingerprint, created_at
		FROM posterior_checkpoints
		WHERE session_id = $1
		ORDER BY trial ASC
	`, sessionID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list checkpoints")
	}

	out := make([]*ports.Checkpoint, 0, len(rows))
	for i := range rows {
		cp, err := rowToCheckpoint(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func rowToCheckpoint(row *checkpointRow) (*ports.Checkpoint, error) {
	cp := &ports.Checkpoint{
		ID:          core.CheckpointID(row.ID.String()),
		SessionID:   core.SessionID(row.SessionID.String()),
		Trial:       row.Trial,
		Fingerprint: core.GridFingerprint(row.Fingerprint),
		CreatedAt:   core.NewTimestamp(row.CreatedAt),
	}
	if err := json.Unmarshal(row.Posterior, &cp.Posterior); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal posterior")
	}
	if err := json.Unmarshal(row.GridNames, &cp.GridNames); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal grid names")
	}
	if err := json.Unmarshal(row.GridPoints, &cp.GridPoints); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal grid points")
	}
	return cp, nil
}
