package app

import (
	"context"

	"adogo/domain/belief"
	"adogo/domain/core"
	"adogo/domain/engine"
	"adogo/internal"
	"adogo/ports"
)

// Trial records one completed request→respond→update cycle.
type Trial struct {
	Number   int                  `json:"number"`
	Mode     engine.SelectionMode `json:"mode"`
	Design   engine.Design        `json:"design"`
	Response float64              `json:"response"`
	Summary  belief.Summary       `json:"summary"`
}

// ExperimentService drives one experiment session: it owns the engine,
// keeps the trial history, and checkpoints the posterior after each update
// when a repository is configured.
type ExperimentService struct {
	sessionID   core.SessionID
	eng         *engine.Engine
	checkpoints ports.CheckpointRepository
	logger      *internal.Logger
	trials      []Trial
}

// ServiceOption configures an ExperimentService.
type ServiceOption func(*ExperimentService)

// WithCheckpoints enables posterior checkpointing after each trial.
func WithCheckpoints(repo ports.CheckpointRepository) ServiceOption {
	return func(s *ExperimentService) { s.checkpoints = repo }
}

// WithLogger overrides the default logger.
func WithLogger(logger *internal.Logger) ServiceOption {
	return func(s *ExperimentService) { s.logger = logger }
}

// NewExperimentService wraps a constructed engine into a session.
func NewExperimentService(eng *engine.Engine, opts ...ServiceOption) *ExperimentService {
	s := &ExperimentService{
		sessionID: core.SessionID(core.NewID()),
		eng:       eng,
		logger:    internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionID returns the session identifier.
func (s *ExperimentService) SessionID() core.SessionID {
	return s.sessionID
}

// Engine returns the underlying engine.
func (s *ExperimentService) Engine() *engine.Engine {
	return s.eng
}

// NextDesign proposes the next design without mutating the belief state.
func (s *ExperimentService) NextDesign(ctx context.Context, mode engine.SelectionMode, manual map[string]float64) (engine.Design, error) {
	return s.eng.SelectDesign(ctx, mode, manual)
}

// RecordResponse applies the Bayesian update for an observed response,
// appends the trial to the session history, and checkpoints the new
// posterior. A checkpoint failure is logged but does not fail the trial: the
// in-memory belief state is already consistent.
func (s *ExperimentService) RecordResponse(ctx context.Context, mode engine.SelectionMode, design engine.Design, response float64) (Trial, error) {
	if err := s.eng.Update(design.Values, response); err != nil {
		return Trial{}, err
	}

	trial := Trial{
		Number:   len(s.trials) + 1,
		Mode:     mode,
		Design:   design,
		Response: response,
		Summary:  s.eng.Posterior().Summarize(),
	}
	s.trials = append(s.trials, trial)

	if s.checkpoints != nil {
		params := s.eng.ParamGrid()
		points := make([][]float64, params.Len())
		for i := range points {
			points[i] = params.Point(i)
		}
		cp := &ports.Checkpoint{
			SessionID:   s.sessionID,
			Trial:       trial.Number,
			Posterior:   s.eng.Posterior().Mass(),
			GridNames:   params.Names(),
			GridPoints:  points,
			Fingerprint: params.Fingerprint(),
			CreatedAt:   core.Now(),
		}
		if err := s.checkpoints.Save(ctx, cp); err != nil {
			s.logger.Warn("checkpoint save failed for session %s trial %d: %v",
				s.sessionID, trial.Number, err)
		}
	}
	return trial, nil
}

// Trials returns the session's trial history.
func (s *ExperimentService) Trials() []Trial {
	out := make([]Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// Summary returns the current posterior summary.
func (s *ExperimentService) Summary() belief.Summary {
	return s.eng.Posterior().Summarize()
}

// Reset restores the posterior to the initial prior and clears the trial
// history.
func (s *ExperimentService) Reset() {
	s.eng.Reset()
	s.trials = nil
}
