package api

import (
	"encoding/json"
	"net/http"

	"adogo/adapters/tasks"
	"adogo/app"
	"adogo/domain/core"
	"adogo/domain/engine"
	"adogo/domain/grid"
	apperrors "adogo/internal/errors"

	"github.com/go-chi/chi/v5"
)

// groupSpec mirrors grid.Group for JSON declaration of one grid axis.
type groupSpec struct {
	Names []string    `json:"names"`
	Rows  [][]float64 `json:"rows"`
}

type createSessionRequest struct {
	Model   string      `json:"model"`
	Designs []groupSpec `json:"designs"`
	Params  []groupSpec `json:"params"`
	Seed    *int64      `json:"seed,omitempty"`
	Prior   []float64   `json:"prior,omitempty"`
}

type createSessionResponse struct {
	SessionID string   `json:"session_id"`
	Designs   int      `json:"design_points"`
	Params    int      `json:"parameter_points"`
	Variables []string `json:"design_variables"`
}

type updateRequest struct {
	Design   map[string]float64 `json:"design"`
	Response float64            `json:"response"`
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"models": tasks.Keys()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.InvalidInput("malformed request body"))
		return
	}

	entry, err := tasks.Lookup(req.Model)
	if err != nil {
		s.writeError(w, err)
		return
	}
	designGrid, err := buildGrid(req.Designs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	paramGrid, err := buildGrid(req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := []engine.Option{engine.WithSeed(s.seed), engine.WithEpsilon(s.epsilon)}
	if req.Seed != nil {
		opts[0] = engine.WithSeed(*req.Seed)
	}
	if req.Prior != nil {
		opts = append(opts, engine.WithPrior(req.Prior))
	}

	eng, err := engine.New(r.Context(), entry.Task, entry.Model, designGrid, paramGrid, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}

	svc := app.NewExperimentService(eng)
	s.register(svc.SessionID().String(), svc)
	s.logger.Info("created session %s model=%s designs=%d params=%d",
		svc.SessionID(), req.Model, designGrid.Len(), paramGrid.Len())

	s.writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: svc.SessionID().String(),
		Designs:   designGrid.Len(),
		Params:    paramGrid.Len(),
		Variables: designGrid.Names(),
	})
}

func (s *Server) handleSelectDesign(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, apperrors.NotFound("session"))
		return
	}

	mode := engine.SelectionMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = engine.SelectOptimal
	}
	var manual map[string]float64
	if mode == engine.SelectManual {
		if err := json.NewDecoder(r.Body).Decode(&manual); err != nil {
			s.writeError(w, apperrors.InvalidInput("manual mode requires a design point body"))
			return
		}
	}

	sess.mu.Lock()
	design, err := sess.svc.NextDesign(r.Context(), mode, manual)
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, design)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, apperrors.NotFound("session"))
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.InvalidInput("malformed request body"))
		return
	}

	sess.mu.Lock()
	design, err := sess.svc.NextDesign(r.Context(), engine.SelectManual, req.Design)
	if err == nil {
		var trial app.Trial
		trial, err = sess.svc.RecordResponse(r.Context(), engine.SelectManual, design, req.Response)
		if err == nil {
			sess.mu.Unlock()
			s.writeJSON(w, http.StatusOK, trial)
			return
		}
	}
	sess.mu.Unlock()
	s.writeError(w, err)
}

func (s *Server) handlePosterior(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, apperrors.NotFound("session"))
		return
	}

	sess.mu.Lock()
	summary := sess.svc.Summary()
	var mass []float64
	if r.URL.Query().Get("full") == "true" {
		mass = sess.svc.Engine().Posterior().Mass()
	}
	var marginal map[string]interface{}
	if name := r.URL.Query().Get("marginal"); name != "" {
		values, weights, err := sess.svc.Engine().Posterior().Marginal(name)
		if err != nil {
			sess.mu.Unlock()
			s.writeError(w, err)
			return
		}
		marginal = map[string]interface{}{"name": name, "values": values, "mass": weights}
	}
	sess.mu.Unlock()

	resp := map[string]interface{}{"summary": summary}
	if mass != nil {
		resp["mass"] = mass
	}
	if marginal != nil {
		resp["marginal"] = marginal
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrials(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, apperrors.NotFound("session"))
		return
	}
	sess.mu.Lock()
	trials := sess.svc.Trials()
	sess.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"trials": trials})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, apperrors.NotFound("session"))
		return
	}
	sess.mu.Lock()
	sess.svc.Reset()
	sess.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func buildGrid(specs []groupSpec) (*grid.Grid, error) {
	groups := make([]grid.Group, len(specs))
	for i, sp := range specs {
		groups[i] = grid.Group{Names: sp.Names, Rows: sp.Rows}
	}
	return grid.Build(groups...)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Status is already on the wire; the failure can only be logged.
		s.logger.Error("response encoding failed: %v", err)
	}
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.GetCode(err) == apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.GetCode(err) == apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case core.IsConfigurationError(err):
		status = http.StatusBadRequest
	case core.IsDomainError(err):
		status = http.StatusUnprocessableEntity
	case core.IsNumericalError(err):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
