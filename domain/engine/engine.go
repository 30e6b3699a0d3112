package engine

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"adogo/domain/belief"
	"adogo/domain/core"
	"adogo/domain/grid"
)

// DefaultEpsilon is the probability floor applied before any logarithm.
// Configurable per engine; there is no single correct value, only one small
// enough not to distort the information ordering.
const DefaultEpsilon = 1e-7

// DefaultSeed drives random design selection when no explicit seed is given.
const DefaultSeed = 42

// Design is a selected design point: its stable grid index, its values keyed
// by design-variable name, and (for optimal selection) the expected
// information gain in nats.
type Design struct {
	Index  int                `json:"index"`
	Values map[string]float64 `json:"values"`
	Gain   float64            `json:"gain"`
}

// MarshalJSON omits the gain field for selection modes that do not compute
// one: NaN has no JSON representation and would abort encoding mid-response.
func (d Design) MarshalJSON() ([]byte, error) {
	out := struct {
		Index  int                `json:"index"`
		Values map[string]float64 `json:"values"`
		Gain   *float64           `json:"gain,omitempty"`
	}{Index: d.Index, Values: d.Values}
	if !math.IsNaN(d.Gain) {
		out.Gain = &d.Gain
	}
	return json.Marshal(out)
}

// Engine owns one experiment session's mutable state: the grids, the
// likelihood table, the posterior, and the RNG for random selection. One
// engine per session; not safe for concurrent mutation without external
// synchronization.
type Engine struct {
	task    Task
	model   Model
	designs *grid.Grid
	params  *grid.Grid
	lik     *Likelihood
	post    *belief.Posterior
	prior   []float64
	rng     *rand.Rand
	eps     float64
}

// Option configures engine construction.
type Option func(*Engine)

// WithSeed fixes the RNG seed for reproducible random selection.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand supplies an externally owned RNG stream.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithPrior replaces the uniform initial belief. The vector must match the
// parameter grid; it is renormalized on construction.
func WithPrior(prior []float64) Option {
	return func(e *Engine) {
		e.prior = make([]float64, len(prior))
		copy(e.prior, prior)
	}
}

// WithEpsilon overrides the probability floor.
func WithEpsilon(eps float64) Option {
	return func(e *Engine) { e.eps = eps }
}

// New constructs an engine: validates the task and model against the grids,
// builds the likelihood table in batch, and initializes the posterior from
// the uniform (or supplied) prior.
func New(ctx context.Context, task Task, model Model, designs, params *grid.Grid, opts ...Option) (*Engine, error) {
	if err := task.validate(); err != nil {
		return nil, err
	}
	if err := model.validate(task); err != nil {
		return nil, err
	}

	e := &Engine{
		task:    task,
		model:   model,
		designs: designs,
		params:  params,
		eps:     DefaultEpsilon,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(DefaultSeed))
	}

	lik, err := buildLikelihood(ctx, task, model, designs, params, e.eps)
	if err != nil {
		return nil, err
	}
	e.lik = lik

	if e.prior == nil {
		e.post = belief.Uniform(params)
		e.prior = e.post.Mass()
	} else {
		post, err := belief.FromPrior(params, e.prior)
		if err != nil {
			return nil, err
		}
		e.post = post
		e.prior = post.Mass() // keep the normalized form for Reset
	}
	return e, nil
}

// Task returns the immutable task descriptor.
func (e *Engine) Task() Task { return e.task }

// Model returns the immutable model descriptor.
func (e *Engine) Model() Model { return e.model }

// DesignGrid returns the design grid.
func (e *Engine) DesignGrid() *grid.Grid { return e.designs }

// ParamGrid returns the parameter grid.
func (e *Engine) ParamGrid() *grid.Grid { return e.params }

// Posterior returns the current belief store.
func (e *Engine) Posterior() *belief.Posterior { return e.post }

// Likelihood returns the immutable probability table.
func (e *Engine) Likelihood() *Likelihood { return e.lik }

// MutualInfo returns the expected information gain for every design-grid
// point under the current posterior. Pure read; mutates nothing.
func (e *Engine) MutualInfo(ctx context.Context) ([]float64, error) {
	return e.lik.mutualInfo(ctx, e.post.Mass())
}

// SelectDesign chooses the next design. Optimal and random modes ignore
// manual; manual mode validates the supplied point against the design grid.
// Only random mode consumes RNG state.
func (e *Engine) SelectDesign(ctx context.Context, mode SelectionMode, manual map[string]float64) (Design, error) {
	switch mode {
	case SelectOptimal:
		gain, err := e.lik.mutualInfo(ctx, e.post.Mass())
		if err != nil {
			return Design{}, err
		}
		idx := argmaxFirst(gain)
		return Design{Index: idx, Values: e.designs.Labeled(idx), Gain: gain[idx]}, nil

	case SelectRandom:
		idx := e.rng.Intn(e.designs.Len())
		return Design{Index: idx, Values: e.designs.Labeled(idx), Gain: math.NaN()}, nil

	case SelectManual:
		idx, ok := e.designs.IndexOfLabeled(manual)
		if !ok {
			return Design{}, core.NewInvalidDesignError(formatPoint(manual))
		}
		return Design{Index: idx, Values: e.designs.Labeled(idx), Gain: math.NaN()}, nil

	default:
		return Design{}, core.NewConfigurationError("unknown selection mode " + string(mode))
	}
}

// DesignAt returns the design point at a known grid index.
func (e *Engine) DesignAt(index int) (Design, error) {
	if index < 0 || index >= e.designs.Len() {
		return Design{}, core.NewInvalidDesignError("index out of range")
	}
	return Design{Index: index, Values: e.designs.Labeled(index), Gain: math.NaN()}, nil
}

// Update applies Bayes' rule for an observed (design, response) pair and
// commits the result through the posterior's single mutation entry point.
// The multiply-and-renormalize runs in the log domain, shifted by the
// maximum, so extreme likelihoods cannot underflow before normalization.
// Fails atomically: on any error the posterior is untouched.
func (e *Engine) Update(design map[string]float64, response float64) error {
	d, ok := e.designs.IndexOfLabeled(design)
	if !ok {
		return core.NewInvalidDesignError(formatPoint(design))
	}
	y, ok := e.task.responseIndex(response)
	if !ok {
		return core.NewInvalidResponseError(response)
	}

	mass := e.post.Mass()
	logSlice := e.lik.LogSlice(d, y)
	maxLog := math.Inf(-1)
	for p, m := range mass {
		logSlice[p] += math.Log(m)
		if logSlice[p] > maxLog {
			maxLog = logSlice[p]
		}
	}
	if math.IsInf(maxLog, -1) {
		return core.NewDegeneratePosteriorError(0)
	}
	next := make([]float64, len(mass))
	for p, lv := range logSlice {
		next[p] = math.Exp(lv - maxLog)
	}
	return e.post.Replace(next)
}

// Reset restores the posterior to the initial prior, discarding all trial
// history. Grids and the likelihood table are untouched.
func (e *Engine) Reset() {
	// Replace cannot fail here: the stored prior is already validated and normalized.
	_ = e.post.Replace(e.prior)
}

// ReplaceGrids swaps in new grids and rebuilds the likelihood table. The
// posterior is re-initialized uniform over the new parameter grid, since the
// old belief vector has no meaning against different indices.
func (e *Engine) ReplaceGrids(ctx context.Context, designs, params *grid.Grid) error {
	lik, err := buildLikelihood(ctx, e.task, e.model, designs, params, e.eps)
	if err != nil {
		return err
	}
	e.designs = designs
	e.params = params
	e.lik = lik
	e.post = belief.Uniform(params)
	e.prior = e.post.Mass()
	return nil
}

func formatPoint(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(values[k], 'g', -1, 64))
	}
	b.WriteByte('}')
	return b.String()
}
