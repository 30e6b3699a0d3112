package belief

import (
	"math"

	"adogo/domain/core"
	"adogo/domain/grid"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Mass below this total is treated as numerically vanished rather than
// renormalized. Renormalizing it would amplify pure rounding noise into a
// confident-looking belief.
const degenerateMassFloor = 1e-300

// Posterior holds the current belief: one probability mass value per
// parameter-grid point. It is mutated only through Replace, which validates
// and renormalizes, so the vector always sums to one.
type Posterior struct {
	grid *grid.Grid
	mass []float64
}

// Uniform creates a posterior with equal mass on every parameter-grid point.
func Uniform(g *grid.Grid) *Posterior {
	n := g.Len()
	mass := make([]float64, n)
	for i := range mass {
		mass[i] = 1.0 / float64(n)
	}
	return &Posterior{grid: g, mass: mass}
}

// FromPrior creates a posterior from a user-supplied prior over the same
// grid. The prior is validated and renormalized; it does not need to sum to
// one on input.
func FromPrior(g *grid.Grid, prior []float64) (*Posterior, error) {
	if len(prior) != g.Len() {
		return nil, core.ErrPriorShape
	}
	p := &Posterior{grid: g, mass: make([]float64, g.Len())}
	if err := p.Replace(prior); err != nil {
		return nil, err
	}
	return p, nil
}

// Grid returns the parameter grid this posterior indexes.
func (p *Posterior) Grid() *grid.Grid {
	return p.grid
}

// Len returns the number of parameter-grid points.
func (p *Posterior) Len() int {
	return len(p.mass)
}

// Mass returns a copy of the full belief vector.
func (p *Posterior) Mass() []float64 {
	out := make([]float64, len(p.mass))
	copy(out, p.mass)
	return out
}

// MassAt returns the belief mass at one parameter-grid index.
func (p *Posterior) MassAt(i int) float64 {
	return p.mass[i]
}

// Replace is the sole mutation entry point. It validates that the incoming
// vector is non-negative and carries distinguishable mass, renormalizes it to
// sum to one, and commits it wholesale. On error the stored vector is left
// untouched.
func (p *Posterior) Replace(vec []float64) error {
	if len(vec) != len(p.mass) {
		return core.ErrPriorShape
	}
	sum := 0.0
	for _, v := range vec {
		if v < 0 || math.IsNaN(v) {
			return core.ErrNegativeMass
		}
		sum += v
	}
	if math.IsInf(sum, 0) {
		return core.NewInstabilityError("posterior replacement overflowed")
	}
	if sum < degenerateMassFloor {
		return core.NewDegeneratePosteriorError(sum)
	}
	for i, v := range vec {
		p.mass[i] = v / sum
	}
	return nil
}

// Mean returns the grid-weighted mean of each parameter.
func (p *Posterior) Mean() map[string]float64 {
	out := make(map[string]float64, len(p.grid.Names()))
	for _, name := range p.grid.Names() {
		col, _ := p.grid.Column(name)
		out[name] = stat.Mean(col, p.mass)
	}
	return out
}

// Variance returns the grid-weighted variance of each parameter. These are
// population moments of the belief distribution, not sample estimates.
func (p *Posterior) Variance() map[string]float64 {
	out := make(map[string]float64, len(p.grid.Names()))
	for _, name := range p.grid.Names() {
		col, _ := p.grid.Column(name)
		mean := stat.Mean(col, p.mass)
		out[name] = stat.MomentAbout(2, col, mean, p.mass)
	}
	return out
}

// Covariance returns the full parameter covariance matrix, rows and columns
// ordered by the grid's variable names.
func (p *Posterior) Covariance() *mat.SymDense {
	names := p.grid.Names()
	d := len(names)
	cols := make([][]float64, d)
	means := make([]float64, d)
	for j, name := range names {
		cols[j], _ = p.grid.Column(name)
		means[j] = stat.Mean(cols[j], p.mass)
	}
	cov := mat.NewSymDense(d, nil)
	for a := 0; a < d; a++ {
		for b := a; b < d; b++ {
			acc := 0.0
			for i, w := range p.mass {
				acc += w * (cols[a][i] - means[a]) * (cols[b][i] - means[b])
			}
			cov.SetSym(a, b, acc)
		}
	}
	return cov
}

// Marginal returns the marginal distribution of one parameter: its distinct
// values in first-occurrence grid order and the belief mass summed over all
// other parameters.
func (p *Posterior) Marginal(name string) (values, mass []float64, err error) {
	col, ok := p.grid.Column(name)
	if !ok {
		return nil, nil, core.NewConfigurationError("unknown parameter " + name)
	}
	pos := make(map[float64]int)
	for i, v := range col {
		j, seen := pos[v]
		if !seen {
			j = len(values)
			pos[v] = j
			values = append(values, v)
			mass = append(mass, 0)
		}
		mass[j] += p.mass[i]
	}
	return values, mass, nil
}

// Summary bundles the derived statistics for external readers.
type Summary struct {
	Names      []string           `json:"names"`
	Mean       map[string]float64 `json:"mean"`
	Variance   map[string]float64 `json:"variance"`
	Covariance [][]float64        `json:"covariance"`
}

// Summarize computes the full posterior summary.
func (p *Posterior) Summarize() Summary {
	names := p.grid.Names()
	cov := p.Covariance()
	rows := make([][]float64, len(names))
	for a := range names {
		rows[a] = make([]float64, len(names))
		for b := range names {
			rows[a][b] = cov.At(a, b)
		}
	}
	return Summary{
		Names:      names,
		Mean:       p.Mean(),
		Variance:   p.Variance(),
		Covariance: rows,
	}
}
