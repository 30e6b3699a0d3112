package grid

import (
	"strconv"
	"strings"

	"adogo/domain/core"
)

// Reserved variable names that would collide with the response axis
// conventions used by the likelihood table.
var reservedNames = map[string]bool{
	"response": true,
	"y_obs":    true,
}

// Group declares one axis of the grid: either a single independent variable
// with its candidate values, or several variables declared jointly so that
// cross-variable constraints (e.g. x1 > x2) can be encoded as pre-paired rows.
type Group struct {
	Names []string
	Rows  [][]float64
}

// Axis declares an independent variable with its candidate values.
func Axis(name string, values []float64) Group {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return Group{Names: []string{name}, Rows: rows}
}

// Joint declares several variables sharing one set of candidate tuples.
func Joint(names []string, rows [][]float64) Group {
	return Group{Names: names, Rows: rows}
}

// Grid is the enumerated set of all admissible points, each point one value
// per declared variable. Point order is row-major over the declared group
// order (the last group varies fastest) and is stable across a session, so
// integer indices identify points everywhere downstream.
type Grid struct {
	names       []string
	points      [][]float64
	index       map[string]int
	fingerprint core.GridFingerprint
}

// Build expands the declared groups into the full cross product.
func Build(groups ...Group) (*Grid, error) {
	if len(groups) == 0 {
		return nil, core.ErrEmptyGrid
	}

	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, g := range groups {
		if len(g.Names) == 0 {
			return nil, core.NewConfigurationError("group declares no variable names")
		}
		if len(g.Rows) == 0 {
			return nil, core.ErrEmptyGrid
		}
		for _, row := range g.Rows {
			if len(row) != len(g.Names) {
				return nil, core.ErrColumnMismatch
			}
		}
		for _, n := range g.Names {
			if n == "" {
				return nil, core.NewConfigurationError("variable name is empty")
			}
			if reservedNames[n] {
				return nil, core.ErrReservedName
			}
			if seen[n] {
				return nil, core.ErrDuplicateName
			}
			seen[n] = true
			names = append(names, n)
		}
	}

	total := 1
	for _, g := range groups {
		total *= len(g.Rows)
	}

	points := make([][]float64, total)
	for i := 0; i < total; i++ {
		point := make([]float64, 0, len(names))
		rem := i
		// Row-major: decode indices with the last group varying fastest.
		idx := make([]int, len(groups))
		for gi := len(groups) - 1; gi >= 0; gi-- {
			n := len(groups[gi].Rows)
			idx[gi] = rem % n
			rem /= n
		}
		for gi, g := range groups {
			point = append(point, g.Rows[idx[gi]]...)
		}
		points[i] = point
	}

	index := make(map[string]int, total)
	for i, pt := range points {
		index[pointKey(pt)] = i
	}

	return &Grid{
		names:       names,
		points:      points,
		index:       index,
		fingerprint: core.ComputeGridFingerprint(names, points),
	}, nil
}

// Names returns the declared variable names in axis order.
func (g *Grid) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Len returns the number of grid points.
func (g *Grid) Len() int {
	return len(g.points)
}

// Point returns the values of the point at index i, in variable order.
func (g *Grid) Point(i int) []float64 {
	out := make([]float64, len(g.points[i]))
	copy(out, g.points[i])
	return out
}

// Labeled returns the point at index i as a name-to-value mapping.
func (g *Grid) Labeled(i int) map[string]float64 {
	out := make(map[string]float64, len(g.names))
	for j, n := range g.names {
		out[n] = g.points[i][j]
	}
	return out
}

// IndexOf returns the grid index of an exact point, if present.
func (g *Grid) IndexOf(point []float64) (int, bool) {
	if len(point) != len(g.names) {
		return 0, false
	}
	i, ok := g.index[pointKey(point)]
	return i, ok
}

// IndexOfLabeled resolves a name-to-value mapping to a grid index. Every
// declared variable must be present.
func (g *Grid) IndexOfLabeled(values map[string]float64) (int, bool) {
	point := make([]float64, len(g.names))
	for j, n := range g.names {
		v, ok := values[n]
		if !ok {
			return 0, false
		}
		point[j] = v
	}
	return g.IndexOf(point)
}

// Column returns the values of one variable across all grid points, in grid
// order. Used to feed batched probability-function evaluation.
func (g *Grid) Column(name string) ([]float64, bool) {
	col := -1
	for j, n := range g.names {
		if n == name {
			col = j
			break
		}
	}
	if col < 0 {
		return nil, false
	}
	out := make([]float64, len(g.points))
	for i, pt := range g.points {
		out[i] = pt[col]
	}
	return out, true
}

// Fingerprint identifies this exact grid definition.
func (g *Grid) Fingerprint() core.GridFingerprint {
	return g.fingerprint
}

func pointKey(point []float64) string {
	var b strings.Builder
	for i, v := range point {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
