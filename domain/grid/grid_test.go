package grid

import (
	"errors"
	"testing"

	"adogo/domain/core"
)

// TestBuildCrossProductOrder tests row-major enumeration over declared axes
func TestBuildCrossProductOrder(t *testing.T) {
	g, err := Build(
		Axis("a", []float64{1, 2}),
		Axis("b", []float64{10, 20, 30}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 6 {
		t.Fatalf("expected 6 points, got %d", g.Len())
	}

	// Last axis varies fastest
	expected := [][]float64{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}
	for i, want := range expected {
		got := g.Point(i)
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("point %d: expected %v, got %v", i, want, got)
			}
		}
	}
}

// TestBuildJointGroup tests that joint rows stay paired
func TestBuildJointGroup(t *testing.T) {
	// x1 > x2 constraint encoded as pre-paired rows
	g, err := Build(
		Joint([]string{"x1", "x2"}, [][]float64{{2, 1}, {3, 1}, {3, 2}}),
		Axis("y", []float64{0, 1}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 6 {
		t.Fatalf("expected 6 points, got %d", g.Len())
	}
	for i := 0; i < g.Len(); i++ {
		pt := g.Labeled(i)
		if pt["x1"] <= pt["x2"] {
			t.Errorf("point %d violates x1 > x2 pairing: %v", i, pt)
		}
	}
}

// TestBuildValidation tests configuration error cases
func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name   string
		groups []Group
		want   error
	}{
		{
			name:   "no groups",
			groups: nil,
			want:   core.ErrEmptyGrid,
		},
		{
			name:   "empty axis",
			groups: []Group{Axis("a", nil)},
			want:   core.ErrEmptyGrid,
		},
		{
			name: "column mismatch",
			groups: []Group{
				Joint([]string{"a", "b"}, [][]float64{{1, 2, 3}}),
			},
			want: core.ErrColumnMismatch,
		},
		{
			name: "duplicate name",
			groups: []Group{
				Axis("a", []float64{1}),
				Axis("a", []float64{2}),
			},
			want: core.ErrDuplicateName,
		},
		{
			name: "reserved name",
			groups: []Group{
				Axis("response", []float64{0, 1}),
			},
			want: core.ErrReservedName,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Build(test.groups...)
			if !errors.Is(err, test.want) {
				t.Errorf("expected %v, got %v", test.want, err)
			}
		})
	}
}

// TestIndexLookup tests exact point resolution
func TestIndexLookup(t *testing.T) {
	g, err := Build(
		Axis("a", []float64{1, 2}),
		Axis("b", []float64{10, 20}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx, ok := g.IndexOfLabeled(map[string]float64{"a": 2, "b": 10})
	if !ok || idx != 2 {
		t.Errorf("expected index 2, got %d (ok=%v)", idx, ok)
	}

	if _, ok := g.IndexOfLabeled(map[string]float64{"a": 3, "b": 10}); ok {
		t.Error("expected lookup miss for value outside grid")
	}
	if _, ok := g.IndexOfLabeled(map[string]float64{"a": 1}); ok {
		t.Error("expected lookup miss for missing variable")
	}
}

// TestColumn tests per-variable value extraction in grid order
func TestColumn(t *testing.T) {
	g, err := Build(
		Axis("a", []float64{1, 2}),
		Axis("b", []float64{10, 20}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	col, ok := g.Column("a")
	if !ok {
		t.Fatal("expected column for declared variable")
	}
	want := []float64{1, 1, 2, 2}
	for i := range want {
		if col[i] != want[i] {
			t.Errorf("column a[%d]: expected %v, got %v", i, want[i], col[i])
		}
	}
	if _, ok := g.Column("missing"); ok {
		t.Error("expected miss for undeclared variable")
	}
}

// TestFingerprintStability tests reproducible fingerprints across rebuilds
func TestFingerprintStability(t *testing.T) {
	build := func() *Grid {
		g, err := Build(Axis("a", []float64{1, 2, 3}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return g
	}
	if build().Fingerprint() != build().Fingerprint() {
		t.Error("identical declarations should produce identical fingerprints")
	}

	other, err := Build(Axis("a", []float64{1, 2, 4}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if build().Fingerprint() == other.Fingerprint() {
		t.Error("different grids should produce different fingerprints")
	}
}
