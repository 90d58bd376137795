package healpix_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/kjkrol/gohips/pkg/healpix"
)

func TestAllSkyCount(t *testing.T) {
	for depth := uint8(0); depth <= 4; depth++ {
		cells := healpix.AllSky(depth)
		want := 12 * int(math.Pow(4, float64(depth)))
		if cells.Len() != want {
			t.Errorf("AllSky(%d) has %d cells, want %d", depth, cells.Len(), want)
		}
		cells.Each(func(c healpix.Cell) {
			if !c.Valid() || c.Depth != depth {
				t.Errorf("AllSky(%d) contains invalid cell %v", depth, c)
			}
		})
	}
}

func TestDegrade(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	orig := healpix.NewCells(5)
	for i := 0; i < 200; i++ {
		orig.Insert(healpix.Cell{Depth: 5, Index: uint64(r.Int63n(int64(healpix.NumCells(5))))})
	}
	got := orig.Degrade(2)
	if got.Depth() != 2 {
		t.Fatalf("Degrade depth = %d, want 2", got.Depth())
	}
	if got.Len() > orig.Len() {
		t.Errorf("Degrade grew the set: %d > %d", got.Len(), orig.Len())
	}
	got.Each(func(c healpix.Cell) {
		found := false
		orig.Each(func(o healpix.Cell) {
			if o.Index>>6 == c.Index {
				found = true
			}
		})
		if !found {
			t.Errorf("degraded cell %v has no source cell", c)
		}
	})
	if same := orig.Degrade(7); same != orig {
		t.Error("Degrade toward a finer depth should return the set unchanged")
	}
}

func TestParentAndChildren(t *testing.T) {
	c := healpix.Cell{Depth: 3, Index: 37}
	if diff := cmp.Diff(healpix.Cell{Depth: 2, Index: 9}, c.Parent()); diff != "" {
		t.Errorf("Parent() mismatch (-want +got):\n%s", diff)
	}
	if got := c.Ancestor(0); got != (healpix.Cell{Depth: 0, Index: 0}) {
		t.Errorf("Ancestor(0) = %v", got)
	}
	for _, child := range c.Children() {
		if child.Parent() != c {
			t.Errorf("child %v does not point back to %v", child, c)
		}
		if !c.IsAncestorOf(child) {
			t.Errorf("%v should be an ancestor of %v", c, child)
		}
	}
	root := healpix.Cell{Depth: 0, Index: 5}
	if root.Parent() != root {
		t.Error("root cell must be its own parent")
	}
}

func TestHashCenterRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for depth := uint8(0); depth <= 10; depth++ {
		for k := 0; k < 100; k++ {
			c := healpix.Cell{Depth: depth, Index: uint64(r.Int63n(int64(healpix.NumCells(depth))))}
			lon, lat := c.Center()
			if got := healpix.Hash(depth, lon, lat); got != c {
				t.Fatalf("Hash(Center(%v)) = %v", c, got)
			}
			if got := healpix.HashVector(depth, c.CenterVector()); got != c {
				t.Fatalf("HashVector(CenterVector(%v)) = %v", c, got)
			}
			u, v := c.Local(lon, lat)
			if math.Abs(u-0.5) > 1e-6 || math.Abs(v-0.5) > 1e-6 {
				t.Fatalf("Local(Center(%v)) = (%f, %f), want (0.5, 0.5)", c, u, v)
			}
		}
	}
}

func TestHashCoversSphere(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	seen := make(map[healpix.Cell]bool)
	for k := 0; k < 20000; k++ {
		lon := r.Float64() * 2 * math.Pi
		lat := math.Asin(2*r.Float64() - 1)
		c := healpix.Hash(1, lon, lat)
		if !c.Valid() {
			t.Fatalf("Hash returned invalid cell %v", c)
		}
		seen[c] = true
	}
	if len(seen) != 48 {
		t.Errorf("random points hit %d depth-1 cells, want 48", len(seen))
	}
}

func TestGridSize(t *testing.T) {
	c := healpix.Cell{Depth: 4, Index: 1000}
	grid := c.Grid(4)
	if len(grid) != 25 {
		t.Fatalf("Grid(4) has %d vertices, want 25", len(grid))
	}
	for _, v := range grid {
		if math.Abs(v.Len()-1) > 1e-9 {
			t.Fatalf("grid vertex %v is not a unit vector", v)
		}
	}
	vs := c.Vertices()
	if healpix.AngularDistance(grid[0], vs[0]) > 1e-9 || healpix.AngularDistance(grid[24], vs[2]) > 1e-9 {
		t.Error("grid corners do not match the S and N vertices")
	}
}

func TestFreshCells(t *testing.T) {
	fresh := healpix.NewFreshCells()
	first := healpix.NewCells(1, healpix.Cell{Depth: 1, Index: 1}, healpix.Cell{Depth: 1, Index: 2})
	fresh.Update(first)
	if !fresh.IsThereNewCellsAdded() {
		t.Fatal("first update must flag new cells")
	}
	fresh.Update(first)
	if fresh.IsThereNewCellsAdded() {
		t.Fatal("same set twice must not flag new cells")
	}
	second := healpix.NewCells(1, healpix.Cell{Depth: 1, Index: 2}, healpix.Cell{Depth: 1, Index: 3})
	fresh.Update(second)
	if !fresh.IsThereNewCellsAdded() || !fresh.IsNew(healpix.Cell{Depth: 1, Index: 3}) || fresh.IsNew(healpix.Cell{Depth: 1, Index: 2}) {
		t.Fatal("diff against the previous set is wrong")
	}
	if diff := cmp.Diff([]healpix.Cell{{Depth: 1, Index: 3}}, fresh.Cells().Sorted()); diff != "" {
		t.Errorf("Cells() mismatch (-want +got):\n%s", diff)
	}
	fresh.ResetFrame()
	if fresh.IsThereNewCellsAdded() {
		t.Error("ResetFrame must clear the aggregate flag")
	}
}

func TestPolygonCoverage(t *testing.T) {
	center := healpix.LonLatToVector(1.0, 0.3)
	d := 0.05
	vertices := []mgl64.Vec3{
		healpix.LonLatToVector(1.0-d, 0.3-d),
		healpix.LonLatToVector(1.0+d, 0.3-d),
		healpix.LonLatToVector(1.0+d, 0.3+d),
		healpix.LonLatToVector(1.0-d, 0.3+d),
	}
	cov := healpix.PolygonCoverage(6, vertices, center)
	if cov.Depth() != 6 || cov.IsEmpty() {
		t.Fatalf("coverage depth=%d len=%d", cov.Depth(), cov.Len())
	}
	if !cov.Contains(healpix.HashVector(6, center)) {
		t.Error("coverage misses the cell of the inside point")
	}
	for _, v := range vertices {
		if !cov.Contains(healpix.HashVector(6, v)) {
			t.Errorf("coverage misses the cell of vertex %v", v)
		}
	}
	if cov.Len() >= healpix.AllSky(6).Len()/10 {
		t.Errorf("coverage of a small polygon is too large: %d cells", cov.Len())
	}
	far := healpix.HashVector(6, center.Mul(-1))
	if cov.Contains(far) {
		t.Error("coverage contains the antipodal cell")
	}
}

func TestPolygonContains(t *testing.T) {
	inside := healpix.LonLatToVector(0, math.Pi/2)
	poly := healpix.NewPolygon([]mgl64.Vec3{
		healpix.LonLatToVector(0, 1.2),
		healpix.LonLatToVector(2*math.Pi/3, 1.2),
		healpix.LonLatToVector(4*math.Pi/3, 1.2),
	}, inside)
	if !poly.Contains(healpix.LonLatToVector(1, 1.5)) {
		t.Error("point near the pole should be inside")
	}
	if poly.Contains(healpix.LonLatToVector(1, 0)) {
		t.Error("equatorial point should be outside")
	}
}

func TestLargestCenterToVertexDistance(t *testing.T) {
	for depth := uint8(2); depth < 8; depth++ {
		max := healpix.LargestCenterToVertexDistance(depth, 0, healpix.TransitionLatitude)
		min := healpix.LargestCenterToVertexDistance(depth, 0, healpix.LatitudeOfSquareCell)
		if !(max > min) {
			t.Errorf("depth %d: transition distance %g should exceed square-cell distance %g", depth, max, min)
		}
	}
}
