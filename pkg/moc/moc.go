// Package moc implements multi-order coverage maps: sets of HEALPix cells of
// mixed depths stored as sorted, disjoint ranges of depth-29 indices.
package moc

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/btree"
	"github.com/kjkrol/gohips/pkg/healpix"
)

// Range is the half-open interval [Start, End) of depth-29 cell indices.
type Range struct {
	Start, End uint64
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// CellRange returns the depth-29 indices covered by cell.
func CellRange(cell healpix.Cell) Range {
	shift := 2 * uint64(healpix.MaxDepth-cell.Depth)
	return Range{Start: cell.Index << shift, End: (cell.Index + 1) << shift}
}

func rangeLess(a, b Range) bool {
	return a.Start < b.Start
}

type MOC struct {
	depth  uint8
	ranges *btree.BTreeG[Range]
}

func New() *MOC {
	return &MOC{ranges: btree.NewG(8, rangeLess)}
}

// FromCells builds the coverage of cells, whatever their depths.
func FromCells(cells ...healpix.Cell) *MOC {
	m := New()
	for _, c := range cells {
		m.Add(c)
	}
	return m
}

// FromPolygon builds the coverage of a spherical polygon at depth.
func FromPolygon(depth uint8, vertices []mgl64.Vec3, inside mgl64.Vec3) *MOC {
	m := New()
	healpix.PolygonCoverage(depth, vertices, inside).Each(m.Add)
	return m
}

// Depth is the deepest cell depth added so far.
func (m *MOC) Depth() uint8 {
	return m.depth
}

func (m *MOC) IsEmpty() bool {
	return m.ranges.Len() == 0
}

func (m *MOC) Add(cell healpix.Cell) {
	if !cell.Valid() {
		return
	}
	if cell.Depth > m.depth {
		m.depth = cell.Depth
	}
	m.addRange(CellRange(cell))
}

func (m *MOC) addRange(r Range) {
	if r.Start >= r.End {
		return
	}
	var merged []Range
	m.ranges.DescendLessOrEqual(Range{Start: r.Start}, func(prev Range) bool {
		if prev.End >= r.Start {
			merged = append(merged, prev)
		}
		return false
	})
	m.ranges.AscendGreaterOrEqual(Range{Start: r.Start}, func(next Range) bool {
		if next.Start > r.End {
			return false
		}
		merged = append(merged, next)
		return true
	})
	for _, other := range merged {
		m.ranges.Delete(other)
		if other.Start < r.Start {
			r.Start = other.Start
		}
		if other.End > r.End {
			r.End = other.End
		}
	}
	m.ranges.ReplaceOrInsert(r)
}

// Union adds every range of o.
func (m *MOC) Union(o *MOC) {
	if o.depth > m.depth {
		m.depth = o.depth
	}
	o.ranges.Ascend(func(r Range) bool {
		m.addRange(r)
		return true
	})
}

// Contains reports whether cell is entirely covered.
func (m *MOC) Contains(cell healpix.Cell) bool {
	r := CellRange(cell)
	found := false
	m.ranges.DescendLessOrEqual(Range{Start: r.Start}, func(prev Range) bool {
		found = prev.End >= r.End
		return false
	})
	return found
}

// Intersects reports whether cell is at least partly covered.
func (m *MOC) Intersects(cell healpix.Cell) bool {
	r := CellRange(cell)
	found := false
	m.ranges.DescendLessOrEqual(Range{Start: r.End - 1}, func(prev Range) bool {
		found = prev.End > r.Start
		return false
	})
	return found
}

// Degrade returns the coverage rounded outward to cells of depth.
func (m *MOC) Degrade(depth uint8) *MOC {
	if depth >= m.depth {
		return m.Clone()
	}
	out := New()
	out.depth = depth
	shift := 2 * uint64(healpix.MaxDepth-depth)
	m.ranges.Ascend(func(r Range) bool {
		start := (r.Start >> shift) << shift
		end := ((r.End + (uint64(1) << shift) - 1) >> shift) << shift
		out.addRange(Range{Start: start, End: end})
		return true
	})
	return out
}

func (m *MOC) Clone() *MOC {
	return &MOC{depth: m.depth, ranges: m.ranges.Clone()}
}

// Ranges returns the ranges in increasing order.
func (m *MOC) Ranges() []Range {
	out := make([]Range, 0, m.ranges.Len())
	m.ranges.Ascend(func(r Range) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Cells lists the cells of depth intersecting the coverage.
func (m *MOC) Cells(depth uint8) *healpix.Cells {
	out := healpix.NewCells(depth)
	shift := 2 * uint64(healpix.MaxDepth-depth)
	m.ranges.Ascend(func(r Range) bool {
		last := (r.End - 1) >> shift
		for idx := r.Start >> shift; idx <= last; idx++ {
			out.Insert(healpix.Cell{Depth: depth, Index: idx})
		}
		return true
	})
	return out
}

// SkyFraction returns the covered share of the sphere.
func (m *MOC) SkyFraction() float64 {
	var covered uint64
	m.ranges.Ascend(func(r Range) bool {
		covered += r.End - r.Start
		return true
	})
	return float64(covered) / float64(healpix.NumCells(healpix.MaxDepth))
}
