package healpix

import "sort"

// Cells is a set of cells sharing a single depth.
type Cells struct {
	depth uint8
	set   map[Cell]struct{}
}

// NewCells builds a set at depth. Cells of another depth are ignored.
func NewCells(depth uint8, cells ...Cell) *Cells {
	c := &Cells{depth: depth, set: make(map[Cell]struct{}, len(cells))}
	for _, cell := range cells {
		c.Insert(cell)
	}
	return c
}

// AllSky returns the 12·4^depth cells covering the whole sphere.
func AllSky(depth uint8) *Cells {
	n := NumCells(depth)
	c := &Cells{depth: depth, set: make(map[Cell]struct{}, n)}
	for idx := uint64(0); idx < n; idx++ {
		c.set[Cell{Depth: depth, Index: idx}] = struct{}{}
	}
	return c
}

func (c *Cells) Depth() uint8 {
	return c.depth
}

func (c *Cells) Len() int {
	return len(c.set)
}

func (c *Cells) IsEmpty() bool {
	return len(c.set) == 0
}

func (c *Cells) Contains(cell Cell) bool {
	_, ok := c.set[cell]
	return ok
}

// Insert adds cell and reports whether it has the set's depth.
func (c *Cells) Insert(cell Cell) bool {
	if cell.Depth != c.depth {
		return false
	}
	if c.set == nil {
		c.set = make(map[Cell]struct{})
	}
	c.set[cell] = struct{}{}
	return true
}

// Degrade returns the set of ancestors at depth. Degrading toward a finer
// depth is not possible and returns the set unchanged.
func (c *Cells) Degrade(depth uint8) *Cells {
	if depth >= c.depth {
		return c
	}
	shift := 2 * uint64(c.depth-depth)
	out := &Cells{depth: depth, set: make(map[Cell]struct{}, len(c.set))}
	for cell := range c.set {
		out.set[Cell{Depth: depth, Index: cell.Index >> shift}] = struct{}{}
	}
	return out
}

// Each calls fn for every cell in unspecified order.
func (c *Cells) Each(fn func(Cell)) {
	for cell := range c.set {
		fn(cell)
	}
}

// Sorted returns the cells ordered by index.
func (c *Cells) Sorted() []Cell {
	out := make([]Cell, 0, len(c.set))
	for cell := range c.set {
		out = append(out, cell)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// FreshCells flags which cells of the current set were absent from the
// previous one. It only remembers the last update.
type FreshCells struct {
	depth      uint8
	flags      map[Cell]bool
	newlyAdded bool
}

func NewFreshCells() *FreshCells {
	return &FreshCells{flags: make(map[Cell]bool)}
}

// Update replaces the tracked set by cells and recomputes the flags.
func (f *FreshCells) Update(cells *Cells) {
	flags := make(map[Cell]bool, cells.Len())
	added := false
	cells.Each(func(cell Cell) {
		_, seen := f.flags[cell]
		flags[cell] = !seen
		added = added || !seen
	})
	f.depth = cells.Depth()
	f.flags = flags
	f.newlyAdded = added
}

func (f *FreshCells) IsThereNewCellsAdded() bool {
	return f.newlyAdded
}

func (f *FreshCells) IsNew(cell Cell) bool {
	return f.flags[cell]
}

// Cells returns the cells flagged as new.
func (f *FreshCells) Cells() *Cells {
	out := NewCells(f.depth)
	for cell, isNew := range f.flags {
		if isNew {
			out.Insert(cell)
		}
	}
	return out
}

// ResetFrame clears the aggregate flag once a frame has consumed it.
func (f *FreshCells) ResetFrame() {
	f.newlyAdded = false
}
