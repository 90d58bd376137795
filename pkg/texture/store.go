// Package texture keeps track of the HEALPix tiles resident in a fixed set of
// GPU texture slots.
//
// A Store is owned by the render goroutine and is not safe for concurrent use.
// Tiles decoded elsewhere are handed over with Push; the GPU side drains the
// resulting uploads with ConsumeUploads.
package texture

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/btree"
	"github.com/kjkrol/gohips/pkg/healpix"
	"k8s.io/klog/v2"
)

var (
	ErrInvalidConfig = errors.New("invalid texture store config")
	ErrTooDeep       = errors.New("tile deeper than survey max order")
	ErrNoFreeSlot    = errors.New("no evictable texture slot")
)

// MinSlots holds the 12 base cells plus room to stream finer tiles.
const MinSlots = healpix.NumBaseCells + 4

// Config describes the survey a store caches tiles for.
type Config struct {
	URL               string
	MaxOrder          uint8
	TileSize          int
	NumSlots          int
	Format            string
	LongitudeReversed bool
}

func (c Config) validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d", ErrInvalidConfig, c.TileSize)
	case c.NumSlots < MinSlots:
		return fmt.Errorf("%w: %d slots, need at least %d", ErrInvalidConfig, c.NumSlots, MinSlots)
	case c.MaxOrder > healpix.MaxDepth:
		return fmt.Errorf("%w: max order %d", ErrInvalidConfig, c.MaxOrder)
	}
	return nil
}

// Tile is a decoded HiPS tile ready to be registered. A missing tile stands
// for a cell the survey has no data for.
type Tile struct {
	Cell        healpix.Cell
	Image       image.Image
	Missing     bool
	RequestTime time.Time
}

// Texture is a tile resident in a texture slot.
type Texture struct {
	cell    healpix.Cell
	slot    int
	missing bool
	start   time.Time
	image   image.Image
	tick    uint64
}

func (t *Texture) Cell() healpix.Cell   { return t.cell }
func (t *Texture) Slot() int            { return t.slot }
func (t *Texture) IsMissing() bool      { return t.missing }
func (t *Texture) StartTime() time.Time { return t.start }
func (t *Texture) Image() image.Image   { return t.image }

// Upload is a pending copy of a tile image into a texture slot.
type Upload struct {
	Slot    int
	Cell    healpix.Cell
	Image   image.Image
	Missing bool
}

type lruItem struct {
	tick uint64
	cell healpix.Cell
}

func lruLess(a, b lruItem) bool {
	return a.tick < b.tick
}

type Store struct {
	cfg       Config
	epoch     time.Time
	now       func() time.Time
	textures  map[healpix.Cell]*Texture
	lru       *btree.BTreeG[lruItem]
	free      []int
	tick      uint64
	available bool
	uploads   []Upload
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Store{
		cfg:      cfg,
		now:      time.Now,
		textures: make(map[healpix.Cell]*Texture, cfg.NumSlots),
		lru:      btree.NewG(16, lruLess),
		free:     make([]int, 0, cfg.NumSlots),
	}
	for _, opt := range opts {
		opt(s)
	}
	for slot := cfg.NumSlots - 1; slot >= 0; slot-- {
		s.free = append(s.free, slot)
	}
	s.epoch = s.now()
	return s, nil
}

func (s *Store) Config() Config {
	return s.cfg
}

// Epoch is the reference instant texture start times are measured from.
func (s *Store) Epoch() time.Time {
	return s.epoch
}

// Since returns the seconds elapsed between the epoch and t.
func (s *Store) Since(t time.Time) float32 {
	return float32(t.Sub(s.epoch).Seconds())
}

// Now returns the seconds elapsed since the epoch.
func (s *Store) Now() float32 {
	return s.Since(s.now())
}

func (s *Store) Len() int {
	return len(s.textures)
}

func (s *Store) Contains(cell healpix.Cell) bool {
	_, ok := s.textures[cell]
	return ok
}

func (s *Store) Get(cell healpix.Cell) (*Texture, bool) {
	t, ok := s.textures[cell]
	return t, ok
}

// NearestParent walks up from the parent of cell and returns the first
// ancestor with a loaded texture. A base cell is its own parent. The walk
// stops at depth 0 and reports false when nothing is loaded.
func (s *Store) NearestParent(cell healpix.Cell) (healpix.Cell, bool) {
	for p := cell.Parent(); ; p = p.Parent() {
		if s.Contains(p) {
			return p, true
		}
		if p.IsRoot() {
			return healpix.Cell{}, false
		}
	}
}

// IsReady reports whether the 12 base cells are loaded.
func (s *Store) IsReady() bool {
	for idx := uint64(0); idx < healpix.NumBaseCells; idx++ {
		if !s.Contains(healpix.Cell{Index: idx}) {
			return false
		}
	}
	return true
}

// IsThereAvailableTiles reports whether tiles were pushed since the last call.
func (s *Store) IsThereAvailableTiles() bool {
	available := s.available
	s.available = false
	return available
}

// Push registers a decoded tile. Tiles already resident are ignored. When all
// slots are taken the least recently used non-base tile is evicted.
func (s *Store) Push(tile Tile) error {
	if tile.Cell.Depth > s.cfg.MaxOrder {
		return fmt.Errorf("%w: %v > %d", ErrTooDeep, tile.Cell, s.cfg.MaxOrder)
	}
	if s.Contains(tile.Cell) {
		return nil
	}
	slot, err := s.allocate()
	if err != nil {
		return fmt.Errorf("push %v: %w", tile.Cell, err)
	}
	t := &Texture{
		cell:    tile.Cell,
		slot:    slot,
		missing: tile.Missing,
		start:   s.now(),
		image:   tile.Image,
	}
	s.textures[tile.Cell] = t
	s.touch(t)
	s.available = true
	s.uploads = append(s.uploads, Upload{Slot: slot, Cell: tile.Cell, Image: tile.Image, Missing: tile.Missing})
	return nil
}

// UpdatePriority marks cell as recently used and reports whether it is
// resident. A false result means the tile still has to be requested.
func (s *Store) UpdatePriority(cell healpix.Cell) bool {
	t, ok := s.textures[cell]
	if !ok {
		return false
	}
	s.touch(t)
	return true
}

// ConsumeUploads returns the pending uploads and clears them.
func (s *Store) ConsumeUploads() []Upload {
	out := s.uploads
	s.uploads = nil
	return out
}

func (s *Store) touch(t *Texture) {
	if t.cell.IsRoot() {
		return
	}
	if t.tick != 0 {
		s.lru.Delete(lruItem{tick: t.tick})
	}
	s.tick++
	t.tick = s.tick
	s.lru.ReplaceOrInsert(lruItem{tick: t.tick, cell: t.cell})
}

func (s *Store) allocate() (int, error) {
	if n := len(s.free); n > 0 {
		slot := s.free[n-1]
		s.free = s.free[:n-1]
		return slot, nil
	}
	oldest, ok := s.lru.DeleteMin()
	if !ok {
		return 0, ErrNoFreeSlot
	}
	victim := s.textures[oldest.cell]
	delete(s.textures, oldest.cell)
	klog.V(3).Infof("%s: evicted %v from slot %d", s.cfg.URL, oldest.cell, victim.slot)
	return victim.slot, nil
}
