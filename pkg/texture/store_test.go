package texture_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/texture"
)

func newStore(t *testing.T) *texture.Store {
	t.Helper()
	s, err := texture.NewStore(texture.Config{
		URL:      "hips://test",
		MaxOrder: 5,
		TileSize: 64,
		NumSlots: texture.MinSlots,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func pushBase(t *testing.T, s *texture.Store) {
	t.Helper()
	for idx := uint64(0); idx < healpix.NumBaseCells; idx++ {
		if err := s.Push(texture.Tile{Cell: healpix.Cell{Index: idx}}); err != nil {
			t.Fatalf("Push base %d: %v", idx, err)
		}
	}
}

func TestNewStoreValidation(t *testing.T) {
	for _, cfg := range []texture.Config{
		{TileSize: 0, NumSlots: 32},
		{TileSize: 64, NumSlots: 4},
		{TileSize: 64, NumSlots: 32, MaxOrder: 40},
	} {
		if _, err := texture.NewStore(cfg); !errors.Is(err, texture.ErrInvalidConfig) {
			t.Errorf("NewStore(%+v) error = %v, want ErrInvalidConfig", cfg, err)
		}
	}
}

func TestNearestParent(t *testing.T) {
	s := newStore(t)
	cell := healpix.Cell{Depth: 3, Index: 37}
	if _, ok := s.NearestParent(cell); ok {
		t.Fatal("empty store must not resolve a parent")
	}
	if _, ok := s.NearestParent(healpix.Cell{Index: 0}); ok {
		t.Fatal("unloaded base cell must not resolve")
	}

	pushBase(t, s)
	got, ok := s.NearestParent(cell)
	if !ok || got != (healpix.Cell{Depth: 0, Index: 0}) {
		t.Errorf("NearestParent(3/37) = %v, %v; want 0/0", got, ok)
	}
	if got, ok := s.NearestParent(healpix.Cell{Index: 5}); !ok || got != (healpix.Cell{Index: 5}) {
		t.Errorf("base cell resolves to itself, got %v, %v", got, ok)
	}

	if err := s.Push(texture.Tile{Cell: healpix.Cell{Depth: 2, Index: 9}}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.NearestParent(cell); got != (healpix.Cell{Depth: 2, Index: 9}) {
		t.Errorf("NearestParent(3/37) = %v, want 2/9", got)
	}
	if got, _ := s.NearestParent(healpix.Cell{Depth: 2, Index: 9}); got != (healpix.Cell{Depth: 0, Index: 0}) {
		t.Errorf("NearestParent starts from the parent, got %v", got)
	}
}

func TestReadyAndAvailability(t *testing.T) {
	s := newStore(t)
	if s.IsReady() || s.IsThereAvailableTiles() {
		t.Fatal("empty store is neither ready nor has tiles")
	}
	pushBase(t, s)
	if !s.IsReady() {
		t.Error("store with the 12 base cells must be ready")
	}
	if !s.IsThereAvailableTiles() {
		t.Error("pushed tiles must be reported")
	}
	if s.IsThereAvailableTiles() {
		t.Error("availability is reported once")
	}
	if err := s.Push(texture.Tile{Cell: healpix.Cell{Index: 3}}); err != nil {
		t.Fatal(err)
	}
	if s.IsThereAvailableTiles() {
		t.Error("pushing a resident tile is a no-op")
	}
	if got := len(s.ConsumeUploads()); got != healpix.NumBaseCells {
		t.Errorf("uploads = %d, want %d", got, healpix.NumBaseCells)
	}
	if got := s.ConsumeUploads(); got != nil {
		t.Errorf("uploads not cleared: %v", got)
	}
}

func TestPushTooDeep(t *testing.T) {
	s := newStore(t)
	err := s.Push(texture.Tile{Cell: healpix.Cell{Depth: 6, Index: 1}})
	if !errors.Is(err, texture.ErrTooDeep) {
		t.Errorf("Push error = %v, want ErrTooDeep", err)
	}
}

func TestEvictionKeepsBaseAndRecentTiles(t *testing.T) {
	s := newStore(t)
	pushBase(t, s)
	var fine []healpix.Cell
	for idx := uint64(0); idx < texture.MinSlots-healpix.NumBaseCells; idx++ {
		c := healpix.Cell{Depth: 1, Index: idx}
		fine = append(fine, c)
		if err := s.Push(texture.Tile{Cell: c}); err != nil {
			t.Fatal(err)
		}
	}
	if !s.UpdatePriority(fine[0]) {
		t.Fatal("resident tile must report true")
	}
	if s.UpdatePriority(healpix.Cell{Depth: 2, Index: 100}) {
		t.Fatal("absent tile must report false")
	}
	victim, _ := s.Get(fine[1])
	slot := victim.Slot()

	extra := healpix.Cell{Depth: 2, Index: 100}
	if err := s.Push(texture.Tile{Cell: extra}); err != nil {
		t.Fatal(err)
	}
	if s.Contains(fine[1]) {
		t.Error("least recently used tile should be evicted")
	}
	if !s.Contains(fine[0]) {
		t.Error("touched tile should survive")
	}
	if !s.IsReady() {
		t.Error("base cells are never evicted")
	}
	got, _ := s.Get(extra)
	if got.Slot() != slot {
		t.Errorf("new tile slot = %d, want reused slot %d", got.Slot(), slot)
	}
}

func TestStartTime(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s, err := texture.NewStore(texture.Config{MaxOrder: 3, TileSize: 64, NumSlots: 32},
		texture.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	now = base.Add(1500 * time.Millisecond)
	if err := s.Push(texture.Tile{Cell: healpix.Cell{Index: 1}}); err != nil {
		t.Fatal(err)
	}
	tex, _ := s.Get(healpix.Cell{Index: 1})
	if got := s.Since(tex.StartTime()); got != 1.5 {
		t.Errorf("start = %f s, want 1.5", got)
	}
}

func TestTileUVW(t *testing.T) {
	s := newStore(t)
	pushBase(t, s)
	tex, _ := s.Get(healpix.Cell{Index: 0})

	self := texture.TileUVW(healpix.Cell{Index: 0}, tex)
	if diff := cmp.Diff(texture.UVW{Size: 1, W: float32(tex.Slot())}, self); diff != "" {
		t.Errorf("own tile mismatch (-want +got):\n%s", diff)
	}

	// 1/1 is the east child of base cell 0: x=1, y=0.
	child := texture.TileUVW(healpix.Cell{Depth: 1, Index: 1}, tex)
	want := texture.UVW{U: 0.5, V: 0, Size: 0.5, W: float32(tex.Slot())}
	if diff := cmp.Diff(want, child); diff != "" {
		t.Errorf("child tile mismatch (-want +got):\n%s", diff)
	}
	if got := child.At(1, 1); got != [3]float32{1, 0.5, float32(tex.Slot())} {
		t.Errorf("At(1,1) = %v", got)
	}
}
