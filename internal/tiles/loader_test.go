package tiles_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kjkrol/gohips/internal/tiles"
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/survey"
)

func TestTilePath(t *testing.T) {
	cases := []struct {
		url  string
		cell healpix.Cell
		want string
	}{
		{"hips://dss", healpix.Cell{Depth: 3, Index: 37}, "root/dss/Norder3/Dir0/Npix37.png"},
		{"cds/2mass/", healpix.Cell{Depth: 7, Index: 123456}, "root/cds/2mass/Norder7/Dir120000/Npix123456.png"},
	}
	for _, tc := range cases {
		if got := tiles.TilePath("root", tc.url, "png", tc.cell); got != filepath.FromSlash(tc.want) {
			t.Errorf("TilePath(%q, %v) = %q, want %q", tc.url, tc.cell, got, tc.want)
		}
	}
}

func writeTile(t *testing.T, path string, c color.Color) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

type countingObserver struct {
	requested, failed int
}

func (o *countingObserver) TilesRequested(n int) { o.requested += n }
func (o *countingObserver) TileLoadFailed()      { o.failed++ }

func TestLoader(t *testing.T) {
	root := t.TempDir()
	url := "hips://dss"
	present := healpix.Cell{Depth: 0, Index: 3}
	absent := healpix.Cell{Depth: 0, Index: 4}
	corrupt := healpix.Cell{Depth: 0, Index: 5}
	writeTile(t, tiles.TilePath(root, url, "png", present), color.RGBA{B: 255, A: 255})
	if err := os.WriteFile(tiles.TilePath(root, url, "png", corrupt), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	obs := &countingObserver{}
	l := tiles.New(root, 2, 8, obs)
	l.SetSurveys(survey.Properties{URL: url, Format: "png"})
	reqs := []survey.TileRequest{{URL: url, Cell: present}, {URL: url, Cell: absent}, {URL: url, Cell: corrupt}}
	if got := l.Request(append(reqs, reqs[0])); got != 3 {
		t.Fatalf("accepted %d requests, want 3", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	got := make(map[healpix.Cell]tiles.Result)
	timeout := time.After(10 * time.Second)
	for len(got) < 3 {
		select {
		case res := <-l.Results():
			got[res.Tile.Cell] = res
		case <-timeout:
			t.Fatalf("timed out with %d results", len(got))
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}

	if r := got[present]; r.Err != nil || r.Tile.Missing || r.Tile.Image == nil {
		t.Errorf("present tile result = %+v", r)
	}
	if r := got[absent]; r.Err != nil || !r.Tile.Missing {
		t.Errorf("absent tile must be missing, got %+v", r)
	}
	if r := got[corrupt]; r.Err == nil {
		t.Error("corrupt tile must report an error")
	}
	if obs.requested != 3 || obs.failed != 1 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestRequestQueueFull(t *testing.T) {
	l := tiles.New(t.TempDir(), 1, 2, nil)
	var reqs []survey.TileRequest
	for i := uint64(0); i < 5; i++ {
		reqs = append(reqs, survey.TileRequest{URL: "u", Cell: healpix.Cell{Index: i}})
	}
	if got := l.Request(reqs); got != 2 {
		t.Errorf("accepted %d, want the queue size 2", got)
	}
}
