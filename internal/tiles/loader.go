// Package tiles loads HiPS tiles from a local directory tree laid out as
// <root>/<survey>/Norder<d>/Dir<D>/Npix<i>.<format>.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/survey"
	"github.com/kjkrol/gohips/pkg/texture"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Result is a loaded tile, or the error that prevented loading it.
type Result struct {
	URL  string
	Tile texture.Tile
	Err  error
}

// Observer is told about loader activity. *metrics.Collectors implements it.
type Observer interface {
	TilesRequested(n int)
	TileLoadFailed()
}

type nopObserver struct{}

func (nopObserver) TilesRequested(int) {}
func (nopObserver) TileLoadFailed()    {}

type Loader struct {
	root        string
	concurrency int
	requests    chan survey.TileRequest
	results     chan Result
	observer    Observer

	mu       sync.Mutex
	formats  map[string]string
	inflight map[survey.TileRequest]struct{}
}

func New(root string, concurrency, queueSize int, observer Observer) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Loader{
		root:        root,
		concurrency: concurrency,
		requests:    make(chan survey.TileRequest, queueSize),
		results:     make(chan Result, queueSize),
		observer:    observer,
		formats:     make(map[string]string),
		inflight:    make(map[survey.TileRequest]struct{}),
	}
}

// SetSurveys records the tile format of every survey URL.
func (l *Loader) SetSurveys(props ...survey.Properties) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formats = make(map[string]string, len(props))
	for _, p := range props {
		l.formats[p.URL] = p.Format
	}
}

// Results delivers loaded tiles. It is closed when Run returns.
func (l *Loader) Results() <-chan Result {
	return l.results
}

// Request queues reqs without blocking and returns how many were accepted.
// Tiles already in flight are skipped; when the queue is full the rest is
// dropped and will be asked for again by a later view refresh.
func (l *Loader) Request(reqs []survey.TileRequest) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	accepted := 0
	for i, r := range reqs {
		if _, ok := l.inflight[r]; ok {
			continue
		}
		select {
		case l.requests <- r:
			l.inflight[r] = struct{}{}
			accepted++
		default:
			klog.V(2).Infof("tile queue full, dropped %d requests", len(reqs)-i)
			l.observer.TilesRequested(accepted)
			return accepted
		}
	}
	l.observer.TilesRequested(accepted)
	return accepted
}

// Run loads queued tiles until ctx is done.
func (l *Loader) Run(ctx context.Context) error {
	defer close(l.results)
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case req := <-l.requests:
			g.Go(func() error {
				res := l.load(req)
				select {
				case l.results <- res:
				case <-ctx.Done():
				}
				l.mu.Lock()
				delete(l.inflight, req)
				l.mu.Unlock()
				return nil
			})
		}
	}
}

func (l *Loader) load(req survey.TileRequest) Result {
	l.mu.Lock()
	format, ok := l.formats[req.URL]
	l.mu.Unlock()
	res := Result{URL: req.URL, Tile: texture.Tile{Cell: req.Cell, RequestTime: time.Now()}}
	if !ok {
		res.Err = fmt.Errorf("tile %v: unknown survey %s", req.Cell, req.URL)
		return res
	}
	img, err := Decode(TilePath(l.root, req.URL, format, req.Cell))
	switch {
	case errors.Is(err, os.ErrNotExist):
		res.Tile.Missing = true
	case err != nil:
		l.observer.TileLoadFailed()
		res.Err = err
	default:
		res.Tile.Image = img
	}
	return res
}

// TilePath returns the file of cell in the HiPS tree of url under root.
func TilePath(root, url, format string, cell healpix.Cell) string {
	dir := (cell.Index / 10000) * 10000
	return filepath.Join(root, surveyDir(url),
		fmt.Sprintf("Norder%d", cell.Depth),
		fmt.Sprintf("Dir%d", dir),
		fmt.Sprintf("Npix%d.%s", cell.Index, format))
}

// surveyDir strips the scheme of url.
func surveyDir(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		url = url[i+3:]
	}
	return filepath.FromSlash(strings.Trim(url, "/"))
}

// Decode reads a PNG or JPEG tile.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
