// Package metrics exports render core measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/kjkrol/gohips/pkg/survey"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skyview"

// Collectors implements survey.Metrics. A nil *Collectors records nothing.
type Collectors struct {
	registry      *prometheus.Registry
	cellsInView   *prometheus.GaugeVec
	rebuilds      *prometheus.CounterVec
	rebuildTime   *prometheus.HistogramVec
	meshVertices  *prometheus.GaugeVec
	tiles         *prometheus.CounterVec
	modeSwitches  *prometheus.CounterVec
	framesDrawn   prometheus.Counter
	tileRequests  prometheus.Counter
	tileLoadFails prometheus.Counter
}

var _ survey.Metrics = (*Collectors)(nil)

// New registers the collectors on a fresh registry.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		cellsInView: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cells_in_view",
			Help:      "Number of HEALPix cells visible for a survey.",
		}, []string{"survey"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mesh_rebuilds_total",
			Help:      "Number of survey mesh rebuilds.",
		}, []string{"survey"}),
		rebuildTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mesh_rebuild_seconds",
			Help:      "Time spent rebuilding a survey mesh.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 8),
		}, []string{"survey"}),
		meshVertices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mesh_vertices",
			Help:      "Number of vertices in the last survey mesh.",
		}, []string{"survey"}),
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_registered_total",
			Help:      "Number of tiles registered in a survey texture store.",
		}, []string{"survey"}),
		modeSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rendering_mode_switches_total",
			Help:      "Number of switches to a rendering mode.",
		}, []string{"mode"}),
		framesDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Number of frames drawn.",
		}),
		tileRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_requests_total",
			Help:      "Number of tiles requested from the loader.",
		}),
		tileLoadFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_load_failures_total",
			Help:      "Number of tiles the loader failed to decode.",
		}),
	}
	c.registry.MustRegister(
		c.cellsInView, c.rebuilds, c.rebuildTime, c.meshVertices, c.tiles,
		c.modeSwitches, c.framesDrawn, c.tileRequests, c.tileLoadFails,
	)
	return c
}

func (c *Collectors) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collectors) CellsInView(survey string, n int) {
	if c == nil {
		return
	}
	c.cellsInView.WithLabelValues(survey).Set(float64(n))
}

func (c *Collectors) VerticesRebuilt(survey string, vertices int, took time.Duration) {
	if c == nil {
		return
	}
	c.rebuilds.WithLabelValues(survey).Inc()
	c.rebuildTime.WithLabelValues(survey).Observe(took.Seconds())
	c.meshVertices.WithLabelValues(survey).Set(float64(vertices))
}

func (c *Collectors) TileRegistered(survey string) {
	if c == nil {
		return
	}
	c.tiles.WithLabelValues(survey).Inc()
}

func (c *Collectors) ModeSwitched(mode survey.RenderingMode) {
	if c == nil {
		return
	}
	c.modeSwitches.WithLabelValues(mode.String()).Inc()
}

func (c *Collectors) FrameDrawn() {
	if c == nil {
		return
	}
	c.framesDrawn.Inc()
}

func (c *Collectors) TilesRequested(n int) {
	if c == nil {
		return
	}
	c.tileRequests.Add(float64(n))
}

func (c *Collectors) TileLoadFailed() {
	if c == nil {
		return
	}
	c.tileLoadFails.Inc()
}
