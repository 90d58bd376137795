package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/kjkrol/gohips/internal/app"
	"github.com/kjkrol/gohips/internal/config"
	"github.com/kjkrol/gohips/internal/metrics"
	"github.com/kjkrol/gohips/internal/renderer"
	"github.com/kjkrol/gohips/internal/window"
	"k8s.io/klog/v2"
)

//go:embed sky.glsl
var shaderSource string

var (
	configPath  = flag.String("config", "", "YAML configuration file; defaults apply when empty")
	headless    = flag.Bool("headless", false, "draw without a window or GPU")
	frames      = flag.Int("frames", 0, "stop after this many frames; 0 runs until closed")
	metricsAddr = flag.String("metrics_addr", "", "address serving /metrics; overrides the configuration")
	refreshRate = flag.Duration("refresh_rate", time.Second/60, "interval between frames")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		klog.Exitf("Failed to load configuration: %v", err)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		a, err := app.New(cfg, app.NewRecording(), m)
		if err != nil {
			klog.Exitf("Failed to set up the viewer: %v", err)
		}
		defer a.Close()
		if err := a.Run(ctx, app.Headless{}, *frames, *refreshRate); err != nil {
			klog.Exitf("Viewer stopped: %v", err)
		}
		return
	}

	bus := app.NewEventBus(0)
	win, err := window.Open(cfg.Window, bus)
	if err != nil {
		klog.Exitf("Failed to open the window: %v", err)
	}
	defer win.Close()

	backend := renderer.NewGL(renderer.Config{ShaderSource: shaderSource})
	defer backend.Close()

	a, err := app.New(cfg, backend, m, app.WithEventBus(bus))
	if err != nil {
		klog.Exitf("Failed to set up the viewer: %v", err)
	}
	defer a.Close()

	klog.Infof("viewing %d layers with the %s projection", len(cfg.Layers), cfg.Projection)
	if err := a.Run(ctx, win, *frames, *refreshRate); err != nil {
		klog.Exitf("Viewer stopped: %v", err)
	}
}

func serveMetrics(addr string, m *metrics.Collectors) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	klog.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		klog.Errorf("metrics server: %v", err)
	}
}
