package survey

import "time"

// Metrics receives render core measurements. Labels are survey URLs.
type Metrics interface {
	CellsInView(survey string, n int)
	VerticesRebuilt(survey string, vertices int, took time.Duration)
	TileRegistered(survey string)
	ModeSwitched(mode RenderingMode)
}

type noopMetrics struct{}

func (noopMetrics) CellsInView(string, int)                    {}
func (noopMetrics) VerticesRebuilt(string, int, time.Duration) {}
func (noopMetrics) TileRegistered(string)                      {}
func (noopMetrics) ModeSwitched(RenderingMode)                 {}
