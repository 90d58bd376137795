package app

import "time"

type Event interface{}

// Resize reports the new framebuffer size in pixels.
type Resize struct {
	Width, Height uint32
}

// Drag moves the sky by a cursor displacement in pixels.
type Drag struct {
	DX, DY float64
}

// Scroll zooms by Notches wheel steps; positive values zoom in.
type Scroll struct {
	Notches float64
}

type KeyPress struct {
	Label string
}

type Quit struct{}

// EventBus buffers events produced outside the frame loop.
type EventBus struct {
	events chan Event
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize == 0 {
		bufferSize = 1024
	}
	return &EventBus{events: make(chan Event, bufferSize)}
}

func (b *EventBus) EmitEvent(event Event) {
	if b == nil || event == nil {
		return
	}
	select {
	case b.events <- event:
	default:
		// drop if buffer full to avoid blocking producer
	}
}

// Consume hands at most max buffered events to handle and returns how many
// were handled.
func (b *EventBus) Consume(handle func(Event), max int) int {
	if max <= 0 {
		max = 1
	}
	count := 0
	for count < max {
		select {
		case event := <-b.events:
			handle(event)
			count++
		default:
			return count
		}
	}
	return count
}

type frameUpdater struct {
	refreshRate time.Duration
	nextFrame   time.Time
	frame       func() error
}

func newFrameUpdater(refreshRate time.Duration, frame func() error) *frameUpdater {
	if refreshRate <= 0 {
		refreshRate = time.Second / 60
	}
	return &frameUpdater{
		refreshRate: refreshRate,
		nextFrame:   time.Now().Add(refreshRate),
		frame:       frame,
	}
}

// run draws a frame when one is due and reports whether it did.
func (f *frameUpdater) run() (bool, error) {
	if time.Now().Before(f.nextFrame) {
		return false, nil
	}
	err := f.frame()
	f.nextFrame = time.Now().Add(f.refreshRate)
	return true, err
}

// wait returns how long until the next frame is due.
func (f *frameUpdater) wait() time.Duration {
	d := time.Until(f.nextFrame)
	if d < 0 {
		return 0
	}
	return d
}
