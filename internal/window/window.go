//go:build !js

// Package window opens the GLFW window of the viewer and forwards its input
// to the app event bus.
package window

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/kjkrol/gohips/internal/app"
	"github.com/kjkrol/gohips/internal/config"
)

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()
}

type Window struct {
	w   *glfw.Window
	bus *app.EventBus

	dragging     bool
	lastX, lastY float64
}

var _ app.Surface = (*Window)(nil)

// Open creates the window with an OpenGL 3.3 core context made current on
// the calling goroutine.
func Open(conf config.Window, bus *app.EventBus) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	w, err := glfw.CreateWindow(int(conf.Width), int(conf.Height), conf.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	w.MakeContextCurrent()
	if conf.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	win := &Window{w: w, bus: bus}
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if width > 0 && height > 0 {
			bus.EmitEvent(app.Resize{Width: uint32(width), Height: uint32(height)})
		}
	})
	w.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		bus.EmitEvent(app.Scroll{Notches: yoff})
	})
	w.SetMouseButtonCallback(win.onMouseButton)
	w.SetCursorPosCallback(win.onCursor)
	w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if label := keyLabel(key); label != "" {
			bus.EmitEvent(app.KeyPress{Label: label})
		}
	})
	w.SetCloseCallback(func(*glfw.Window) {
		bus.EmitEvent(app.Quit{})
	})

	// the framebuffer differs from the window size on high density screens
	fw, fh := w.GetFramebufferSize()
	bus.EmitEvent(app.Resize{Width: uint32(fw), Height: uint32(fh)})
	return win, nil
}

func (w *Window) onMouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	w.dragging = action == glfw.Press
	if w.dragging {
		w.lastX, w.lastY = w.w.GetCursorPos()
	}
}

func (w *Window) onCursor(_ *glfw.Window, x, y float64) {
	if !w.dragging {
		return
	}
	// cursor positions are in screen coordinates, the camera in pixels
	fw, _ := w.w.GetFramebufferSize()
	ww, _ := w.w.GetSize()
	scale := 1.0
	if ww > 0 {
		scale = float64(fw) / float64(ww)
	}
	w.bus.EmitEvent(app.Drag{DX: (x - w.lastX) * scale, DY: (y - w.lastY) * scale})
	w.lastX, w.lastY = x, y
}

func keyLabel(key glfw.Key) string {
	switch key {
	case glfw.KeyEscape:
		return "escape"
	case glfw.KeyQ:
		return "q"
	case glfw.KeyP:
		return "p"
	case glfw.KeyEqual, glfw.KeyKPAdd:
		return "+"
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		return "-"
	}
	return ""
}

func (w *Window) PollEvents(timeout time.Duration) {
	if timeout <= 0 {
		glfw.PollEvents()
		return
	}
	glfw.WaitEventsTimeout(timeout.Seconds())
}

func (w *Window) ShouldClose() bool {
	return w.w.ShouldClose()
}

func (w *Window) SwapBuffers() {
	w.w.SwapBuffers()
}

func (w *Window) Close() {
	w.w.Destroy()
	glfw.Terminate()
}
