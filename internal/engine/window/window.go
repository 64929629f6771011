// Package window handles the SDL2 window and its 2D renderer.
package window

import (
	"fmt"
	"image/color"
	"runtime"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Ni-zav/formula/internal/logger"
)

func init() {
	// SDL video calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// Window wraps an SDL2 window and renderer.
type Window struct {
	config   Config
	window   *sdl.Window
	renderer *sdl.Renderer
}

// New creates a window with an accelerated renderer.
func New(cfg Config) (*Window, error) {
	w := &Window{config: cfg}

	logger.Debug("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_RESIZABLE)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	var err error
	w.window, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	rflags := uint32(sdl.RENDERER_ACCELERATED)
	if cfg.VSync {
		rflags |= sdl.RENDERER_PRESENTVSYNC
	}
	w.renderer, err = sdl.CreateRenderer(w.window, -1, rflags)
	if err != nil {
		logger.Warn("accelerated renderer unavailable, falling back to software", zap.Error(err))
		w.renderer, err = sdl.CreateRenderer(w.window, -1, sdl.RENDERER_SOFTWARE)
	}
	if err != nil {
		w.window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateRenderer failed: %w", err)
	}

	logger.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync))

	return w, nil
}

// Close destroys the renderer and window and shuts SDL2 down.
func (w *Window) Close() {
	logger.Debug("closing window")

	if w.renderer != nil {
		w.renderer.Destroy()
	}
	if w.window != nil {
		w.window.Destroy()
	}

	sdl.Quit()
}

// Clear fills the frame with c.
func (w *Window) Clear(c color.RGBA) error {
	if err := w.renderer.SetDrawColor(c.R, c.G, c.B, c.A); err != nil {
		return err
	}
	return w.renderer.Clear()
}

// SetColor sets the colour used by DrawLine.
func (w *Window) SetColor(c color.RGBA) error {
	return w.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
}

// DrawLine strokes a segment given in window pixels.
func (w *Window) DrawLine(x1, y1, x2, y2 float32) error {
	return w.renderer.DrawLineF(x1, y1, x2, y2)
}

// Present shows the frame.
func (w *Window) Present() {
	w.renderer.Present()
}

// ReadPixels copies the current frame as top-down RGBA rows.
func (w *Window) ReadPixels() (pixels []byte, width, height, pitch int, err error) {
	width, height = w.GetSize()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, 0, fmt.Errorf("empty frame %dx%d", width, height)
	}
	pitch = width * 4
	pixels = make([]byte, pitch*height)
	if err := w.renderer.ReadPixels(nil, sdl.PIXELFORMAT_ABGR8888, unsafe.Pointer(&pixels[0]), pitch); err != nil {
		return nil, 0, 0, 0, fmt.Errorf("SDL_RenderReadPixels failed: %w", err)
	}
	return pixels, width, height, pitch, nil
}

// GetSize returns the drawable size in pixels.
func (w *Window) GetSize() (int, int) {
	width, height, err := w.renderer.GetOutputSize()
	if err != nil {
		ww, wh := w.window.GetSize()
		return int(ww), int(wh)
	}
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.window.SetTitle(title)
}
