// wireview shows a spinning wireframe of a model or converted mesh module.
package main

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Ni-zav/formula/internal/config"
	"github.com/Ni-zav/formula/internal/engine/debug"
	"github.com/Ni-zav/formula/internal/engine/input"
	"github.com/Ni-zav/formula/internal/engine/window"
	"github.com/Ni-zav/formula/internal/logger"
	"github.com/Ni-zav/formula/internal/viewer"
)

const (
	depthStep = 0.1
	speedStep = 0.005
	statusFor = 3 * time.Second
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, config.Args()); err != nil {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

type app struct {
	cfg     *config.Config
	win     *window.Window
	in      *input.Input
	session *viewer.Session
	cam     *viewer.Camera
	shots   *debug.ScreenshotCapture
	bg, fg  color.RGBA

	showBounds  bool
	wantShot    bool
	initial     string
	statusUntil time.Time
}

func run(cfg *config.Config, args []string) error {
	bg, err := config.ParseColor(cfg.Viewer.Background)
	if err != nil {
		return err
	}
	fg, err := config.ParseColor(cfg.Viewer.Foreground)
	if err != nil {
		return err
	}

	win, err := window.New(window.Config{
		Title:      "wireview",
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	a := &app{
		cfg:     cfg,
		win:     win,
		in:      input.New(),
		session: viewer.NewSession(cfg.Viewer.TargetSize),
		cam:     viewer.NewCamera(cfg.Viewer.Depth, cfg.Viewer.RotationSpeed),
		shots:   debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "wireview"),
		bg:      bg,
		fg:      fg,

		showBounds: cfg.Viewer.ShowBounds,
	}
	if len(args) > 0 {
		a.initial = args[0]
		a.load(a.initial)
	}
	return a.loop()
}

func (a *app) load(path string) {
	// Errors are reported through the session status.
	_ = a.session.Load(path)
	a.statusUntil = time.Now().Add(statusFor)
}

func (a *app) loop() error {
	var (
		fps      viewer.FPSCounter
		segments []viewer.Segment
		box      []viewer.Segment
		title    string
	)

	for {
		if a.in.Update() {
			return nil
		}
		if a.handleEvents() {
			return nil
		}

		a.cam.Advance()
		w, h := a.win.GetSize()
		segments = a.session.Segments(a.cam, w, h, segments)
		if a.showBounds {
			box = a.session.BoxSegments(a.cam, w, h, box)
			segments = append(segments, box...)
		}

		if err := a.win.Clear(a.bg); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		if err := a.win.SetColor(a.fg); err != nil {
			return fmt.Errorf("set color: %w", err)
		}
		for _, s := range segments {
			if err := a.win.DrawLine(s.X1, s.Y1, s.X2, s.Y2); err != nil {
				return fmt.Errorf("draw: %w", err)
			}
		}
		if a.wantShot {
			a.wantShot = false
			a.screenshot()
		}
		a.win.Present()

		now := time.Now()
		next := a.session.Title(fps.Tick(now))
		if now.Before(a.statusUntil) || a.session.Mesh() == nil {
			next += " | " + a.session.Status()
		}
		if next != title {
			title = next
			a.win.SetTitle(title)
		}

		if !a.cfg.Viewer.VSync {
			sdl.Delay(16)
		}
	}
}

// handleEvents applies this frame's input. Returns true to quit.
func (a *app) handleEvents() bool {
	for _, e := range a.in.Events() {
		switch e.Type {
		case input.EventDrop:
			a.load(e.Path)
		case input.EventKeyDown:
			switch e.Key {
			case sdl.K_ESCAPE:
				return true
			case sdl.K_UP:
				a.cam.SetDepth(a.cam.Depth - depthStep)
			case sdl.K_DOWN:
				a.cam.SetDepth(a.cam.Depth + depthStep)
			case sdl.K_LEFT:
				a.cam.SetSpeed(a.cam.Speed - speedStep)
			case sdl.K_RIGHT:
				a.cam.SetSpeed(a.cam.Speed + speedStep)
			case sdl.K_b:
				a.showBounds = !a.showBounds
			case sdl.K_p:
				a.wantShot = true
			case sdl.K_o:
				if a.initial != "" {
					a.load(a.initial)
				} else if a.session.Reload() == nil {
					a.statusUntil = time.Now().Add(statusFor)
				}
			}
		}
	}
	return false
}

func (a *app) screenshot() {
	pixels, w, h, pitch, err := a.win.ReadPixels()
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	path, err := a.shots.CaptureFromPixels(pixels, w, h, pitch)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}
