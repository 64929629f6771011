// Package config handles converter and viewer configuration.
package config

// Config holds all settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds model2js settings.
type ConvertConfig struct {
	TargetSize float64 `yaml:"target_size"` // Longest bounding-box edge after normalization
	OutputDir  string  `yaml:"output_dir"`  // Empty writes beside the working directory
	AllowEmpty bool    `yaml:"allow_empty"` // Write a mesh even when it has no vertices
}

// ViewerConfig holds wireview window and camera settings.
type ViewerConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Fullscreen    bool    `yaml:"fullscreen"`
	VSync         bool    `yaml:"vsync"`
	TargetSize    float64 `yaml:"target_size"`
	RotationSpeed float64 `yaml:"rotation_speed"` // Radians per frame
	Depth         float64 `yaml:"depth"`          // Camera distance along +Z
	Background    string  `yaml:"background"`     // "#RRGGBB"
	Foreground    string  `yaml:"foreground"`     // "#RRGGBB"
	ShowBounds    bool    `yaml:"show_bounds"`
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			TargetSize: 1.5,
			OutputDir:  "",
			AllowEmpty: false,
		},
		Viewer: ViewerConfig{
			Width:         800,
			Height:        800,
			Fullscreen:    false,
			VSync:         true,
			TargetSize:    1.0,
			RotationSpeed: 0.05235987755982988, // pi/60
			Depth:         1.0,
			Background:    "#101010",
			Foreground:    "#50FF50",
			ShowBounds:    false,
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
