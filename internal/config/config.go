// Package config loads the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tinyrange/glspin/internal/graphics"
	"github.com/tinyrange/glspin/internal/window"
)

// Config is the complete set of user settings. Zero-valued keys missing
// from a file keep their defaults.
type Config struct {
	Backend string `toml:"backend"`
	Title   string `toml:"title"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`

	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	Texture        string `toml:"texture"`

	Wireframe    bool       `toml:"wireframe"`
	Debug        bool       `toml:"debug"`
	SwapInterval int        `toml:"swap_interval"`
	FieldOfView  float32    `toml:"field_of_view"`
	Near         float32    `toml:"near"`
	Far          float32    `toml:"far"`
	ClearColor   [4]float32 `toml:"clear_color"`

	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := graphics.DefaultOptions()
	return Config{
		Backend:        window.BackendAuto,
		Title:          "glspin",
		Width:          opts.Draw.Width,
		Height:         opts.Draw.Height,
		VertexShader:   opts.VertexShader,
		FragmentShader: opts.FragmentShader,
		Texture:        opts.Texture,
		SwapInterval:   1,
		FieldOfView:    opts.Draw.FieldOfView,
		Near:           opts.Draw.Near,
		Far:            opts.Draw.Far,
		ClearColor:     opts.ClearColor,
		LogLevel:       "info",
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(window.Backends, c.Backend) {
		errs = append(errs, fmt.Errorf("backend %q: want one of %s", c.Backend, strings.Join(window.Backends, ", ")))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height))
	}
	if c.VertexShader == "" {
		errs = append(errs, errors.New("vertex_shader is empty"))
	}
	if c.FragmentShader == "" {
		errs = append(errs, errors.New("fragment_shader is empty"))
	}
	if c.SwapInterval < 0 {
		errs = append(errs, fmt.Errorf("swap_interval %d is negative", c.SwapInterval))
	}
	if c.FieldOfView <= 0 || c.FieldOfView >= 180 {
		errs = append(errs, fmt.Errorf("field_of_view %g out of range (0, 180)", c.FieldOfView))
	}
	if c.Near <= 0 || c.Near >= c.Far {
		errs = append(errs, fmt.Errorf("clip planes near=%g far=%g: need 0 < near < far", c.Near, c.Far))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// RendererOptions converts c to renderer options.
func (c Config) RendererOptions() graphics.Options {
	draw := graphics.DefaultDrawConfig()
	draw.FieldOfView = c.FieldOfView
	draw.Near, draw.Far = c.Near, c.Far
	draw.Width, draw.Height = c.Width, c.Height
	draw.Aspect = float32(c.Width) / float32(c.Height)
	draw.Wireframe = c.Wireframe

	return graphics.Options{
		VertexShader:   c.VertexShader,
		FragmentShader: c.FragmentShader,
		Texture:        c.Texture,
		Debug:          c.Debug,
		ClearColor:     c.ClearColor,
		Draw:           draw,
	}
}

// WindowOptions returns the initial window properties.
func (c Config) WindowOptions() window.WindowOptions {
	return window.WindowOptions{Title: c.Title, Width: c.Width, Height: c.Height}
}
