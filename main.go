package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/tinyrange/glspin/internal/app"
	"github.com/tinyrange/glspin/internal/config"
	"github.com/tinyrange/glspin/internal/window"
)

func init() {
	// Window systems and GL contexts are bound to the thread that made them.
	runtime.LockOSThread()
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("config", "", "path to a TOML config file")
	backend := fs.String("backend", "", "window backend: auto, x11 or glfw")
	wireframe := fs.Bool("wireframe", false, "draw the wireframe overlay")
	debug := fs.Bool("debug", false, "request a debug context and log GL debug messages")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	screenshot := fs.String("screenshot", "", "save the first frame to this PNG and exit")
	dumpConfig := fs.Bool("dump-config", false, "print the effective config and exit")
	writeChecker := fs.String("write-checker", "", "write a checker texture PNG to this path and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	if *writeChecker != "" {
		if err := writeCheckerTexture(*writeChecker, 8); err != nil {
			log.Fatalf("write checker: %v", err)
		}
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	// Only flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "wireframe":
			cfg.Wireframe = *wireframe
		case "debug":
			cfg.Debug = *debug
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if *dumpConfig {
		if err := cfg.Write(os.Stdout); err != nil {
			log.Fatalf("dump config: %v", err)
		}
		return
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, *screenshot, logger); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func run(cfg config.Config, screenshot string, logger *slog.Logger) error {
	display, err := window.Open(cfg.Backend)
	if err != nil {
		return fmt.Errorf("open display: %w", err)
	}
	logger.Info("opened display", "backend", display.Name())

	a := app.New(display, app.Options{
		Window:       cfg.WindowOptions(),
		Renderer:     cfg.RendererOptions(),
		SwapInterval: cfg.SwapInterval,
		Screenshot:   screenshot,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func writeCheckerTexture(path string, size int) error {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	red := color.NRGBA{R: 0xff, G: 0x66, B: 0x66, A: 0xff}
	green := color.NRGBA{R: 0x66, G: 0xff, B: 0x66, A: 0xff}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, red)
			} else {
				img.Set(x, y, green)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}
