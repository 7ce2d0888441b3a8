// Command flowvid runs a visualization preset over optical flow files.
//
// Usage:
//
//	flowvid [flags] <preset>
//
// Without -config the preset runs with its defaults. When a run fails, the
// configuration it used is written to -save-config so it can be fixed and
// passed back with -config.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/lguimbarda/flowvid/flowvid/core"
	"github.com/lguimbarda/flowvid/flowvid/observe"
	"github.com/lguimbarda/flowvid/flowvid/preset"
)

var (
	configPath = flag.String("config", "", "YAML configuration file; the preset defaults are used when empty")
	saveConfig = flag.String("save-config", "flowvid_config.yaml", "where to save the configuration of a failed run (empty to disable)")
	workers    = flag.Int("workers", 0, "frames rendered concurrently, overrides the configuration when positive")
	verbose    = flag.Bool("v", false, "log debug messages")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: flowvid [flags] <preset>\n\npresets: %s\n\nflags:\n",
			strings.Join(preset.Names(), ", "))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, flag.Arg(0)); err != nil {
		logger.Error("flowvid failed", "preset", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func loadConfig(name string) (preset.Config, error) {
	if *configPath == "" {
		return preset.Defaults(name)
	}
	return preset.LoadConfig(*configPath, name)
}

func run(ctx context.Context, logger *slog.Logger, name string) error {
	cfg, err := loadConfig(name)
	if err != nil {
		return err
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	inst, err := observe.GlobalInstruments()
	if err != nil {
		return err
	}
	ctx = core.WithLogger(ctx, logger)
	ctx = observe.WithInstruments[*image.RGBA](ctx, inst, name)
	ctx = observe.WithTracing[*image.RGBA](ctx, nil, name)
	ctx = observe.WithMetrics[*image.RGBA](ctx, func(m observe.StreamMetrics) {
		logger.Info("frames rendered",
			"frames", m.Frames,
			"errors", m.Errors,
			"fps", fmt.Sprintf("%.1f", m.FramesPerSecond),
			"elapsed", m.EndTime.Sub(m.StartTime))
	})

	err = preset.Run(ctx, name, cfg)
	if err == nil || *saveConfig == "" {
		return err
	}
	if serr := preset.SaveConfig(*saveConfig, name, cfg); serr != nil {
		logger.Warn("could not save configuration", "path", *saveConfig, "error", serr)
		return err
	}
	logger.Info("configuration saved, fix it and run again",
		"command", fmt.Sprintf("flowvid -config %s %s", *saveConfig, name))
	return err
}
