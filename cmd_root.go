package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-capture-go/config"
	"github.com/soocke/pixel-capture-go/debug"
	"github.com/soocke/pixel-capture-go/domain/capture"
	"github.com/soocke/pixel-capture-go/domain/source"
)

var (
	version = "0.1.0"

	cfgFile   string
	logLevel  string
	logFormat string
	backend   string
	debugMode bool

	// target flags shared by grab, bench and preview
	monitorIdx  int
	windowTitle string
	intervalMs  int
)

var rootCmd = &cobra.Command{
	Use:           "pixelcap",
	Short:         "Screen capture sessions",
	Long:          `pixelcap - rate limited, double buffered screen and window capture`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is pixelcap.yaml in . or the user config dir)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: json or text")
	pf.StringVar(&backend, "backend", "", "capture backend: "+strings.Join(append([]string{source.BackendAuto}, source.Backends()...), ", "))
	pf.BoolVar(&debugMode, "debug", false, "log memory, goroutine and session stats periodically")
}

// addTargetFlags registers the capture target flags on cmd.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&monitorIdx, "monitor", 0, "monitor index to capture")
	cmd.Flags().StringVar(&windowTitle, "window", "", "capture the monitor of the first window whose title contains this text")
	cmd.Flags().IntVar(&intervalMs, "interval", capture.DefaultIntervalMs, "minimum milliseconds between captures (0 = every request)")
}

// engine bundles what every capturing command needs.
type engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	platform *source.Platform
	registry *capture.Registry
	cancel   context.CancelFunc
}

// loadEngine loads the config, applies flag overrides and returns an
// initialized registry over the selected backend.
func loadEngine(cmd *cobra.Command) (*engine, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cmd, cfg)
	_ = cfg.Validate()

	logger := NewLogger(cfg.Level(), cfg.LogFormat)
	p, err := source.New(cfg.Backend, source.WithLogger(logger), source.WithSynthetic(cfg.Synthetic()))
	if err != nil {
		return nil, err
	}
	reg := capture.NewRegistry(p, append(cfg.RegistryOptions(), capture.WithLogger(logger))...)
	if err := reg.Init(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	rt := &engine{cfg: cfg, logger: logger, platform: p, registry: reg, cancel: cancel}
	if cfg.Debug {
		interval := time.Duration(cfg.DebugIntervalSec) * time.Second
		debug.StartMemLogger(ctx, interval, logger)
		debug.StartGoroutineLogger(ctx, interval, logger)
		debug.StartSessionLogger(ctx, interval, reg, logger)
	}
	logger.Debug("engine ready", "backend", p.Backend(), "outputs", p.Outputs())
	return rt, nil
}

func (rt *engine) Close() {
	rt.cancel()
	rt.registry.Cleanup()
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if changed("backend") {
		cfg.Backend = backend
	}
	if changed("debug") {
		cfg.Debug = debugMode
	}
	if changed("monitor") {
		cfg.Monitor = monitorIdx
	}
	if changed("window") {
		cfg.WindowTitle = windowTitle
	}
	if changed("interval") {
		cfg.IntervalMs = intervalMs
	}
}

// resolveTarget picks the window named by cfg.WindowTitle, or the configured monitor.
func (rt *engine) resolveTarget() (capture.Target, string, error) {
	if rt.cfg.WindowTitle == "" {
		return capture.MonitorTarget(rt.cfg.Monitor), fmt.Sprintf("monitor %d", rt.cfg.Monitor), nil
	}
	w, ok := matchWindow(rt.registry.EnumWindows(256), rt.cfg.WindowTitle)
	if !ok {
		return capture.Target{}, "", fmt.Errorf("no visible window matches %q", rt.cfg.WindowTitle)
	}
	return capture.WindowTarget(w.Handle), fmt.Sprintf("window %q", w.Title), nil
}

// matchWindow returns the first window whose title contains needle, ignoring case.
func matchWindow(list []capture.WindowInfo, needle string) (capture.WindowInfo, bool) {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return capture.WindowInfo{}, false
	}
	for _, w := range list {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			return w, true
		}
	}
	return capture.WindowInfo{}, false
}

// startSession creates and starts a session for the resolved target.
func (rt *engine) startSession() (capture.SessionRef, string, error) {
	target, label, err := rt.resolveTarget()
	if err != nil {
		return capture.SessionRef{}, "", err
	}
	h, err := rt.registry.Create(target, rt.cfg.Capture())
	if err != nil {
		return capture.SessionRef{}, "", fmt.Errorf("create session for %s: %w", label, err)
	}
	ref := rt.registry.Ref(h)
	if err := ref.Start(); err != nil {
		ref.Destroy()
		return capture.SessionRef{}, "", fmt.Errorf("start session for %s: %w", label, err)
	}
	return ref, label, nil
}
