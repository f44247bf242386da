// Package app provides the shared entry point for the tgsend commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/tgsend/internal/config"
	"github.com/flemzord/tgsend/internal/reload"
)

// stopTimeout bounds graceful shutdown after a signal or before a reload.
const stopTimeout = 10 * time.Second

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.ResolvePath searches the standard locations.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// WatchConfig reloads the configuration when the file changes.
	// SIGHUP always triggers a reload.
	WatchConfig bool

	// WatchInterval overrides reload.DefaultPollInterval.
	WatchInterval time.Duration

	// LogOutput receives the process log. Defaults to os.Stderr.
	LogOutput io.Writer
}

// LoadConfig resolves, loads and validates the configuration file.
func LoadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.ResolvePath(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Run loads configuration, starts the gateway and the scheduler, and blocks
// until ctx is cancelled or SIGINT/SIGTERM is received. SIGHUP, and file
// changes when WatchConfig is set, replace the running components with ones
// built from the new configuration.
func Run(ctx context.Context, params RunParams) error {
	cfg, path, err := LoadConfig(params.ConfigPath)
	if err != nil {
		return err
	}

	rt, err := Build(ctx, params.buildParams(cfg))
	if err != nil {
		return err
	}
	rt.Logger.Info("tgsend starting",
		"version", params.Version,
		"commit", params.Commit,
		"config", path,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Start(ctx); err != nil {
		stopRuntime(ctx, rt)
		return err
	}

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	var changes <-chan struct{}
	if params.WatchConfig {
		changes = reload.Watch(ctx, path, params.WatchInterval)
	}

	for {
		select {
		case <-ctx.Done():
			rt.Logger.Info("shutdown signal received")
			stopRuntime(ctx, rt)
			rt.Logger.Info("shutdown complete")
			return nil
		case <-sighup:
			rt.Logger.Info("SIGHUP received, reloading configuration")
			rt = reloadRuntime(ctx, rt, path, params)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			rt.Logger.Info("config file changed, reloading", "path", path)
			rt = reloadRuntime(ctx, rt, path, params)
		}
	}
}

func (p RunParams) buildParams(cfg *config.Config) BuildParams {
	return BuildParams{Config: cfg, Version: p.Version, LogOutput: p.LogOutput}
}

// reloadRuntime swaps current for a runtime built from the file at path.
// An invalid configuration leaves current running. If the new runtime
// fails to start, the previous configuration is restarted.
func reloadRuntime(ctx context.Context, current *Runtime, path string, params RunParams) *Runtime {
	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		current.Logger.Error("reload failed, keeping current configuration", "error", err)
		return current
	}

	next, err := Build(ctx, params.buildParams(cfg))
	if err != nil {
		current.Logger.Error("reload failed, keeping current configuration", "error", err)
		return current
	}

	// The gateway port must be released before the new gateway binds it.
	stopRuntime(ctx, current)
	err = next.Start(ctx)
	if err == nil {
		next.Logger.Info("configuration reloaded")
		return next
	}
	next.Logger.Error("new configuration failed to start, restoring previous", "error", err)
	stopRuntime(ctx, next)

	restored, err := restart(ctx, current.Config, params)
	if err != nil {
		current.Logger.Error("restoring previous configuration failed", "error", err)
		// Keep a stopped runtime so shutdown still has something to stop.
		return next
	}
	return restored
}

func restart(ctx context.Context, cfg *config.Config, params RunParams) (*Runtime, error) {
	rt, err := Build(ctx, params.buildParams(cfg))
	if err != nil {
		return nil, err
	}
	if err := rt.Start(ctx); err != nil {
		stopRuntime(ctx, rt)
		return nil, fmt.Errorf("restart: %w", err)
	}
	return rt, nil
}

// stopRuntime stops rt within stopTimeout, even when ctx is already done.
func stopRuntime(ctx context.Context, rt *Runtime) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := rt.Stop(stopCtx); err != nil && !errors.Is(err, context.Canceled) {
		rt.Logger.Error("stop failed", "error", err)
	}
}
