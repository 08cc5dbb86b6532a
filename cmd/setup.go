package cmd

import (
	"context"
	"fmt"
	"os"

	"dockhand/internal/config"
	"dockhand/internal/engine"
	"dockhand/internal/persist"
	"dockhand/internal/runtime"
	"dockhand/pkg/logging"
)

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config file)")
}

// buildEngine assembles the engine from the node configuration. The returned
// cleanup func releases the store connection and must be called on exit.
func buildEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.Init(logging.ParseLevel(level), os.Stderr)

	rt, err := runtime.New(cfg.Runtime)
	if err != nil {
		return nil, nil, err
	}

	store, cleanup, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	return engine.New(engine.Config{
		Runtime: rt,
		Store:   store,
		NodeID:  cfg.NodeID,
	}), cleanup, nil
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (persist.Store, func(), error) {
	noop := func() {}

	switch cfg.Type {
	case "file", "":
		store, err := persist.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case "postgres":
		store, err := persist.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "none":
		return nil, noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
