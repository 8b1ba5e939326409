package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/cache"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/store/memory"
	"github.com/xraph/tenancy/store/postgres"
)

func newRootCommand() *cobra.Command {
	v := newViper()
	var configFile string

	root := &cobra.Command{
		Use:           "tenancyd",
		Short:         "Multi-tenant identity and membership service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml, json or toml)")
	if err := bindFlags(root, v); err != nil {
		panic(err)
	}

	load := func() (*config, error) { return loadConfig(v, configFile) }
	root.AddCommand(newServeCommand(load), newMigrateCommand(load))
	return root
}

// daemon holds what both subcommands build from the configuration.
type daemon struct {
	cfg    *config
	zap    *zap.Logger
	logger *slog.Logger
	store  store.Store
}

func setup(ctx context.Context, load func() (*config, error)) (*daemon, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	zl, logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	rt := &daemon{cfg: cfg, zap: zl, logger: logger}
	switch cfg.StoreDriver {
	case "postgres":
		s, err := postgres.Connect(ctx, cfg.StoreDSN, cfg.StoreMaxConns)
		if err != nil {
			return nil, err
		}
		rt.store = s
	default:
		rt.store = memory.New()
	}
	zl.Info("store ready", zap.String("driver", cfg.StoreDriver))
	return rt, nil
}

func (rt *daemon) close() {
	if err := rt.store.Close(); err != nil {
		rt.zap.Warn("close store", zap.Error(err))
	}
	_ = rt.zap.Sync()
}

// membershipCache builds the Redis cache when configured, otherwise the
// in-process one.
func (rt *daemon) membershipCache() (tenancy.Cache, func(), error) {
	if rt.cfg.RedisURL == "" {
		return cache.NewMemory(cache.WithTTL(rt.cfg.CacheTTL)), func() {}, nil
	}
	c, err := cache.NewRedisFromURL(rt.cfg.RedisURL,
		cache.WithRedisTTL(rt.cfg.CacheTTL),
		cache.WithLogger(rt.logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}
