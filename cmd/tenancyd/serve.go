package main

import (
	"github.com/spf13/cobra"
	"github.com/xraph/forge"
	"go.uber.org/zap"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/extension"
)

func newServeCommand(load func() (*config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer rt.close()

			c, closeCache, err := rt.membershipCache()
			if err != nil {
				return err
			}
			defer closeCache()

			rt.zap.Info("listening", zap.String("addr", rt.cfg.HTTPAddr))
			// Run handles SIGINT and SIGTERM and stops the extension on the
			// way out.
			return rt.app(c).Run()
		},
	}
}

// app builds the Forge application hosting the tenancy extension.
func (rt *daemon) app(c tenancy.Cache) forge.App {
	cfg := extension.DefaultConfig()
	cfg.SeedSystemRoles = rt.cfg.SeedSystemRoles
	cfg.CacheTTL = rt.cfg.CacheTTL
	cfg.RequireMembership = rt.cfg.RequireMembership

	ext := extension.New(
		extension.WithConfig(cfg),
		extension.WithStore(rt.store),
		extension.WithCache(c),
		extension.WithLogger(rt.logger),
	)

	return forge.New(
		forge.WithAppName("tenancyd"),
		forge.WithAppVersion(extension.ExtensionVersion),
		forge.WithHTTPAddress(rt.cfg.HTTPAddr),
		forge.WithShutdownTimeout(rt.cfg.ShutdownTimeout),
		forge.WithEnableConfigAutoDiscovery(false),
		forge.WithEnableEnvConfig(false),
		forge.WithExtensions(ext),
	)
}
