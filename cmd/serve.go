package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/report"
	"github.com/zalepa/cocstats/server"
	"github.com/zalepa/cocstats/view"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive statistics dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.loadStore(ctx)
			if err != nil {
				// The dashboard still comes up and reports that no data is loaded.
				a.logger.Error().Err(err).Str("source", a.cfg.Source.Location).Msg("failed to load source, serving empty data")
				store = dataset.NewStore(nil)
			}

			api := server.NewWebAPI(a.logger, server.Config{
				Addr:            a.cfg.Server.Addr,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				SessionTTL:      a.cfg.Server.SessionTTL,
				View: view.Options{
					PageSize:      a.cfg.View.PageSize,
					AutoSelectMax: a.cfg.View.AutoSelectMax,
				},
				Dependencies: server.Dependencies{
					Store:    store,
					Renderer: report.Renderer{},
					Logger:   a.logger,
				},
			})
			return api.Start(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}
