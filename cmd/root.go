package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zalepa/cocstats/config"
	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/logging"
	"github.com/zalepa/cocstats/source"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgPath string
	cfg     *config.Config
	logger  zerolog.Logger
}

// NewRootCmd builds the cocstats command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "cocstats",
		Short:         "Explore CoC homelessness statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			cfg, err := config.Load(a.cfgPath,
				config.BindFlag("source.location", flags.Lookup("source")),
				config.BindFlag("source.range", flags.Lookup("range")),
				config.BindFlag("log.level", flags.Lookup("log-level")),
				config.BindFlag("log.format", flags.Lookup("log-format")),
				config.BindFlag("server.addr", flags.Lookup("addr")),
				config.BindFlag("view.page_size", flags.Lookup("page-size")),
			)
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "config file (default "+config.DefaultFile+" if present)")
	pf.String("source", "", "source location: sheets://ID, s3://bucket/key, URL, .xlsx or .csv path")
	pf.String("range", "", "sheet range (Google Sheets) or sheet name (XLSX)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console or json)")

	root.AddCommand(newServeCmd(a), newViewCmd(a), newExportCmd(a), newFetchCmd(a))
	return root
}

// Execute runs the command tree with os.Args.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// fetchGrid fetches the raw grid from the configured source.
func (a *app) fetchGrid(ctx context.Context) ([][]string, error) {
	f, err := source.New(a.cfg.Source)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Source.Timeout)
	defer cancel()
	return f.Fetch(ctx)
}

// loadStore fetches and transforms the configured source.
func (a *app) loadStore(ctx context.Context) (*dataset.Store, error) {
	f, err := source.New(a.cfg.Source)
	if err != nil {
		return nil, err
	}
	records, err := source.Load(ctx, f, a.cfg.Source.Timeout)
	if err != nil {
		return nil, err
	}
	return dataset.NewStore(records), nil
}
