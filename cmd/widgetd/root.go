package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"widgetd/internal/app"
)

type cliOptions struct {
	configPath string
	logLevel   string
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "widgetd",
		Short:         "Serve interactive widgets as MCP tools and resources",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := app.BuildLogger(os.Getenv("APP_ENV"), opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "optional config file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(&opts),
		newToolsCmd(&opts),
		newContractCmd(&opts),
	)
	return root
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := initApplication(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return application.Run(ctx)
		},
	}
	addServeFlags(cmd)
	cmd.Flags().String("observability", "", "address for /metrics and /healthz (disabled when empty)")
	cmd.Flags().Bool("watch", false, "log widget bundle rebuilds")
	return cmd
}

func newToolsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the advertised tool descriptors as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := initApplication(cmd, opts)
			if err != nil {
				return err
			}
			tools, err := application.Catalog().Tools()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"etag":  application.Catalog().ETag(),
				"tools": tools,
			})
		},
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "listen host (default 127.0.0.1)")
	cmd.Flags().Int("port", 0, "listen port (default 8000)")
	cmd.Flags().String("widgets-dir", "", "widget build output directory")
}

func initApplication(cmd *cobra.Command, opts *cliOptions) (*app.Application, error) {
	cfg, err := app.LoadServeConfig(opts.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return app.InitializeApplication(cfg, app.LoggingConfig{Logger: opts.logger})
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
