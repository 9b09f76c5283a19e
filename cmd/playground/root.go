package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/dbn-playground/config"
	"github.com/wippyai/dbn-playground/internal/app"
)

// cli holds state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string

	cfg      config.Config
	logger   *zap.Logger
	closeLog func() error
	app      *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "playground",
		Short: "DBN playground",
		Long: `Pick an example DBN program, edit it and compile it to an image.

The engine is the built-in DBN interpreter unless engine.path names a WASI
command module. Settings come from a config file, a .env file and DBNPLAY_*
environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $DBNPLAY_CONFIG or ./dbnplay.{toml,yaml})")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(c),
		newTUICmd(c),
		newRunCmd(c),
		newExamplesCmd(c),
	)
	return root
}

// setup loads and validates configuration and builds the logger, which
// writes to logOut unless log.file is set.
func (c *cli) setup(logOut io.Writer) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := app.NewLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger
	c.closeLog = closeLog
	c.app = app.New(cfg, logger)
	return nil
}

func (c *cli) teardown(ctx context.Context) {
	if c.app != nil {
		if err := c.app.Close(ctx); err != nil {
			c.logger.Warn("close engine", zap.Error(err))
		}
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if c.closeLog != nil {
		_ = c.closeLog()
	}
}
