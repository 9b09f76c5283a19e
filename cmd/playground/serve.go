package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/dbn-playground/web"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the playground over HTTP",
		Example: `  playground serve
  playground serve --addr :9090
  DBNPLAY_ENGINE_PATH=dbn.wasm playground serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(os.Stderr); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer c.teardown(context.Background())

			session, err := c.app.Bootstrap(ctx)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			color.Cyan("DBN playground on http://%s", addr)

			return web.New(session, web.Options{
				Logger:    c.logger,
				Addr:      addr,
				Secondary: c.cfg.UI.Secondary,
			}).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}
