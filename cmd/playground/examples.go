package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/dbn-playground/catalog"
	"github.com/wippyai/dbn-playground/errors"
	"github.com/wippyai/dbn-playground/playground"
)

func newExamplesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "examples [NAME]",
		Short: "List the example catalog, or print one example",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(os.Stderr); err != nil {
				return err
			}
			defer c.teardown(cmd.Context())

			src, err := c.app.Catalog()
			if err != nil {
				return err
			}
			report := src.Catalog.Fetch(cmd.Context(), src.Fetcher, catalog.FetchOptions{
				Logger:      c.logger,
				Concurrency: c.cfg.Catalog.Concurrency,
			})

			w := cmd.OutOrStdout()
			if len(args) == 1 {
				st, err := playground.Select(src.Catalog, playground.State{}, args[0])
				if err != nil {
					if s, ok := src.Catalog.Suggest(args[0]); ok {
						return errors.New(errors.PhaseSelect, errors.KindNotFound).
							Path(args[0]).
							Detail("unknown example %q, did you mean %q?", args[0], s).
							Build()
					}
					return err
				}
				if ferr, failed := report.Failed[st.Selected]; failed {
					return ferr
				}
				fmt.Fprint(w, st.Text)
				return nil
			}

			for _, ex := range src.Catalog.Examples() {
				mark := color.GreenString("✓")
				if !ex.Fetched() {
					mark = color.RedString("✗")
				}
				name := ex.Name
				if name == src.Default {
					name = color.CyanString("%s (default)", name)
				}
				if ex.Description != "" {
					fmt.Fprintf(w, "%s %s  %s\n", mark, name, color.HiBlackString(ex.Description))
				} else {
					fmt.Fprintf(w, "%s %s\n", mark, name)
				}
			}
			if !report.OK() {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("%d of %d examples could not be fetched", len(report.Failed), src.Catalog.Len()))
			}
			return nil
		},
	}
}
