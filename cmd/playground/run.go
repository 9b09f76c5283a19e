package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wippyai/dbn-playground/errors"
	"github.com/wippyai/dbn-playground/playground"
)

func newRunCmd(c *cli) *cobra.Command {
	var (
		out    string
		gifOut string
		gif    bool
	)

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Compile one DBN program to an image file",
		Long: `Compile FILE (or - for stdin) with the configured engine and write the
primary image. With --gif the secondary entry point is invoked too and its
animation written next to it.`,
		Example: `  playground run examples/dbn/lines.dbn
  playground run --gif -o out.png sketch.dbn
  cat sketch.dbn | playground run -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(os.Stderr); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer c.teardown(context.Background())

			file := args[0]
			src, err := readSource(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			base := "out"
			if file != "-" {
				base = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}
			if out == "" {
				out = base + ".png"
			}
			if gifOut == "" {
				gifOut = base + ".gif"
			}

			binding, err := c.app.EngineLoader()(ctx)
			if err != nil {
				return err
			}
			if gif && !binding.HasSecondary() {
				return errors.InvalidInput(errors.PhaseRun, "--gif needs engine.secondary to be configured")
			}

			runner := playground.NewRunner(binding, c.logger)
			outcome := runner.Run(ctx, src, gif, &playground.Board{})

			w := cmd.OutOrStdout()
			switch res := outcome.Result.(type) {
			case playground.Failure:
				fmt.Fprintln(cmd.ErrOrStderr(), color.RedString(res.Message))
				return fmt.Errorf("compile %s failed", file)
			case playground.Image:
				n, err := writeDataURI(out, res.Data)
				if err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(w, "%s %s (%s) in %s\n", color.GreenString("wrote"), out, formatBytes(n), outcome.Elapsed.Round(time.Millisecond))
			}

			if outcome.SecondaryInvoked {
				// The secondary return is unclassified; only an image is written.
				if img, ok := playground.Classify(outcome.Secondary).(playground.Image); ok {
					n, err := writeDataURI(gifOut, img.Data)
					if err != nil {
						return fmt.Errorf("write %s: %w", gifOut, err)
					}
					fmt.Fprintf(w, "%s %s (%s)\n", color.GreenString("wrote"), gifOut, formatBytes(n))
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("animation: %s", outcome.Secondary))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "image path (default: FILE with .png)")
	cmd.Flags().BoolVar(&gif, "gif", false, "also render the animation")
	cmd.Flags().StringVar(&gifOut, "gif-out", "", "animation path (default: FILE with .gif)")
	return cmd
}

func readSource(stdin io.Reader, file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}
