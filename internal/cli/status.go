package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmlab/strobetx/internal/config"
	"github.com/tmlab/strobetx/internal/gpio"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Chip       string
	Line       int
	IntervalMS int
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Monitor the strobe line level",
		Long: `Poll the strobe line and print its level until interrupted.

Example:
  strobetx status --chip gpiochip0 --line 23`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchLine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chip, "chip", "", "GPIO chip name")
	cmd.Flags().IntVar(&opts.Line, "line", -1, "strobe line offset")
	cmd.Flags().IntVar(&opts.IntervalMS, "interval-ms", 500, "sampling interval in milliseconds")

	return cmd
}

func watchLine(opts *StatusOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	if cmd.Flags().Changed("chip") {
		cfg.GPIO.Chip = opts.Chip
	}
	if cmd.Flags().Changed("line") {
		cfg.GPIO.Line = opts.Line
	}

	line := gpio.NewInputLine(gpio.Config{Chip: cfg.GPIO.Chip, Offset: cfg.GPIO.Line})
	if err := line.Arm(nil); err != nil {
		return WrapExitError(ExitCommandError, "request line", err)
	}
	defer line.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Monitoring %s:%d (Ctrl+C to stop)\n", cfg.GPIO.Chip, cfg.GPIO.Line)

	ticker := time.NewTicker(time.Duration(opts.IntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopped.")
			return nil
		case <-ticker.C:
			lvl, lerr := line.Level()
			if lerr != nil {
				return WrapExitError(ExitFailure, "read line level", lerr)
			}
			fmt.Fprintf(out, "%s:%d: %s\n", cfg.GPIO.Chip, cfg.GPIO.Line, lvl)
		}
	}
}
