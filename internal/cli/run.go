package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmlab/strobetx/internal/config"
	"github.com/tmlab/strobetx/internal/engine"
	"github.com/tmlab/strobetx/internal/gpio"
	"github.com/tmlab/strobetx/internal/trace"
	"github.com/tmlab/strobetx/internal/uart"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Mode       string
	Port       string
	Baud       int
	Chip       string
	Line       int
	DebounceMS int
	Order      string
	Width      int
	Strategy   string
	Trace      string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transmit a 4-byte payload on every strobe edge",
		Long: `Wait for rising edges on the strobe line and transmit a derived
4-byte payload over the UART for each one.

The payload counter cycles 1-255 (or the full 32-bit range with
--width 32) and encodes per the selected mode: byte0 keeps the
counter on the first byte, scan walks it across the four byte lanes
one full cycle at a time, all replicates it into every lane.

If no mode is configured and stdin is a terminal, an interactive
menu asks for one.

Example:
  strobetx run --mode all
  strobetx run --config rig.yaml --mode scan --trace ./strobe.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "transmission mode (byte0|scan|all)")
	cmd.Flags().StringVar(&opts.Port, "port", "", "serial port device")
	cmd.Flags().IntVar(&opts.Baud, "baud", 0, "serial baud rate")
	cmd.Flags().StringVar(&opts.Chip, "chip", "", "GPIO chip name")
	cmd.Flags().IntVar(&opts.Line, "line", -1, "strobe line offset")
	cmd.Flags().IntVar(&opts.DebounceMS, "debounce-ms", -1, "debounce window in milliseconds (0 disables)")
	cmd.Flags().StringVar(&opts.Order, "byte-order", "", "wire byte order (lsb|msb)")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "counter width in bits (8|32)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "", "edge detection strategy (events|poll)")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "record transmissions to this SQLite database")

	return cmd
}

// resolveRunConfig merges defaults, the config file, flag overrides
// and (when still unresolved) the interactive mode prompt, then
// validates the result. Configuration is never re-read after this.
func resolveRunConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "load configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = opts.Mode
	}
	if flags.Changed("port") {
		cfg.UART.Port = opts.Port
	}
	if flags.Changed("baud") {
		cfg.UART.Baud = opts.Baud
	}
	if flags.Changed("chip") {
		cfg.GPIO.Chip = opts.Chip
	}
	if flags.Changed("line") {
		cfg.GPIO.Line = opts.Line
	}
	if flags.Changed("debounce-ms") {
		cfg.GPIO.DebounceMS = opts.DebounceMS
	}
	if flags.Changed("byte-order") {
		cfg.UART.Order = opts.Order
	}
	if flags.Changed("width") {
		cfg.Counter.Width = opts.Width
	}
	if flags.Changed("strategy") {
		cfg.GPIO.Strategy = opts.Strategy
	}
	if flags.Changed("trace") {
		cfg.Trace.Path = opts.Trace
	}

	if cfg.Mode == "" {
		if !promptable(cmd.InOrStdin()) {
			return cfg, NewExitError(ExitCommandError, "mode is required (use --mode or the config file)")
		}
		mode, perr := config.PromptMode(cmd.InOrStdin(), cmd.OutOrStdout())
		if perr != nil {
			return cfg, WrapExitError(ExitCommandError, "select mode", perr)
		}
		cfg.Mode = mode
	}

	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "validate configuration", err)
	}
	return cfg, nil
}

// promptable reports whether the reader can host an interactive
// prompt. Non-file readers (tests injecting buffers) are promptable.
func promptable(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := resolveRunConfig(opts, cmd)
	if err != nil {
		return err
	}

	mode, err := engine.ParseMode(cfg.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve mode", err)
	}
	order, err := engine.ParseByteOrder(cfg.UART.Order)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve byte order", err)
	}
	counterMax := engine.MaxByte
	if cfg.Counter.Width == 32 {
		counterMax = engine.MaxWord
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting in MODE: %s\n", cfg.Mode)

	sink, err := uart.Open(uart.Config{Port: cfg.UART.Port, Baud: cfg.UART.Baud})
	if err != nil {
		return WrapExitError(ExitCommandError, "open uart", err)
	}
	// From here the sink belongs to the engine, which closes it on
	// release; only pre-engine error paths close it directly.

	lineCfg := gpio.Config{
		Chip:     cfg.GPIO.Chip,
		Offset:   cfg.GPIO.Line,
		Debounce: time.Duration(cfg.GPIO.DebounceMS) * time.Millisecond,
	}
	var source engine.Source
	if cfg.GPIO.Strategy == "poll" {
		line := gpio.NewInputLine(lineCfg)
		interval := time.Duration(cfg.GPIO.PollIntervalMS) * time.Millisecond
		source = gpio.NewPoller(line, interval, lineCfg.Debounce)
	} else {
		source = gpio.NewLine(lineCfg)
	}

	engOpts := []engine.Option{engine.WithOutput(out)}
	if cfg.Trace.Path != "" {
		store, terr := trace.Open(cfg.Trace.Path)
		if terr != nil {
			sink.Close()
			return WrapExitError(ExitCommandError, "open trace database", terr)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				slog.Error("trace close failed", "error", cerr)
			}
		}()
		slog.Info("trace enabled", "db", cfg.Trace.Path, "session", store.Session())
		engOpts = append(engOpts, engine.WithRecorder(store))
	}

	eng := engine.New(source, sink, engine.Config{
		Mode:       mode,
		CounterMax: counterMax,
		Order:      order,
	}, engOpts...)

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
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(out, "Waiting for strobe on %s:%d... (Press Ctrl+C to exit)\n",
		cfg.GPIO.Chip, cfg.GPIO.Line)

	if err := eng.Run(ctx); err != nil {
		if engine.IsSetupExhausted(err) {
			return WrapExitError(ExitCommandError, "edge source setup failed", err)
		}
		return WrapExitError(ExitFailure, "engine error", err)
	}

	stats := eng.Stats()
	fmt.Fprintf(out, "\nExiting. Sent: %d | Captured: %d | Dropped: %d\n",
		stats.Total, stats.Captured, stats.Dropped)
	return nil
}
