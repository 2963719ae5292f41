package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tmlab/strobetx/internal/config"
	"github.com/tmlab/strobetx/internal/decode"
	"github.com/tmlab/strobetx/internal/uart"
)

// ReadOptions holds flags for the read command.
type ReadOptions struct {
	*RootOptions
	Port      string
	Baud      int
	Chunk     int
	TimeoutMS int
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Decode incoming UART traffic in every interpretation",
		Long: `Read raw bytes from the UART and display every common
interpretation of each received chunk: hex and binary dumps, ASCII
and UTF-8 text, all fixed-width signed and unsigned integers, and
IEEE-754 floats, in both byte orders.

Example:
  strobetx read --port /dev/serial0 --baud 921600`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return readTraffic(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "serial port device")
	cmd.Flags().IntVar(&opts.Baud, "baud", 0, "serial baud rate")
	cmd.Flags().IntVar(&opts.Chunk, "chunk", 256, "max bytes to pull per read")
	cmd.Flags().IntVar(&opts.TimeoutMS, "timeout-ms", 1000, "read timeout in milliseconds")

	return cmd
}

func readTraffic(opts *ReadOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.UART.Port = opts.Port
	}
	if cmd.Flags().Changed("baud") {
		cfg.UART.Baud = opts.Baud
	}

	timeout := time.Duration(opts.TimeoutMS) * time.Millisecond

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Opening UART  : %s\n", cfg.UART.Port)
	fmt.Fprintf(out, "Baud rate     : %d\n", cfg.UART.Baud)
	fmt.Fprintf(out, "Read chunk    : %d bytes\n", opts.Chunk)
	fmt.Fprintf(out, "Timeout       : %s\n", timeout)

	port, err := uart.Open(uart.Config{
		Port:        cfg.UART.Port,
		Baud:        cfg.UART.Baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "open uart", err)
	}
	defer port.Close()

	// Drop whatever accumulated in the driver before we started
	// listening, so packet numbering begins with live traffic.
	if derr := port.Discard(); derr != nil {
		slog.Warn("uart discard failed", "error", derr)
	}

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

	fmt.Fprintln(out, decode.Separator('═'))
	fmt.Fprintln(out, "Listening for data... (Ctrl+C to stop)")
	fmt.Fprintln(out, decode.Separator('═'))

	buf := make([]byte, opts.Chunk)
	packets := 0
	var byteTotal int64

	for ctx.Err() == nil {
		n, rerr := port.Read(buf)
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			slog.Warn("uart read failed", "error", rerr)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if n == 0 {
			// Read timeout with no data. Loop; this is the
			// cancellation check point.
			continue
		}

		packets++
		byteTotal += int64(n)
		data := make([]byte, n)
		copy(data, buf[:n])
		decode.Render(out, decode.Packet{Num: packets, At: time.Now(), Data: data})
	}

	p := message.NewPrinter(language.English)
	fmt.Fprintln(out, decode.Separator('═'))
	p.Fprintf(out, "Stopped.  Packets received: %d  |  Total bytes: %d\n", packets, byteTotal)
	return nil
}
