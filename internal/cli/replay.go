package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmlab/strobetx/internal/decode"
	"github.com/tmlab/strobetx/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
	List     bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-render recorded transmissions from a trace database",
		Long: `Read a trace database written by 'run --trace' and re-render each
recorded transmission through the same decoder views the read
command uses.

Example:
  strobetx replay --db ./strobe.db
  strobetx replay --db ./strobe.db --sessions
  strobetx replay --db ./strobe.db --session 6f1c...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to trace database (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (default: most recent)")
	cmd.Flags().BoolVar(&opts.List, "sessions", false, "list recorded sessions instead of replaying")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func replayTrace(opts *ReplayOptions, cmd *cobra.Command) error {
	store, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open trace database", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if opts.List {
		sessions, serr := store.Sessions(ctx)
		if serr != nil {
			return WrapExitError(ExitFailure, "list sessions", serr)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No recorded sessions.")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintln(out, s)
		}
		return nil
	}

	rows, err := store.List(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitFailure, "read trace", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No recorded transmissions.")
		return nil
	}

	for i, r := range rows {
		decode.Render(out, decode.Packet{Num: i + 1, At: r.SentAt, Data: r.Wire})
	}

	fmt.Fprintf(out, "Replayed %d transmission(s) from session %s\n", len(rows), rows[0].Session)
	return nil
}
