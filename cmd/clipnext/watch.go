package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipnext/internal/grpcservice"
	"go.klb.dev/clipnext/internal/service"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a line per clipboard change",
		Long: `Starts the service's change watcher and prints one line per change until
interrupted. A watcher this command started is stopped again on exit; one
that was already running is left alone. With --snapshot each change is
followed by a JSON snapshot of the clipboard instead of the event name.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(v)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withClient(ctx, v, func(ctx context.Context, c *grpcservice.Client) error {
				var opts *service.SnapshotOptions
				if v.GetBool("snapshot") {
					o := snapshotOptions(v)
					opts = &o
				}
				return runWatch(ctx, cmd.OutOrStdout(), c, opts)
			})
		},
	}
	cmd.Flags().Bool("snapshot", false, "print a JSON snapshot on every change")
	addSnapshotFlags(cmd)
	addLoggingFlags(cmd)
	addClientFlags(cmd)
	return cmd
}

// runWatch subscribes before starting the watcher so no change is missed.
// A watcher that was already running (serve --watch, start-watch) belongs
// to someone else and is left running on exit.
func runWatch(ctx context.Context, out io.Writer, c *grpcservice.Client, snap *service.SnapshotOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := c.Events(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	running, err := c.Watching(ctx)
	if err != nil {
		return fmt.Errorf("watch state: %w", err)
	}
	if !running {
		if err := c.StartWatch(ctx); err != nil {
			return fmt.Errorf("start watch: %w", err)
		}
		defer func() {
			if err := c.StopWatch(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("stop watch failed", "err", err)
			}
		}()
	}

	for {
		ev, err := events.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}
		if snap == nil {
			if _, err := fmt.Fprintln(out, ev.GetValue()); err != nil {
				return err
			}
			continue
		}
		s, err := c.ReadClipboard(ctx, *snap)
		if err != nil {
			slog.Warn("snapshot failed", "err", err)
			continue
		}
		if err := printJSON(out, s); err != nil {
			return err
		}
	}
}
