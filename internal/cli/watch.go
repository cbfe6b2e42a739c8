package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/criminalintent/internal/viewmodel"
	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the crime list every time it changes",
		Long: "Print the crime list, then print it again after every change, including\n" +
			"changes made by other criminalintent processes. Stops on interrupt or\n" +
			"after --for.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := sess.close(); err == nil {
					err = cerr
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			return watchCrimes(ctx, sess, viewmodel.NewCrimeListViewModel(sess.repo), cmd.OutOrStdout(), opts.jsonMode)
		},
	}
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

// watchCrimes prints every list snapshot until ctx ends. Snapshots are
// delivered on one dispatcher loop. One goroutine turns file changes from
// other processes into refreshes; another shuts the loop down once ctx ends.
func watchCrimes(ctx context.Context, sess *session, vm *viewmodel.CrimeListViewModel, out io.Writer, jsonMode bool) error {
	loop := live.NewLoop()

	var printErr error
	sub := vm.Crimes().Observe(loop, func(crimes []types.Crime) {
		if printErr != nil {
			return
		}
		printErr = printSnapshot(out, crimes, jsonMode)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sess.backend.WatchExternalChanges(gctx); err != nil {
			return sysError(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sub.Cancel()
		loop.Stop()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	// The loop has exited, so printErr is no longer written.
	if printErr != nil {
		return sysError(printErr)
	}
	return nil
}

func printSnapshot(w io.Writer, crimes []types.Crime, jsonMode bool) error {
	if jsonMode {
		// One compact document per line so the stream can be piped.
		line, err := json.Marshal(crimes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(line))
		return err
	}
	if _, err := fmt.Fprintf(w, "--- %s: %d crime(s)\n", time.Now().Format(dateLayout), len(crimes)); err != nil {
		return err
	}
	return writeCrimeTable(w, crimes)
}
