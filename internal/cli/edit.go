package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/criminalintent/internal/viewmodel"
	"github.com/mesh-intelligence/criminalintent/pkg/live"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// loadTimeout bounds the wait for the detail screen's first snapshot.
const loadTimeout = 5 * time.Second

func newEditCmd(opts *rootOptions) *cobra.Command {
	var fields crimeFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing crime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !fields.anyChanged(cmd) {
				return userError(fmt.Errorf("nothing to change: pass --title, --suspect, --date, or --solved"))
			}

			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := sess.close(); err == nil {
					err = cerr
				}
			}()

			vm := viewmodel.NewCrimeDetailViewModel(sess.repo)
			current, err := loadDetail(cmd.Context(), vm, id)
			if err != nil {
				return err
			}
			if current == nil {
				return userError(fmt.Errorf("crime %s: %w", id, types.ErrNotFound))
			}

			edited := *current
			if err := fields.apply(cmd, &edited); err != nil {
				return err
			}
			if err := vm.SaveCrime(edited).Wait(cmd.Context()); err != nil {
				return storeError(err)
			}
			sess.logger.Info("crime updated", "id", id)

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), edited)
			}
			writeCrime(cmd.OutOrStdout(), edited)
			return nil
		},
	}
	fields.register(cmd)
	return cmd
}

// loadDetail selects id on vm and waits for the first snapshot, delivered
// on a dispatcher loop the way a screen would receive it. The result is nil
// when no crime has the id.
func loadDetail(ctx context.Context, vm *viewmodel.CrimeDetailViewModel, id uuid.UUID) (*types.Crime, error) {
	loop := live.NewLoop()
	defer loop.Stop()

	first := make(chan *types.Crime, 1)
	sub := vm.Crime().Observe(loop, func(c *types.Crime) {
		select {
		case first <- c:
		default:
		}
	})
	defer sub.Cancel()

	vm.LoadCrime(id)

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	select {
	case c := <-first:
		return c, nil
	case <-ctx.Done():
		return nil, sysError(fmt.Errorf("loading crime %s: %w", id, ctx.Err()))
	}
}
