package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/criminalintent/internal/viewmodel"
	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

func newNewCmd(opts *rootOptions) *cobra.Command {
	var fields crimeFlags

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Record a new crime",
		Long: "Record a new crime. Unset fields take their defaults: an empty title,\n" +
			"no suspect, unsolved, and the current time.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			c := types.NewCrime()
			if err := fields.apply(cmd, &c); err != nil {
				return err
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

			vm := viewmodel.NewCrimeListViewModel(sess.repo)
			id, future := vm.AddCrime(c)
			if err := future.Wait(cmd.Context()); err != nil {
				return storeError(err)
			}
			sess.logger.Info("crime recorded", "id", id)

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	fields.register(cmd)
	return cmd
}
