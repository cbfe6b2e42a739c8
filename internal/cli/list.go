package cli

import (
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var solvedOnly, openOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every crime in the order it was recorded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if solvedOnly && openOnly {
				return userError(errMutuallyExclusive("--solved", "--open"))
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

			crimes, err := sess.repo.List(cmd.Context())
			if err != nil {
				return storeError(err)
			}
			if solvedOnly || openOnly {
				filtered := crimes[:0]
				for _, c := range crimes {
					if c.IsSolved == solvedOnly {
						filtered = append(filtered, c)
					}
				}
				crimes = filtered
			}

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), crimes)
			}
			return writeCrimeTable(cmd.OutOrStdout(), crimes)
		},
	}
	cmd.Flags().BoolVar(&solvedOnly, "solved", false, "only solved crimes")
	cmd.Flags().BoolVar(&openOnly, "open", false, "only unsolved crimes")
	return cmd
}
