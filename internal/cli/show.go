package cli

import (
	"github.com/spf13/cobra"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display one crime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := parseID(args[0])
			if err != nil {
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

			c, err := sess.repo.Get(cmd.Context(), id)
			if err != nil {
				return storeError(err)
			}
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			writeCrime(cmd.OutOrStdout(), c)
			return nil
		},
	}
}
