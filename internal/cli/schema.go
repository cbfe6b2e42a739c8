package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/criminalintent/pkg/sqlite"
)

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the database location and schema version",
		Long:  "Open the database, upgrading its schema if needed, and report its version.",
		Args:  cobra.NoArgs,
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

			stored, err := sess.backend.SchemaVersion(cmd.Context())
			if err != nil {
				return sysError(err)
			}
			dao, err := sess.backend.Crimes()
			if err != nil {
				return sysError(err)
			}
			count, err := dao.Count(cmd.Context())
			if err != nil {
				return sysError(err)
			}

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"database":       sess.backend.Path(),
					"schema_version": stored,
					"current":        sqlite.SchemaVersion,
					"crimes":         count,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database:        %s\n", sess.backend.Path())
			fmt.Fprintf(out, "Schema version:  %d (current %d)\n", stored, sqlite.SchemaVersion)
			fmt.Fprintf(out, "Crimes:          %d\n", count)
			return nil
		},
	}
}
