package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/criminalintent/internal/archive"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every crime to a JSON Lines file (.zst compresses)",
		Args:  cobra.ExactArgs(1),
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

			n, err := archive.Export(cmd.Context(), sess.repo, args[0])
			if err != nil {
				return sysError(err)
			}
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"file": args[0], "exported": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d crime(s) to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load crimes from a JSON Lines file, replacing records with the same id",
		Args:  cobra.ExactArgs(1),
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

			res, err := archive.Import(cmd.Context(), sess.repo, args[0], sess.logger)
			if err != nil {
				return importError(err)
			}
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d crime(s), skipped %d\n", res.Imported, res.Skipped)
			return nil
		},
	}
}

// importError classifies an import failure. A bad archive file is the
// user's to fix; a failed write is classified like any other store error.
func importError(err error) error {
	if errors.Is(err, archive.ErrUnreadable) || errors.Is(err, archive.ErrEmptyPath) {
		return userError(err)
	}
	return storeError(err)
}
