package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/criminalintent/internal/paths"
)

func newPhotoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <id>",
		Short: "Show where a crime's photo is stored",
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

			path := paths.PhotoPath(sess.settings.store.DataDir, c)
			exists := true
			if _, err := os.Stat(path); err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return sysError(fmt.Errorf("checking photo: %w", err))
				}
				exists = false
			}

			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"id":     c.ID,
					"path":   path,
					"exists": exists,
				})
			}
			status := "present"
			if !exists {
				status = "missing"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, status)
			return nil
		},
	}
}
