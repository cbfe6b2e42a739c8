package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// crimeFlags are the editable fields shared by new and edit.
type crimeFlags struct {
	title   string
	suspect string
	date    string
	solved  bool
}

func (f *crimeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "crime title")
	cmd.Flags().StringVar(&f.suspect, "suspect", "", "suspect name (empty clears it)")
	cmd.Flags().StringVar(&f.date, "date", "", "when it happened (YYYY-MM-DD, \"YYYY-MM-DD HH:MM\", or RFC 3339)")
	cmd.Flags().BoolVar(&f.solved, "solved", false, "mark solved (--solved=false reopens)")
}

// apply copies the flags the user set onto c.
func (f *crimeFlags) apply(cmd *cobra.Command, c *types.Crime) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		c.Title = f.title
	}
	if changed("suspect") {
		c.Suspect = f.suspect
	}
	if changed("date") {
		d, err := parseDate(f.date)
		if err != nil {
			return err
		}
		c.Date = d
	}
	if changed("solved") {
		c.IsSolved = f.solved
	}
	return nil
}

// anyChanged reports whether at least one field flag was given.
func (f *crimeFlags) anyChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"title", "suspect", "date", "solved"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func errMutuallyExclusive(a, b string) error {
	return fmt.Errorf("%s and %s cannot be used together", a, b)
}
