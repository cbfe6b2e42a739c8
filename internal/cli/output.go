package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mesh-intelligence/criminalintent/pkg/types"
)

// dateLayout is how dates are shown and accepted on the command line.
const dateLayout = "2006-01-02 15:04"

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeCrimeTable writes one row per crime.
func writeCrimeTable(w io.Writer, crimes []types.Crime) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSOLVED\tTITLE\tSUSPECT")
	for _, c := range crimes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Date.Format(dateLayout), yesNo(c.IsSolved), c.Title, c.Suspect)
	}
	return tw.Flush()
}

// writeCrime writes the details of one crime.
func writeCrime(w io.Writer, c types.Crime) {
	fmt.Fprintf(w, "ID:       %s\n", c.ID)
	fmt.Fprintf(w, "Title:    %s\n", c.Title)
	fmt.Fprintf(w, "Date:     %s\n", c.Date.Format(dateLayout))
	fmt.Fprintf(w, "Solved:   %s\n", yesNo(c.IsSolved))
	suspect := c.Suspect
	if !c.HasSuspect() {
		suspect = "(none)"
	}
	fmt.Fprintf(w, "Suspect:  %s\n", suspect)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// parseDate accepts RFC 3339, the display layout, or a bare date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{dateLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, userError(fmt.Errorf("invalid date %q (want YYYY-MM-DD, %q, or RFC 3339)", s, dateLayout))
}
