package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Column codecs. Dates are stored as milliseconds since the Unix epoch and
// ids as their canonical text form.

func dateToEpoch(t time.Time) int64 {
	return t.UnixMilli()
}

func epochToDate(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func uuidToString(id uuid.UUID) string {
	return id.String()
}

func stringToUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing identifier %q: %w", s, err)
	}
	return id, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
