package rest

import (
	"fmt"
	"strings"
	"time"
)

// windowLayout is the path form of a window bound, e.g. 2021-03-04T10A30 for 2021-03-04 10:30.
const windowLayout = "2006-01-02 15:04"

// parseWindowBound reads a bound written as yyyy-MM-ddTHHAmm. The first 'T' stands for the
// date/time separator and the first 'A' for the hour/minute colon. Bounds are UTC.
func parseWindowBound(segment string) (time.Time, error) {
	s := strings.Replace(segment, "T", " ", 1)
	s = strings.Replace(s, "A", ":", 1)
	t, err := time.ParseInLocation(windowLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q, expected yyyy-MM-ddTHHAmm", segment)
	}
	return t, nil
}
