package memory

import (
	"fmt"
	"time"
)

// timeNow is a package-level variable for testability.
// Config.Now takes precedence when set.
var timeNow = time.Now

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t as the stored ISO-8601 representation (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timestampLayouts covers values written by this package, RFC3339 writers
// and naive ISO-8601 values from older data.
var timestampLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a stored timestamp. Values without a zone are read as UTC.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("memory: unrecognized timestamp %q", value)
}
