package dataframe

import (
	"fmt"
	"time"
)

// FormatCell renders a scanned cell value as text, for CSV and markdown
// rendering. nil becomes the empty string; time.Time values render RFC3339
// so a re-imported CSV round-trips.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.RFC3339)
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
