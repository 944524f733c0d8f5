package report

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// RenderCSV writes the aggregation with dates as columns and descriptions as
// rows. Cells hold hours with two decimals, or nothing when zero. Records are
// separated by "\n" with no trailing newline. Fields containing commas, quotes
// or newlines are quoted per RFC 4180.
func RenderCSV(a *Aggregation) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := make([]string, 0, len(a.Dates)+1)
	header = append(header, "Description")
	header = append(header, a.Dates...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for _, desc := range a.Descriptions {
		row := make([]string, 0, len(a.Dates)+1)
		row = append(row, desc)
		for _, date := range a.Dates {
			row = append(row, FormatHours(a.Hours(desc, date)))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write row %q: %w", desc, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	return strings.TrimSuffix(sb.String(), "\n"), nil
}

// FormatHours renders positive hours with two decimals and zero as "".
func FormatHours(h float64) string {
	if h <= 0 {
		return ""
	}
	return strconv.FormatFloat(h, 'f', 2, 64)
}
