package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zent/internal/sheets"
)

// parseRows converts a values matrix (as returned by Sheets API) into rows.
// The header row and rows that cannot be read are skipped.
func parseRows(ctx context.Context, values [][]any) []sheets.Row {
	var out []sheets.Row
	for i, cells := range values {
		if i == 0 && isHeader(cells) {
			continue
		}
		if len(cells) == 0 {
			continue
		}
		r, err := sheets.ParseRow(cells)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable sheet row", "row", i+1, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchingRows returns the zero-based indices of rows whose first cell is id.
func matchingRows(values [][]any, id string) []int {
	var out []int
	for i, cells := range values {
		if len(cells) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cells[0])) == id {
			out = append(out, i)
		}
	}
	return out
}

func isHeader(cells []any) bool {
	return len(cells) > 0 && strings.EqualFold(strings.TrimSpace(fmt.Sprint(cells[0])), sheets.Header[0])
}
