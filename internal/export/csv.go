package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, rows []domain.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// FileName suggests a download name for an export produced at the given date.
func FileName(date string) string {
	return "hrt_history_" + date + ".csv"
}
