package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/sableworks/calgrab/internal/model"
)

// csvHeader is the fixed export column order. Consumers key on position, so
// it never changes shape.
var csvHeader = []string{
	"Index", "Label", "Platforms", "Timestamp", "Description",
	"Image URL", "Video URL", "Event URL", "Has Video",
}

// BuildCSV renders records as CSV. Quote escaping (doubling) is handled by
// encoding/csv; description newlines are collapsed to spaces so each record
// stays on one row for spreadsheet consumers.
func BuildCSV(records []model.EventRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.CardIndex),
			r.Label,
			strings.Join(r.Platforms, ", "),
			r.Timestamp,
			collapseNewlines(r.Description),
			r.ImageRef,
			r.VideoRef,
			r.EventURL,
			strconv.FormatBool(r.HasVideo),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r.CardIndex, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}

func collapseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
