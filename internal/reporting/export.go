package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"holder-analytics/internal/domain"
)

// Format is an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// ParseFormat parses s, falling back to CSV for an empty string.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(s)) {
	case "":
		return FormatCSV, true
	case FormatCSV:
		return FormatCSV, true
	case FormatJSON:
		return FormatJSON, true
	case FormatMarkdown, "markdown":
		return FormatMarkdown, true
	}
	return "", false
}

// ContentType returns the HTTP media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName builds the download name, e.g. holders-table-20261014.csv.
func FileName(section domain.Section, resource string, f Format, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.%s", section, resource, now.UTC().Format("20060102"), f)
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
