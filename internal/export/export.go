// Package export turns lists of API records into downloadable CSV, XLSX and
// PDF files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// Format is a supported export format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// ParseFormat maps a query value to a Format; unknown values yield CSV.
func ParseFormat(s string) Format {
	switch Format(s) {
	case XLSX, PDF:
		return Format(s)
	}
	return CSV
}

// Table is a header row plus string cells.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Empty reports whether there are no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// FromRecords builds a table whose columns are the keys of the first record,
// in document order. Missing values become empty cells and nested values keep
// their JSON text.
func FromRecords(title string, recs []model.Record) Table {
	t := Table{Title: title}
	if len(recs) == 0 {
		return t
	}
	for _, e := range recs[0].Entries() {
		t.Columns = append(t.Columns, e.Key)
	}
	for _, r := range recs {
		row := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			v := r.Get(escapeKey(col))
			if v.Empty() {
				continue
			}
			if v.IsObject() || v.IsArray() {
				row[i] = v.Raw
			} else {
				row[i] = v.String()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FileName is prefix_YYYY-MM-DD.ext.
func FileName(prefix string, at time.Time, f Format) string {
	return fmt.Sprintf("%s_%s.%s", prefix, at.Format("2006-01-02"), f)
}

// Write renders t in format f.
func Write(w io.Writer, t Table, f Format) error {
	switch f {
	case XLSX:
		return WriteXLSX(w, t)
	case PDF:
		return WritePDF(w, t)
	default:
		return WriteCSV(w, t)
	}
}

// WriteCSV writes a header line followed by one line per row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func escapeKey(k string) string {
	out := make([]rune, 0, len(k))
	for _, r := range k {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
