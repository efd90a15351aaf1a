package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

func sampleTable() Table {
	recs := model.RecordOf(`[
		{"id": 1, "action": "client_created", "details": "Added \"Acme\", Inc", "meta": {"a": 1}},
		{"id": 2, "action": "campaign_deleted", "details": null}
	]`).List()
	return FromRecords("Audit Log", recs)
}

func TestFromRecords(t *testing.T) {
	tbl := sampleTable()
	if got := strings.Join(tbl.Columns, ","); got != "id,action,details,meta" {
		t.Fatalf("unexpected columns %q", got)
	}
	if tbl.Rows[0][3] != `{"a": 1}` {
		t.Errorf("nested value should keep JSON, got %q", tbl.Rows[0][3])
	}
	if tbl.Rows[1][2] != "" || tbl.Rows[1][3] != "" {
		t.Errorf("missing values should be empty: %q", tbl.Rows[1])
	}
	if !FromRecords("x", nil).Empty() {
		t.Error("no records should give an empty table")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleTable()); err != nil {
		t.Fatalf("csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "id,action,details,meta" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], `"Added ""Acme"", Inc"`) {
		t.Errorf("quotes not escaped: %q", lines[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleTable()); err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Audit Log")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 || rows[0][1] != "action" || rows[2][1] != "campaign_deleted" {
		t.Errorf("unexpected rows %q", rows)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleTable()); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:8])
	}

	buf.Reset()
	if err := WritePDF(&buf, Table{Title: "Empty"}); err != nil {
		t.Fatalf("empty pdf: %v", err)
	}
}

func TestFileNameAndFormat(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if got := FileName("audit_log", at, CSV); got != "audit_log_2024-03-05.csv" {
		t.Errorf("unexpected file name %q", got)
	}
	if ParseFormat("pdf") != PDF || ParseFormat("nope") != CSV {
		t.Error("unexpected ParseFormat")
	}
	if !strings.Contains(XLSX.ContentType(), "spreadsheetml") {
		t.Error("unexpected xlsx content type")
	}
}
