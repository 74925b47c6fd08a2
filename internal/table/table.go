package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

const utf8BOM = "\ufeff"

// Record is one row keyed by column name
type Record map[string]string

// Table is a header plus rows of cells, all rows as wide as the header
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// New creates a table, padding or trimming rows to the header width
func New(header []string, rows [][]string) *Table {
	t := &Table{
		Header: append([]string(nil), header...),
		Rows:   make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, fit(row, len(t.Header)))
	}
	t.reindex()
	return t
}

// ColumnName returns the output column for a translated field
func ColumnName(field, code string) string {
	return field + "_" + code
}

// ReadCSV loads a table from a CSV file with a header row
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// Parse reads CSV with a header row from r
func Parse(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && string(bom) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	return New(records[0], records[1:]), nil
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of a column
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Missing returns the names that are not columns of the table
func (t *Table) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := t.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// EnsureColumn adds an empty column unless it already exists. Existing
// values are never touched, resumed runs depend on that.
func (t *Table) EnsureColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}

	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	t.index[name] = len(t.Header) - 1
	return len(t.Header) - 1
}

// Get returns the cell at row/column, empty for unknown columns
func (t *Table) Get(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Set writes a cell. It reports false for unknown columns or rows.
func (t *Table) Set(row int, column, value string) bool {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return false
	}
	t.Rows[row][i] = value
	return true
}

// Record returns row i keyed by column name
func (t *Table) Record(i int) Record {
	rec := make(Record, len(t.Header))
	for j, name := range t.Header {
		rec[name] = t.Rows[i][j]
	}
	return rec
}

// Records returns every row keyed by column name
func (t *Table) Records() []Record {
	recs := make([]Record, len(t.Rows))
	for i := range t.Rows {
		recs[i] = t.Record(i)
	}
	return recs
}

// Encode writes the table as CSV
func (t *Table) Encode(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// WriteCSV replaces the file at path with the full table
func (t *Table) WriteCSV(path string) error {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write table file: %w", err)
	}
	return nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}
}

func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
