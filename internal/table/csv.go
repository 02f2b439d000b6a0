package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCSV parses a header row followed by one row per candidate. idColumn
// names the identifier column; when empty the first column is used. Cells
// that parse as floats land in Row.Values, everything else in Row.Extra.
func ReadCSV(r io.Reader, idColumn string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if idColumn == "" {
		idColumn = header[0]
	}
	idPos := -1
	for i, h := range header {
		if h == idColumn {
			idPos = i
			break
		}
	}
	if idPos < 0 {
		return nil, fmt.Errorf("id column %q not in header", idColumn)
	}

	t := &Table{IDColumn: idColumn, Columns: header}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row := Row{ID: strings.TrimSpace(rec[idPos]), Values: make(map[string]float64, len(rec))}
		for i, cell := range rec {
			if i == idPos {
				continue
			}
			cell = strings.TrimSpace(cell)
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				row.Values[header[i]] = v
				continue
			}
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[header[i]] = cell
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func ReadCSVFile(path, idColumn string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, idColumn)
}

// WriteCSV writes the table with its original column order.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			rec[i] = r.cell(t.IDColumn, col)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (r Row) cell(idColumn, col string) string {
	if col == idColumn {
		return r.ID
	}
	if v, ok := r.Values[col]; ok {
		return FormatFloat(v)
	}
	return r.Extra[col]
}

// FormatFloat renders v with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
