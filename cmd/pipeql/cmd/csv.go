package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/queryflow/pipeql/table"
)

// splitRegisterFlag parses a --register name=path.csv flag value.
func splitRegisterFlag(spec string) (name, path string, err error) {
	idx := strings.IndexByte(spec, '=')
	if idx < 0 {
		return "", "", fmt.Errorf("invalid --register value %q, want name=path.csv", spec)
	}
	return spec[:idx], spec[idx+1:], nil
}

// loadCSV reads a CSV file into a table.Table, inferring each column's
// type from its values: int64 if every non-empty cell parses as an
// integer, else float64 if every cell parses as a float, else string.
// Empty cells become nil (null).
func loadCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header from %s: %w", path, err)
	}
	var raw [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		raw = append(raw, rec)
	}

	cols := make([]table.Column, len(header))
	for i, name := range header {
		cols[i] = table.Column{Name: name, Type: inferColumnType(raw, i)}
	}
	t := table.NewTyped(cols)
	for _, rec := range raw {
		row := make([]any, len(header))
		for i := range header {
			if i >= len(rec) {
				continue
			}
			row[i] = convertCell(rec[i], cols[i].Type)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func inferColumnType(raw [][]string, col int) table.ColumnType {
	sawInt, sawFloat := false, false
	for _, rec := range raw {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		v := rec[col]
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			sawInt = true
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			sawFloat = true
			continue
		}
		return table.String
	}
	switch {
	case sawInt && !sawFloat:
		return table.Int64
	case sawFloat:
		return table.Float64
	default:
		return table.String
	}
}

func convertCell(v string, typ table.ColumnType) any {
	if v == "" {
		return nil
	}
	switch typ {
	case table.Int64:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return v
		}
		return n
	case table.Float64:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return v
		}
		return f
	default:
		return v
	}
}
