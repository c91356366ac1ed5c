// Package training implements the offline rainfall model pipeline: CSV
// loading, target normalization, feature selection, preprocessing, the two
// candidate classifiers, AUC-based selection, and bundle serialization.
//
// Nothing in the serving path imports this package; it backs the trainer CLI
// only.
package training

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"damwatch/internal/types"
)

// Table is a loaded CSV: a header and string cells. Typing decisions
// (numeric vs text, missing markers) happen at read time per column, not at
// load time, because the target and feature rules differ.
type Table struct {
	Columns []string
	Rows    [][]string
}

// LoadCSV reads a CSV file into a Table. The first row is the header.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewAppError(types.ErrCodeDataFileMissing, "data file not found: "+path, err)
		}
		return nil, types.NewAppError(types.ErrCodeDataUnparseable, "opening data file", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeDataUnparseable, "parsing csv", err)
	}
	if len(records) == 0 {
		return nil, types.NewAppError(types.ErrCodeDataUnparseable, "csv has no header row", nil)
	}

	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// columnIndex returns the position of a column, or -1.
func (t *Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the raw cells of a named column.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, true
}

// isMissing reports whether a cell is one of the recognized missing-value
// markers.
func isMissing(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "na", "nan", "null":
		return true
	}
	return false
}

// parseCell parses a cell as a float; missing markers come back as NaN with
// ok=true, anything else unparseable as ok=false.
func parseCell(cell string) (float64, bool) {
	if isMissing(cell) {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// numericColumn parses a column as floats with NaN for missing entries.
// ok is false when any non-missing cell fails to parse.
func (t *Table) numericColumn(name string) ([]float64, bool) {
	cells, found := t.Column(name)
	if !found {
		return nil, false
	}
	values := make([]float64, len(cells))
	for i, cell := range cells {
		v, ok := parseCell(cell)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
