package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Label pairs an image file name with the value of the selected target
// column for that sample.
type Label struct {
	File   string
	Target float64
}

// LoadLabels reads the label CSV at path and extracts the target column.
//
// The first row is a header. Column 0 holds the image file name; the
// remaining columns are numeric, and targetCol indexes them (0-based), so
// targetCol 0 selects the second CSV column.
func LoadLabels(path string, targetCol int) ([]Label, error) {
	if targetCol < 0 {
		return nil, fmt.Errorf("target column must be >= 0 (got %d)", targetCol)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("labels file %s has no data rows", path)
	}

	header := rows[0]
	if targetCol+1 >= len(header) {
		return nil, fmt.Errorf("target column %d out of range: %s has %d value columns",
			targetCol, path, len(header)-1)
	}

	labels := make([]Label, 0, len(rows)-1)
	for i, row := range rows[1:] {
		lineNo := i + 2
		if len(row) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNo, len(header), len(row))
		}
		if row[0] == "" {
			return nil, fmt.Errorf("line %d: empty image name", lineNo)
		}
		value, err := strconv.ParseFloat(row[targetCol+1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", lineNo, header[targetCol+1], err)
		}
		labels = append(labels, Label{File: row[0], Target: value})
	}
	return labels, nil
}
