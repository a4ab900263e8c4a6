// Package report writes the true-vs-predicted workbook produced at the end
// of a training run.
package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"regressnet/internal/dataset"
)

// Table pairs ground truth with predictions for one split, in the target's
// original scale.
type Table struct {
	True      []float64
	Predicted []float64
}

// FromNormalized denormalizes matching truth and prediction slices into a
// Table using stats, the inverse of the normalization applied to the
// training targets.
func FromNormalized(truth, preds []float32, stats dataset.Stats) (Table, error) {
	if len(truth) != len(preds) {
		return Table{}, fmt.Errorf("report: %d truth values vs %d predictions", len(truth), len(preds))
	}
	t := Table{
		True:      make([]float64, len(truth)),
		Predicted: make([]float64, len(preds)),
	}
	for i := range truth {
		t.True[i] = stats.Denormalize(truth[i])
		t.Predicted[i] = stats.Denormalize(preds[i])
	}
	return t, nil
}

// Path returns the workbook location for a target column.
func Path(dir string, targetCol int) string {
	return filepath.Join(dir, fmt.Sprintf("predictions_vs_actual_col%d.xlsx", targetCol))
}

// Write writes a workbook with "Train" and "Test" sheets, each holding
// "True" and "Predicted" columns with one row per sample.
func Write(path string, train, test Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name  string
		table Table
	}{
		{"Train", train},
		{"Test", test},
	}
	for _, sheet := range sheets {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("report: create sheet %s: %w", sheet.name, err)
		}
		if err := f.SetSheetRow(sheet.name, "A1", &[]any{"True", "Predicted"}); err != nil {
			return fmt.Errorf("report: write header of %s: %w", sheet.name, err)
		}
		for i := range sheet.table.True {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return fmt.Errorf("report: row %d of %s: %w", i+2, sheet.name, err)
			}
			row := []any{sheet.table.True[i], sheet.table.Predicted[i]}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return fmt.Errorf("report: row %d of %s: %w", i+2, sheet.name, err)
			}
		}
	}

	// Drop the workbook's default sheet.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("report: drop default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
