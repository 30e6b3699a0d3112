package excel

import (
	"fmt"
	"math"

	"adogo/app"
	"adogo/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WriteTrialHistory exports a session's trial history to an .xlsx workbook:
// one row per trial with the presented design, the observed response, and
// the posterior mean and standard deviation per parameter after the update.
func WriteTrialHistory(path string, designNames []string, trials []app.Trial) error {
	if len(trials) == 0 {
		return errors.InvalidInput("no trials to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Trials"
	f.SetSheetName("Sheet1", sheet)

	paramNames := trials[0].Summary.Names
	header := []interface{}{"trial", "mode"}
	for _, n := range designNames {
		header = append(header, n)
	}
	header = append(header, "response")
	for _, n := range paramNames {
		header = append(header, n+"_mean", n+"_sd")
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write header row")
	}

	for i, trial := range trials {
		row := []interface{}{trial.Number, string(trial.Mode)}
		for _, n := range designNames {
			row = append(row, trial.Design.Values[n])
		}
		row = append(row, trial.Response)
		for _, n := range paramNames {
			row = append(row, trial.Summary.Mean[n], math.Sqrt(trial.Summary.Variance[n]))
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write trial row %d", trial.Number)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save workbook")
	}
	return nil
}
