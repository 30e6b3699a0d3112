package excel

import (
	"path/filepath"
	"testing"

	"adogo/app"
	"adogo/domain/belief"
	"adogo/domain/engine"
	apperrors "adogo/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteTrialHistory(t *testing.T) {
	trials := []app.Trial{
		{
			Number:   1,
			Mode:     engine.SelectOptimal,
			Design:   engine.Design{Index: 2, Values: map[string]float64{"stimulus": 0.5}},
			Response: 1,
			Summary: belief.Summary{
				Names:    []string{"threshold"},
				Mean:     map[string]float64{"threshold": 0.1},
				Variance: map[string]float64{"threshold": 0.25},
			},
		},
		{
			Number:   2,
			Mode:     engine.SelectOptimal,
			Design:   engine.Design{Index: 0, Values: map[string]float64{"stimulus": -1}},
			Response: 0,
			Summary: belief.Summary{
				Names:    []string{"threshold"},
				Mean:     map[string]float64{"threshold": -0.05},
				Variance: map[string]float64{"threshold": 0.16},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "trials.xlsx")
	require.NoError(t, WriteTrialHistory(path, []string{"stimulus"}, trials))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trials")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per trial")
	assert.Equal(t, []string{"trial", "mode", "stimulus", "response", "threshold_mean", "threshold_sd"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "0.5", rows[1][2])
	// sd is the square root of the stored variance
	assert.Equal(t, "0.5", rows[1][5])
	assert.Equal(t, "0.4", rows[2][5])
}

func TestWriteTrialHistoryRejectsEmpty(t *testing.T) {
	err := WriteTrialHistory(filepath.Join(t.TempDir(), "empty.xlsx"), nil, nil)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
