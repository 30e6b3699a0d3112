package app

import (
	"fmt"
	"strings"

	"adogo/internal/errors"

	"github.com/montanaflynn/stats"
)

// BuildReport renders a markdown summary over repeated simulation runs:
// per-parameter recovery (mean and spread of the final posterior means
// against the true value) and the posterior variance reduction achieved.
func BuildReport(results []*SimulationResult) (string, error) {
	if len(results) == 0 {
		return "", errors.InvalidInput("no simulation results")
	}

	first := results[0]
	var b strings.Builder
	fmt.Fprintf(&b, "# Simulation report\n\n")
	fmt.Fprintf(&b, "Runs: %d, trials per run: %d, selection mode: %s\n\n",
		len(results), len(first.Trials), first.Mode)

	b.WriteString("## Parameter recovery\n\n")
	b.WriteString("| parameter | true | estimate mean | estimate sd | estimate median |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, name := range first.Final.Names {
		estimates := make([]float64, 0, len(results))
		for _, r := range results {
			estimates = append(estimates, r.Final.Mean[name])
		}
		mean, _ := stats.Mean(estimates)
		sd, _ := stats.StandardDeviation(estimates)
		median, _ := stats.Median(estimates)
		fmt.Fprintf(&b, "| %s | %.4g | %.4g | %.4g | %.4g |\n",
			name, first.Truth[name], mean, sd, median)
	}

	b.WriteString("\n## Posterior variance reduction\n\n")
	b.WriteString("| parameter | initial variance | final variance (mean over runs) |\n")
	b.WriteString("|---|---|---|\n")
	for _, name := range first.Final.Names {
		finals := make([]float64, 0, len(results))
		for _, r := range results {
			finals = append(finals, r.Final.Variance[name])
		}
		finalMean, _ := stats.Mean(finals)
		fmt.Fprintf(&b, "| %s | %.4g | %.4g |\n",
			name, first.Initial.Variance[name], finalMean)
	}

	return b.String(), nil
}
