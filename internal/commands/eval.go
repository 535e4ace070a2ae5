package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"studio/internal/metrics"
	"studio/internal/output"
)

// RunEval scores a prediction file against a reference file with the
// requested metrics, entirely locally.
func RunEval(predictionPath, referencePath, metricList string) {
	prediction, err := os.ReadFile(predictionPath)
	if err != nil {
		output.PrintError(fmt.Errorf("read prediction: %w", err))
		return
	}
	reference, err := os.ReadFile(referencePath)
	if err != nil {
		output.PrintError(fmt.Errorf("read reference: %w", err))
		return
	}

	names := strings.Split(metricList, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	scores := metrics.Compute(string(prediction), string(reference), names, nil)
	if len(scores) == 0 {
		output.PrintError(fmt.Errorf("no known metrics in %q (available: %s)",
			metricList, strings.Join(metrics.Vocabulary, ", ")))
		return
	}

	output.Print(scores, func() {
		keys := make([]string, 0, len(scores))
		for k := range scores {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-14s %.4f\n", k, scores[k])
		}
	})
}
