package backtest

import (
	"fmt"
	"strings"

	"KeyStatsLab/internal/model"
)

// FormatReport renders a report as plain text.
func FormatReport(r model.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classifier performance\n%s\n", strings.Repeat("=", 20))
	fmt.Fprintf(&b, "Accuracy score: %.2f\n", r.Accuracy)
	fmt.Fprintf(&b, "Precision score: %.2f\n", r.Precision)
	fmt.Fprintf(&b, "Rows: %d train, %d test, %d dropped\n", r.TrainRows, r.TestRows, r.DroppedRows)

	fmt.Fprintf(&b, "\nStock prediction performance report\n%s\n", strings.Repeat("=", 40))
	fmt.Fprintf(&b, "Total Trades: %d\n", r.NumPositivePredictions)
	if r.NoTrades {
		b.WriteString("No stocks predicted!\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Average return for stock predictions: %.1f%%\n", *r.AvgStrategyReturnPct)
	fmt.Fprintf(&b, "Average market return in the same period: %.1f%%\n", *r.AvgBenchmarkReturnPct)
	fmt.Fprintf(&b, "Compared to the index, our strategy earns %.1f percentage points more\n", *r.OutperformancePct)
	return b.String()
}
