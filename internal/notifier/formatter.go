package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/recorder"
)

// maxListedPicks keeps pick messages under Telegram's 4096 character limit.
const maxListedPicks = 60

// FormatBacktestReport formats a backtest report into a Telegram message.
func FormatBacktestReport(rep model.Report, thresholdPct float64) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>KeyStats backtest</b> | %s\n", rep.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("run <code>%s</code>\n\n", rep.RunID))

	b.WriteString(fmt.Sprintf("Rows: %d train / %d test (%d dropped)\n", rep.TrainRows, rep.TestRows, rep.DroppedRows))
	b.WriteString(fmt.Sprintf("Accuracy: %.2f | Precision: %.2f\n", rep.Accuracy, rep.Precision))
	b.WriteString(fmt.Sprintf("Trades: %d (beat index by ≥%.0f%%)\n", rep.NumPositivePredictions, thresholdPct))

	if rep.NoTrades {
		b.WriteString("\n⚠️ No stocks predicted\n")
	} else {
		b.WriteString(fmt.Sprintf("\n💰 Strategy: %+.1f%% | Index: %+.1f%%\n", *rep.AvgStrategyReturnPct, *rep.AvgBenchmarkReturnPct))
		b.WriteString(fmt.Sprintf("   Outperformance: <b>%+.1f pp</b>\n", *rep.OutperformancePct))
	}

	for _, w := range rep.Warnings {
		b.WriteString(fmt.Sprintf("\n⚠️ %s", html.EscapeString(w)))
	}
	return b.String()
}

// FormatPicks lists the tickers predicted to outperform.
func FormatPicks(picks []model.Pick, thresholdPct float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 <b>%d stocks predicted to outperform the index by more than %.0f%%</b> | %s\n\n",
		len(picks), thresholdPct, time.Now().Format("2006-01-02")))
	if len(picks) == 0 {
		b.WriteString("none")
		return b.String()
	}
	tickers := make([]string, 0, min(len(picks), maxListedPicks))
	for i, p := range picks {
		if i == maxListedPicks {
			break
		}
		tickers = append(tickers, html.EscapeString(p.Ticker))
	}
	b.WriteString(strings.Join(tickers, " "))
	if len(picks) > maxListedPicks {
		b.WriteString(fmt.Sprintf(" … and %d more", len(picks)-maxListedPicks))
	}
	return b.String()
}

// FormatHistory summarises recent backtest runs, newest first.
func FormatHistory(runs []recorder.BacktestRun) string {
	if len(runs) == 0 {
		return "No backtests recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent backtests</b>\n\n")
	for _, r := range runs {
		outp := "no trades"
		if r.OutperformancePct != nil {
			outp = fmt.Sprintf("%+.1f pp", *r.OutperformancePct)
		}
		b.WriteString(fmt.Sprintf("%s acc %.2f prec %.2f trades %d %s\n",
			r.CreatedAt.Format("2006-01-02"), r.Accuracy, r.Precision, r.Trades, outp))
	}
	return b.String()
}
