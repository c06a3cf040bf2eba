package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/recorder"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	require.NoError(t, tn.SendWithRetry(context.Background(), "hello", 0))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	tn.Backoff = time.Millisecond
	assert.ErrorContains(t, tn.Send(context.Background(), "x"), "status 401")
	assert.ErrorContains(t, tn.SendWithRetry(context.Background(), "x", 1), "all 2 attempts failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tn.SendWithRetry(ctx, "x", 3), context.Canceled)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa\n", "bbbb\n", "cc"}, splitMessage("aaaa\nbbbb\ncc", 6))
	assert.Equal(t, []string{"abcde", "fgh"}, splitMessage("abcdefgh", 5))
}

func TestPollOnce(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			assert.Equal(t, "5", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":5,"message":{"text":" /history ","chat":{"id":42}}},
				{"update_id":6,"message":{"text":"/history","chat":{"id":99}}},
				{"update_id":7}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			sent = append(sent, body["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL

	var commands []string
	next, err := tn.pollOnce(context.Background(), srv.Client(), 5, 0, func(cmd string) string {
		commands = append(commands, cmd)
		return "reply to " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 8, next)
	assert.Equal(t, []string{"/history"}, commands)
	assert.Equal(t, []string{"reply to /history"}, sent)
}

func TestFormatBacktestReport(t *testing.T) {
	stock, bench, out := 7.0, 1.5, 5.5
	rep := model.Report{
		RunID: "abc", CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
		TrainRows: 8, TestRows: 2, Accuracy: 0.5, Precision: 0.5, NumPositivePredictions: 2,
		AvgStrategyReturnPct: &stock, AvgBenchmarkReturnPct: &bench, OutperformancePct: &out,
	}
	msg := FormatBacktestReport(rep, 10)
	assert.Contains(t, msg, "2024-01-02 03:04")
	assert.Contains(t, msg, "Trades: 2")
	assert.Contains(t, msg, "Strategy: +7.0% | Index: +1.5%")
	assert.Contains(t, msg, "+5.5 pp")

	msg = FormatBacktestReport(model.Report{NoTrades: true, Warnings: []string{"a < b"}}, 10)
	assert.Contains(t, msg, "No stocks predicted")
	assert.Contains(t, msg, "a &lt; b")
}

func TestFormatPicks(t *testing.T) {
	picks := make([]model.Pick, maxListedPicks+2)
	for i := range picks {
		picks[i].Ticker = "T"
	}
	msg := FormatPicks(picks, 10)
	assert.Contains(t, msg, "62 stocks predicted")
	assert.Contains(t, msg, "and 2 more")
	assert.Contains(t, FormatPicks(nil, 10), "none")
}

func TestFormatHistory(t *testing.T) {
	out := -1.3
	msg := FormatHistory([]recorder.BacktestRun{
		{CreatedAt: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), Accuracy: 0.7, Precision: 0.4, Trades: 3, OutperformancePct: &out},
		{CreatedAt: time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), NoTrades: true},
	})
	assert.Contains(t, msg, "2024-05-06 acc 0.70 prec 0.40 trades 3 -1.3 pp")
	assert.Contains(t, msg, "no trades")
	assert.Equal(t, "No backtests recorded yet.", FormatHistory(nil))
}
