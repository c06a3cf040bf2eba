package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"KeyStatsLab/internal/model"
)

const (
	defaultChartURL    = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultKeyStatsURL = "https://finance.yahoo.com/quote"
)

// YahooFetcher downloads prices from the chart API and current pages from
// the quote site.
type YahooFetcher struct {
	Client      *http.Client
	ChartURL    string
	KeyStatsURL string
	// Aliases translates index names used in configs to Yahoo symbols.
	Aliases map[string]string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		ChartURL:    defaultChartURL,
		KeyStatsURL: defaultKeyStatsURL,
		Aliases:     map[string]string{"SP500": "^GSPC", "SPX": "^GSPC", "GSPC": "^GSPC"},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	if alias, ok := f.Aliases[s]; ok {
		return alias
	}
	return s
}

type nullableSeries []*float64

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []struct{ Close nullableSeries `json:"close"` }       `json:"quote"`
		AdjClose []struct{ AdjClose nullableSeries `json:"adjclose"` } `json:"adjclose"`
	} `json:"indicators"`
}

type chartEnvelope struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// closes prefers the split and dividend adjusted series.
func (r chartResult) closes() nullableSeries {
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0 {
		return r.Indicators.AdjClose[0].AdjClose
	}
	if len(r.Indicators.Quote) > 0 {
		return r.Indicators.Quote[0].Close
	}
	return nil
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yahoo %s: status %d: %s", req.URL.Path, resp.StatusCode, snippet)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	return body, nil
}

// FetchHistory downloads daily closes for [start, end]. Null bars are
// skipped and the result is sorted by date.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div|split")
	u := f.ChartURL + "/" + url.PathEscape(f.yahooSymbol(symbol)) + "?" + q.Encode()

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var env chartEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if e := env.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s (%s)", symbol, e.Description, e.Code)
	}
	if len(env.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrEmptySeries)
	}

	res := env.Chart.Result[0]
	closes := res.closes()
	var points []model.PricePoint
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		points = append(points, model.PricePoint{Date: time.Unix(ts, 0).UTC(), Price: *closes[i]})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrEmptySeries)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// FetchKeyStats downloads the key statistics page for a ticker.
func (f *YahooFetcher) FetchKeyStats(ctx context.Context, ticker string) (string, error) {
	u := fmt.Sprintf("%s/%s/key-statistics", f.KeyStatsURL, url.PathEscape(strings.ToUpper(ticker)))
	body, err := f.get(ctx, u)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
