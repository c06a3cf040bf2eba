package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"KeyStatsLab/internal/model"
)

// Collector orchestrates downloads of price histories and current pages.
type Collector struct {
	Fetcher Fetcher
	Workers int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, workers int) *Collector {
	if workers <= 0 {
		workers = 4
	}
	return &Collector{Fetcher: fetcher, Workers: workers}
}

// Histories is the result of a price download.
type Histories struct {
	Tickers   map[string][]model.PricePoint
	Benchmark []model.PricePoint
	Missing   []string // tickers with no data, sorted
}

// CollectPrices downloads every ticker's history plus the benchmark's.
// Tickers that fail are reported in Missing; a benchmark failure is fatal.
func (c *Collector) CollectPrices(ctx context.Context, tickers []string, benchmark string, start, end time.Time) (*Histories, error) {
	bench, err := c.Fetcher.FetchHistory(ctx, benchmark, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch benchmark %s: %w", benchmark, err)
	}

	h := &Histories{Tickers: make(map[string][]model.PricePoint), Benchmark: bench}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for _, t := range tickers {
		g.Go(func() error {
			points, err := c.Fetcher.FetchHistory(gctx, t, start, end)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				log.Printf("[WARN] %s history: %v", t, err)
				h.Missing = append(h.Missing, t)
				return nil
			}
			h.Tickers[t] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(h.Missing)

	log.Printf("[INFO] fetched %d/%d tickers via %s, %d missing: %v",
		len(h.Tickers), len(tickers), c.Fetcher.Name(), len(h.Missing), h.Missing)
	return h, nil
}

// CollectForward saves each ticker's current key statistics page as
// <dir>/<ticker>.html. Failures are logged and skipped; the number of pages
// written is returned.
func (c *Collector) CollectForward(ctx context.Context, tickers []string, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create forward dir: %w", err)
	}

	var (
		mu    sync.Mutex
		saved int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for _, t := range tickers {
		g.Go(func() error {
			page, err := c.Fetcher.FetchKeyStats(gctx, t)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				log.Printf("[WARN] %s key statistics: %v", t, err)
				return nil
			}
			if err := os.WriteFile(filepath.Join(dir, t+".html"), []byte(page), 0o644); err != nil {
				return fmt.Errorf("save %s page: %w", t, err)
			}
			mu.Lock()
			saved++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return saved, err
	}
	log.Printf("[INFO] saved %d/%d forward pages to %s", saved, len(tickers), dir)
	return saved, nil
}
