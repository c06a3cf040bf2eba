package collector

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"KeyStatsLab/internal/model"
)

// SnapshotLayout is the file stem of a historical key statistics page.
const SnapshotLayout = "20060102150405"

const dsStore = ".DS_Store"

// SnapshotSource reads key statistics pages laid out as
// <dir>/<ticker>/<YYYYMMDDHHMMSS>.html.
type SnapshotSource struct {
	Dir string
}

// NewSnapshotSource creates a new SnapshotSource.
func NewSnapshotSource(dir string) *SnapshotSource {
	return &SnapshotSource{Dir: dir}
}

// Tickers lists the ticker directories, sorted.
func (s *SnapshotSource) Tickers() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read stats dir: %w", err)
	}
	var tickers []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == dsStore {
			continue
		}
		tickers = append(tickers, e.Name())
	}
	sort.Strings(tickers)
	return tickers, nil
}

// Load reads every snapshot, ordered by ticker then timestamp. Tickers are
// upper-cased to match price column names. Files whose names are not a
// timestamp are skipped with a warning.
func (s *SnapshotSource) Load() ([]model.Snapshot, error) {
	tickers, err := s.Tickers()
	if err != nil {
		return nil, err
	}
	var out []model.Snapshot
	for _, t := range tickers {
		snaps, err := s.loadTicker(t)
		if err != nil {
			return nil, err
		}
		out = append(out, snaps...)
	}
	log.Printf("[INFO] loaded %d snapshots for %d tickers from %s", len(out), len(tickers), s.Dir)
	return out, nil
}

func (s *SnapshotSource) loadTicker(ticker string) ([]model.Snapshot, error) {
	dir := filepath.Join(s.Dir, ticker)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var snaps []model.Snapshot
	for _, e := range entries {
		if e.IsDir() || e.Name() == dsStore {
			continue
		}
		stem, ok := strings.CutSuffix(e.Name(), ".html")
		if !ok {
			continue
		}
		ts, err := time.ParseInLocation(SnapshotLayout, stem, time.UTC)
		if err != nil {
			log.Printf("[WARN] skip %s/%s: not a timestamped snapshot", ticker, e.Name())
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		snaps = append(snaps, model.Snapshot{
			Ticker:    strings.ToUpper(ticker),
			Timestamp: ts,
			RawText:   string(raw),
		})
	}
	sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].Timestamp.Before(snaps[j].Timestamp) })
	return snaps, nil
}

// LoadForward reads current pages laid out as <dir>/<ticker>.html, sorted by
// ticker. The timestamp is the file's modification time.
func LoadForward(dir string) ([]model.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read forward dir: %w", err)
	}
	var out []model.Snapshot
	for _, e := range entries {
		if e.IsDir() || e.Name() == dsStore {
			continue
		}
		ticker, ok := strings.CutSuffix(e.Name(), ".html")
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read forward page: %w", err)
		}
		out = append(out, model.Snapshot{
			Ticker:    strings.ToUpper(ticker),
			Timestamp: info.ModTime().UTC(),
			RawText:   string(raw),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}
