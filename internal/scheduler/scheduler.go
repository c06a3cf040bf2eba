package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"KeyStatsLab/internal/model"
	"KeyStatsLab/internal/notifier"
	"KeyStatsLab/internal/recorder"
)

// Pipeline is the work the scheduler triggers.
type Pipeline interface {
	Backtest(ctx context.Context) (model.Report, error)
	Predict(ctx context.Context) ([]model.Pick, error)
}

// Scheduler runs the backtest on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron         *cron.Cron
	Pipeline     Pipeline
	Notifier     notifier.Notifier
	Recorder     recorder.Recorder
	ThresholdPct float64
	Ctx          context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p Pipeline, n notifier.Notifier, rec recorder.Recorder, thresholdPct float64) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Pipeline:     p,
		Notifier:     n,
		Recorder:     rec,
		ThresholdPct: thresholdPct,
		Ctx:          ctx,
	}
}

// RegisterAll registers the periodic backtest.
func (s *Scheduler) RegisterAll(backtestCron string) error {
	if _, err := s.Cron.AddFunc(backtestCron, s.backtestTask); err != nil {
		return fmt.Errorf("register backtest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunBacktestNow executes the backtest task immediately.
func (s *Scheduler) RunBacktestNow() {
	s.backtestTask()
}

func (s *Scheduler) backtestTask() {
	if !s.running.TryLock() {
		log.Println("[WARN] backtest already running, skipping")
		return
	}
	defer s.running.Unlock()

	log.Println("[INFO] running backtest task")
	rep, err := s.Pipeline.Backtest(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] backtest: %v", err)
		s.trySend(fmt.Sprintf("❌ backtest failed: %v", err))
		return
	}
	s.trySend(notifier.FormatBacktestReport(rep, s.ThresholdPct))
}

func (s *Scheduler) picksReply() string {
	picks, err := s.Pipeline.Predict(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] predict: %v", err)
		return fmt.Sprintf("❌ prediction failed: %v", err)
	}
	return notifier.FormatPicks(picks, s.ThresholdPct)
}

func (s *Scheduler) historyReply() string {
	runs, err := s.Recorder.RecentBacktests(10)
	if err != nil {
		log.Printf("[ERROR] load history: %v", err)
		return fmt.Sprintf("❌ history unavailable: %v", err)
	}
	return notifier.FormatHistory(runs)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/backtest":
		go s.backtestTask()
		return "⏳ backtest started"
	case "/picks":
		return s.picksReply()
	case "/history":
		return s.historyReply()
	default:
		return "Commands:\n• /backtest run a backtest now\n• /picks current predicted outperformers\n• /history recent backtests"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

