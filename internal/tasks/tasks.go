// Package tasks schedules the periodic counter syncs and digests.
package tasks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/config"
	"github.com/JakeFAU/bible-atlas-api/internal/metrics"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// Task names, also used as metric labels.
const (
	ProposalCounts = "proposal_counts"
	LocationLikes  = "location_likes"
	PlaceLikes     = "place_likes"
	Notifications  = "notifications"
	Reports        = "reports"
)

const (
	notificationWindow = 15 * time.Minute
	reportWindow       = 24 * time.Hour
	taskTimeout        = 5 * time.Minute
)

// Deps are the repositories the tasks read and write.
type Deps struct {
	Counters      store.CounterRepository
	Notifications store.NotificationRepository
	Reports       store.ReportRepository
	Clock         clock.Clock
	Logger        *zap.Logger
}

type task struct {
	spec string
	run  func(context.Context) (int64, error)
}

// Scheduler runs the tasks on their cron specs.
type Scheduler struct {
	cron   *cron.Cron
	tasks  map[string]task
	deps   Deps
	logger *zap.Logger
}

// New registers every task whose spec is non-empty.
func New(cfg config.CronConfig, d Deps) (*Scheduler, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	logger := d.Logger.Named("tasks")
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		deps:   d,
		logger: logger,
	}
	s.tasks = map[string]task{
		ProposalCounts: {cfg.ProposalCounts, d.Counters.SyncProposalCounts},
		LocationLikes:  {cfg.LocationLikes, d.Counters.SyncLocationLikeCounts},
		PlaceLikes:     {cfg.PlaceLikes, d.Counters.SyncPlaceLikeCounts},
		Notifications:  {cfg.Notifications, s.pushNotifications},
		Reports:        {cfg.Reports, s.reportDigest},
	}

	for _, name := range s.Names() {
		t := s.tasks[name]
		if t.spec == "" {
			continue
		}
		name := name
		if _, err := s.cron.AddFunc(t.spec, func() { _ = s.Run(context.Background(), name) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", name, t.spec, err)
		}
	}
	return s, nil
}

// Names lists the known tasks in sorted order.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.tasks))
	for n := range s.tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Scheduled reports how many tasks have a cron entry.
func (s *Scheduler) Scheduled() int {
	return len(s.cron.Entries())
}

// Start begins running scheduled tasks in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("tasks", s.Scheduled()))
}

// Stop prevents new runs and waits for running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes one task immediately.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	t, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("unknown task %q", name)
	}
	ctx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	start := s.deps.Clock.Now()
	affected, err := t.run(ctx)
	metrics.ObserveCron(name, affected, err)
	if err != nil {
		s.logger.Error("task failed", zap.String("task", name), zap.Error(err))
		return err
	}
	s.logger.Debug("task done",
		zap.String("task", name),
		zap.Int64("affected", affected),
		zap.Duration("took", s.deps.Clock.Now().Sub(start)),
	)
	return nil
}

// pushNotifications picks up notifications created in the last window.
// Delivery to devices is not wired; they are logged for now.
func (s *Scheduler) pushNotifications(ctx context.Context) (int64, error) {
	since := s.deps.Clock.Now().Add(-notificationWindow)
	list, err := s.deps.Notifications.ListRecentNotifications(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list recent notifications: %w", err)
	}
	for _, n := range list {
		fields := []zap.Field{zap.Int64("notification_id", n.ID), zap.String("title", n.Title)}
		if n.UserID != nil {
			fields = append(fields, zap.Int64("user_id", *n.UserID))
		}
		s.logger.Info("notification pending push", fields...)
	}
	return int64(len(list)), nil
}

// reportDigest summarises the last day of location and proposal reports
// for moderators.
func (s *Scheduler) reportDigest(ctx context.Context) (int64, error) {
	since := s.deps.Clock.Now().Add(-reportWindow)
	digest, err := s.deps.Reports.ListRecentReports(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("list recent reports: %w", err)
	}
	if len(digest) == 0 {
		return 0, nil
	}
	bySource := map[string]int{}
	for _, r := range digest {
		bySource[r.Source]++
		s.logger.Info("report",
			zap.String("source", r.Source),
			zap.Int64("target_id", r.TargetID),
			zap.Int64("user_id", r.UserID),
			zap.Int("type", int(r.Type)),
			zap.String("reason", r.Reason),
		)
	}
	s.logger.Info("report digest", zap.Any("by_source", bySource), zap.Int("total", len(digest)))
	return int64(len(digest)), nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
