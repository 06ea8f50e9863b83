package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/config"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

type counters struct {
	proposals int64
	err       error
}

func (c *counters) SyncProposalCounts(context.Context) (int64, error) { return c.proposals, c.err }
func (c *counters) SyncLocationLikeCounts(context.Context) (int64, error) { return 2, nil }
func (c *counters) SyncPlaceLikeCounts(context.Context) (int64, error)    { return 3, nil }

type recentNotes struct {
	store.NotificationRepository
	since time.Time
	list  []store.Notification
}

func (r *recentNotes) ListRecentNotifications(_ context.Context, since time.Time) ([]store.Notification, error) {
	r.since = since
	return r.list, nil
}

type recentReports struct {
	store.ReportRepository
	since time.Time
	list  []store.ReportDigest
}

func (r *recentReports) ListRecentReports(_ context.Context, since time.Time) ([]store.ReportDigest, error) {
	r.since = since
	return r.list, nil
}

func defaultSpecs() config.CronConfig {
	return config.CronConfig{
		ProposalCounts: "*/10 * * * *",
		LocationLikes:  "*/10 * * * *",
		PlaceLikes:     "*/10 * * * *",
		Notifications:  "*/15 * * * *",
		Reports:        "0 9 * * *",
	}
}

func TestNewSchedulesNonEmptySpecs(t *testing.T) {
	t.Parallel()
	specs := defaultSpecs()
	specs.Reports = ""

	s, err := New(specs, Deps{Counters: &counters{}})
	require.NoError(t, err)
	require.Equal(t, 4, s.Scheduled())
	require.Equal(t, []string{LocationLikes, Notifications, PlaceLikes, ProposalCounts, Reports}, s.Names())
}

func TestNewRejectsBadSpec(t *testing.T) {
	t.Parallel()
	specs := defaultSpecs()
	specs.PlaceLikes = "every tuesday"

	_, err := New(specs, Deps{Counters: &counters{}})
	require.ErrorContains(t, err, "place_likes")
}

func TestRunCounterTask(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	c := &counters{proposals: 7}
	s, err := New(config.CronConfig{}, Deps{Counters: c})
	require.NoError(t, err)
	require.Zero(t, s.Scheduled())

	require.NoError(t, s.Run(context.Background(), ProposalCounts))

	c.err = boom
	require.ErrorIs(t, s.Run(context.Background(), ProposalCounts), boom)
	require.Error(t, s.Run(context.Background(), "nope"))
}

func TestWindowsUseClock(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	uid := int64(4)
	notes := &recentNotes{list: []store.Notification{{ID: 1, Title: "Approved", UserID: &uid}}}
	reports := &recentReports{list: []store.ReportDigest{
		{Source: "location", TargetID: 3, UserID: 4},
		{Source: "proposal", TargetID: 5, UserID: 4},
	}}
	core, logs := observer.New(zap.InfoLevel)
	s, err := New(config.CronConfig{}, Deps{
		Counters:      &counters{},
		Notifications: notes,
		Reports:       reports,
		Clock:         clock.NewFixed(now),
		Logger:        zap.New(core),
	})
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), Notifications))
	require.Equal(t, now.Add(-15*time.Minute), notes.since)

	require.NoError(t, s.Run(context.Background(), Reports))
	require.Equal(t, now.Add(-24*time.Hour), reports.since)
	require.Equal(t, 1, logs.FilterMessage("report digest").Len())
	require.Equal(t, 1, logs.FilterMessage("notification pending push").Len())
}

func TestStopWaits(t *testing.T) {
	t.Parallel()
	s, err := New(defaultSpecs(), Deps{Counters: &counters{}})
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
