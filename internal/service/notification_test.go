package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

type memNotifications struct {
	store.NotificationRepository

	byID     map[int64]store.Notification
	lastPage store.Page
	deleted  []int64
}

func (m *memNotifications) CreateNotification(_ context.Context, n store.Notification) (store.Notification, error) {
	n.ID = int64(len(m.byID) + 1)
	m.byID[n.ID] = n
	return n, nil
}

func (m *memNotifications) ListNotifications(_ context.Context, userID int64, page store.Page) ([]store.Notification, int, error) {
	m.lastPage = page
	var out []store.Notification
	for _, n := range m.byID {
		if n.UserID != nil && *n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *memNotifications) GetNotification(_ context.Context, id int64) (store.Notification, error) {
	n, ok := m.byID[id]
	if !ok {
		return store.Notification{}, store.ErrNotFound
	}
	return n, nil
}

func (m *memNotifications) DeleteNotification(_ context.Context, id int64) error {
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memNotifications) ListRecentNotifications(context.Context, time.Time) ([]store.Notification, error) {
	return nil, nil
}

func TestNotificationOwnership(t *testing.T) {
	t.Parallel()
	repo := &memNotifications{byID: map[int64]store.Notification{}}
	svc := NewNotificationService(repo)
	ctx := context.Background()

	n, err := svc.Create(ctx, store.Notification{Type: store.NotificationApproved, Title: "approved", UserID: ptr(int64(7))})
	require.NoError(t, err)

	got, err := svc.FindOne(ctx, 7, n.ID)
	require.NoError(t, err)
	require.Equal(t, "approved", got.Title)

	_, err = svc.FindOne(ctx, 8, n.ID)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
	require.Equal(t, "Notification with this ID does not exist.", message(t, err))

	_, err = svc.Remove(ctx, 8, n.ID)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
	require.Empty(t, repo.deleted)

	res, err := svc.Remove(ctx, 7, n.ID)
	require.NoError(t, err)
	require.Equal(t, n.ID, res.ID)
	require.Equal(t, []int64{n.ID}, repo.deleted)

	_, err = svc.FindOne(ctx, 7, n.ID)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestNotificationFindAllNormalizesPage(t *testing.T) {
	t.Parallel()
	repo := &memNotifications{byID: map[int64]store.Notification{}}
	svc := NewNotificationService(repo)

	res, err := svc.FindAll(context.Background(), 3, store.Page{Limit: 500})
	require.NoError(t, err)
	require.Equal(t, store.Page{Page: store.DefaultPage, Limit: store.MaxLimit}, repo.lastPage)
	require.NotNil(t, res.Data)
	require.Empty(t, res.Data)
	require.Equal(t, 0, res.Total)
}
