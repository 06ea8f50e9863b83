package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const notificationColumns = `id, type, title, content, redirect_url, user_id,
	created_at, updated_at, deleted_at, version`

func notificationDest(n *store.Notification) []any {
	return []any{
		&n.ID,
		&n.Type,
		&n.Title,
		&n.Content,
		&n.RedirectURL,
		&n.UserID,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.DeletedAt,
		&n.Version,
	}
}

func scanNotifications(rows pgx.Rows) ([]store.Notification, error) {
	defer rows.Close()
	var out []store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(notificationDest(&n)...); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// CreateNotification inserts a notification.
func (s *Store) CreateNotification(ctx context.Context, n store.Notification) (store.Notification, error) {
	return createNotification(ctx, s.pool, n)
}

func createNotification(ctx context.Context, q querier, n store.Notification) (store.Notification, error) {
	var created store.Notification
	err := q.QueryRow(ctx, `
		INSERT INTO notification (type, title, content, redirect_url, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+notificationColumns,
		int(n.Type), n.Title, n.Content, n.RedirectURL, n.UserID,
	).Scan(notificationDest(&created)...)
	if err != nil {
		return store.Notification{}, mapError(err, "insert notification")
	}
	return created, nil
}

// ListNotifications pages through a user's live notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID int64, page store.Page) ([]store.Notification, int, error) {
	page = page.Normalize()
	total, err := countRows(ctx, s.pool,
		`SELECT count(*) FROM notification WHERE user_id = $1 AND deleted_at IS NULL`, userID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+notificationColumns+` FROM notification
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	out, err := scanNotifications(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetNotification fetches a live notification.
func (s *Store) GetNotification(ctx context.Context, id int64) (store.Notification, error) {
	var n store.Notification
	err := s.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notification
		WHERE id = $1 AND deleted_at IS NULL`, id).Scan(notificationDest(&n)...)
	if err != nil {
		return store.Notification{}, mapError(err, "get notification")
	}
	return n, nil
}

// DeleteNotification soft deletes a notification.
func (s *Store) DeleteNotification(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notification SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "delete notification")
	}
	return requireRow(tag)
}

// ListRecentNotifications returns live notifications created after since
// that have a recipient.
func (s *Store) ListRecentNotifications(ctx context.Context, since time.Time) ([]store.Notification, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+notificationColumns+` FROM notification
		WHERE created_at > $1 AND deleted_at IS NULL AND user_id IS NOT NULL
		ORDER BY created_at, id`, since)
	if err != nil {
		return nil, fmt.Errorf("list recent notifications: %w", err)
	}
	return scanNotifications(rows)
}
