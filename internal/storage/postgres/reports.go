package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const reportColumns = `id, type, comment, creator_id, created_at, updated_at, deleted_at, version`

func reportDest(r *store.Report) []any {
	return []any{&r.ID, &r.Type, &r.Comment, &r.CreatorID, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt, &r.Version}
}

// CreateReport stores app feedback.
func (s *Store) CreateReport(ctx context.Context, r store.Report) (store.Report, error) {
	if r.Type == "" {
		r.Type = store.FeedbackGeneral
	}
	var created store.Report
	err := s.pool.QueryRow(ctx, `INSERT INTO report (type, comment, creator_id) VALUES ($1, $2, $3)
		RETURNING `+reportColumns, string(r.Type), r.Comment, r.CreatorID).Scan(reportDest(&created)...)
	if err != nil {
		return store.Report{}, mapError(err, "insert report")
	}
	return created, nil
}

// ListReports pages through live feedback, newest first.
func (s *Store) ListReports(ctx context.Context, page store.Page) ([]store.Report, int, error) {
	page = page.Normalize()
	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM report WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+reportColumns+` FROM report WHERE deleted_at IS NULL
		ORDER BY id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()
	var out []store.Report
	for rows.Next() {
		var r store.Report
		if err := rows.Scan(reportDest(&r)...); err != nil {
			return nil, 0, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reports: %w", err)
	}
	return out, total, nil
}

// GetReport fetches live feedback by id.
func (s *Store) GetReport(ctx context.Context, id int64) (store.Report, error) {
	var r store.Report
	err := s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM report WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(reportDest(&r)...)
	if err != nil {
		return store.Report{}, mapError(err, "get report")
	}
	return r, nil
}

// UpdateReport applies the non-nil fields of upd.
func (s *Store) UpdateReport(ctx context.Context, id int64, upd store.ReportUpdate) (store.Report, error) {
	var typ *string
	if upd.Type != nil {
		v := string(*upd.Type)
		typ = &v
	}
	var r store.Report
	err := s.pool.QueryRow(ctx, `
		UPDATE report SET
			type = COALESCE($2, type),
			comment = COALESCE($3, comment),
			updated_at = now(),
			version = version + 1
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+reportColumns, id, typ, upd.Comment).Scan(reportDest(&r)...)
	if err != nil {
		return store.Report{}, mapError(err, "update report")
	}
	return r, nil
}

// DeleteReport soft deletes feedback.
func (s *Store) DeleteReport(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE report SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "delete report")
	}
	return requireRow(tag)
}

// ListRecentReports merges location and proposal reports filed after since.
func (s *Store) ListRecentReports(ctx context.Context, since time.Time) ([]store.ReportDigest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT 'location' AS source, location_id AS target_id, user_id, type, COALESCE(reason, ''), created_at
		FROM user_location_report WHERE created_at > $1 AND deleted_at IS NULL
		UNION ALL
		SELECT 'proposal', proposal_id, user_id, type, reason, created_at
		FROM user_proposal_report WHERE created_at > $1
		ORDER BY created_at`, since)
	if err != nil {
		return nil, fmt.Errorf("list recent reports: %w", err)
	}
	defer rows.Close()
	var out []store.ReportDigest
	for rows.Next() {
		var d store.ReportDigest
		if err := rows.Scan(&d.Source, &d.TargetID, &d.UserID, &d.Type, &d.Reason, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report digest row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report digest: %w", err)
	}
	return out, nil
}
