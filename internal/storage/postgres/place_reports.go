package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const placeReportColumns = `id, type, reason, creator_id, place_id, created_at, updated_at, deleted_at, version`

func placeReportDest(r *store.PlaceReport) []any {
	return []any{&r.ID, &r.Type, &r.Reason, &r.CreatorID, &r.PlaceID, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt, &r.Version}
}

// CreatePlaceReport files a report against a place.
func (s *Store) CreatePlaceReport(ctx context.Context, r store.PlaceReport) (store.PlaceReport, error) {
	var created store.PlaceReport
	err := s.pool.QueryRow(ctx, `INSERT INTO place_report (type, reason, creator_id, place_id)
		VALUES ($1, $2, $3, $4) RETURNING `+placeReportColumns,
		int(r.Type), r.Reason, r.CreatorID, r.PlaceID).Scan(placeReportDest(&created)...)
	if err != nil {
		return store.PlaceReport{}, mapError(err, "insert place report")
	}
	return created, nil
}

func (s *Store) ListPlaceReports(ctx context.Context, page store.Page) ([]store.PlaceReport, int, error) {
	page = page.Normalize()
	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM place_report WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+placeReportColumns+` FROM place_report WHERE deleted_at IS NULL
		ORDER BY id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list place reports: %w", err)
	}
	defer rows.Close()
	var out []store.PlaceReport
	for rows.Next() {
		var r store.PlaceReport
		if err := rows.Scan(placeReportDest(&r)...); err != nil {
			return nil, 0, fmt.Errorf("scan place report row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate place reports: %w", err)
	}
	return out, total, nil
}

func (s *Store) GetPlaceReport(ctx context.Context, id int64) (store.PlaceReport, error) {
	var r store.PlaceReport
	err := s.pool.QueryRow(ctx, `SELECT `+placeReportColumns+` FROM place_report WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(placeReportDest(&r)...)
	if err != nil {
		return store.PlaceReport{}, mapError(err, "get place report")
	}
	return r, nil
}

func (s *Store) UpdatePlaceReport(ctx context.Context, id int64, upd store.PlaceReportUpdate) (store.PlaceReport, error) {
	var typ *int
	if upd.Type != nil {
		v := int(*upd.Type)
		typ = &v
	}
	var r store.PlaceReport
	err := s.pool.QueryRow(ctx, `
		UPDATE place_report SET
			type = COALESCE($2, type),
			reason = COALESCE($3, reason),
			updated_at = now(),
			version = version + 1
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+placeReportColumns, id, typ, upd.Reason).Scan(placeReportDest(&r)...)
	if err != nil {
		return store.PlaceReport{}, mapError(err, "update place report")
	}
	return r, nil
}

func (s *Store) DeletePlaceReport(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE place_report SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapError(err, "delete place report")
	}
	return requireRow(tag)
}
