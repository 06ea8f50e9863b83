package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// CreatePlaceType inserts a type; duplicates yield store.ErrConflict.
func (s *Store) CreatePlaceType(ctx context.Context, name string) (store.PlaceType, error) {
	var t store.PlaceType
	err := s.pool.QueryRow(ctx, `INSERT INTO place_type (name) VALUES ($1) RETURNING id, name`, name).
		Scan(&t.ID, &t.Name)
	if err != nil {
		return store.PlaceType{}, mapError(err, "insert place type")
	}
	return t, nil
}

// ListPlaceTypes pages through types with their non-modern place counts.
func (s *Store) ListPlaceTypes(ctx context.Context, page store.Page) ([]store.PlaceTypeCount, int, error) {
	page = page.Normalize()
	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM place_type WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT pt.id, pt.name,
			(SELECT count(*) FROM place_place_type ppt
				JOIN place p ON p.id = ppt.place_id
				WHERE ppt.place_type_id = pt.id AND p.is_modern = false) AS place_count
		FROM place_type pt
		WHERE pt.deleted_at IS NULL
		ORDER BY pt.id
		LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list place types: %w", err)
	}
	defer rows.Close()

	var out []store.PlaceTypeCount
	for rows.Next() {
		var c store.PlaceTypeCount
		if err := rows.Scan(&c.ID, &c.Name, &c.PlaceCount); err != nil {
			return nil, 0, fmt.Errorf("scan place type row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate place types: %w", err)
	}
	return out, total, nil
}

// GetPlaceType fetches a type by id.
func (s *Store) GetPlaceType(ctx context.Context, id int64) (store.PlaceType, error) {
	var t store.PlaceType
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM place_type WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&t.ID, &t.Name)
	if err != nil {
		return store.PlaceType{}, mapError(err, "get place type")
	}
	return t, nil
}

// FindPlaceTypeByName fetches a type by its unique name.
func (s *Store) FindPlaceTypeByName(ctx context.Context, name string) (store.PlaceType, error) {
	var t store.PlaceType
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM place_type WHERE name = $1 AND deleted_at IS NULL`, name).
		Scan(&t.ID, &t.Name)
	if err != nil {
		return store.PlaceType{}, mapError(err, "find place type")
	}
	return t, nil
}

// CountPlaceTypes counts how many of ids exist.
func (s *Store) CountPlaceTypes(ctx context.Context, ids []int64) (int, error) {
	return countRows(ctx, s.pool, `SELECT count(*) FROM place_type WHERE id = ANY($1)`, uniqueIDs(ids))
}

// UpdatePlaceType renames a type.
func (s *Store) UpdatePlaceType(ctx context.Context, id int64, name string) (store.PlaceType, error) {
	var t store.PlaceType
	err := s.pool.QueryRow(ctx, `
		UPDATE place_type SET name = $2, updated_at = now(), version = version + 1
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name`, id, name).Scan(&t.ID, &t.Name)
	if err != nil {
		return store.PlaceType{}, mapError(err, "update place type")
	}
	return t, nil
}

// DeletePlaceType removes a type and its place links.
func (s *Store) DeletePlaceType(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM place_type WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete place type")
	}
	return requireRow(tag)
}
