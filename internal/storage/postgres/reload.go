package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// ReplacePlaceGraph swaps the place tables for g in one transaction. User
// likes, bookmarks and memos on removed places go with them.
func (s *Store) ReplacePlaceGraph(ctx context.Context, g store.PlaceGraph) error {
	return s.WithTx(ctx, func(q querier) error {
		for _, table := range []string{"place_relation", "place_place_type", "place_type", "place"} {
			if _, err := q.Exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		typeIDs, err := insertTypeNames(ctx, q, g.PlaceTypes)
		if err != nil {
			return err
		}

		placeRows := make([][]any, 0, len(g.Places))
		for _, p := range g.Places {
			stereo := p.Stereo
			if stereo == "" {
				stereo = store.StereoParent
			}
			placeRows = append(placeRows, []any{
				p.ID, p.Name, p.KoreanName, p.IsModern, p.Description, p.KoreanDescription,
				p.ImageTitle, string(stereo), p.Verse, p.UnknownPlacePossibility, p.Latitude, p.Longitude,
			})
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"place"},
			[]string{
				"id", "name", "korean_name", "is_modern", "description", "korean_description",
				"image_title", "stereo", "verse", "unknown_place_possibility", "latitude", "longitude",
			},
			pgx.CopyFromRows(placeRows),
		); err != nil {
			return mapError(err, "copy places")
		}

		var linkRows [][]any
		for _, p := range g.Places {
			for _, name := range g.PlaceTypes[p.ID] {
				if id, ok := typeIDs[name]; ok {
					linkRows = append(linkRows, []any{p.ID, id})
				}
			}
		}
		if len(linkRows) > 0 {
			if _, err := q.CopyFrom(ctx, pgx.Identifier{"place_place_type"},
				[]string{"place_id", "place_type_id"}, pgx.CopyFromRows(linkRows)); err != nil {
				return mapError(err, "copy place types")
			}
		}

		if len(g.Relations) > 0 {
			relRows := make([][]any, 0, len(g.Relations))
			for _, r := range g.Relations {
				relRows = append(relRows, []any{r.ParentID, r.ChildID, r.Possibility})
			}
			if _, err := q.CopyFrom(ctx, pgx.Identifier{"place_relation"},
				[]string{"parent_id", "child_id", "possibility"}, pgx.CopyFromRows(relRows)); err != nil {
				return mapError(err, "copy relations")
			}
		}
		return nil
	})
}

// insertTypeNames creates one place_type per distinct name and returns the
// name to id mapping.
func insertTypeNames(ctx context.Context, q querier, byPlace map[string][]string) (map[string]int64, error) {
	seen := map[string]struct{}{}
	var names []string
	for _, list := range byPlace {
		for _, n := range list {
			if _, ok := seen[n]; ok || n == "" {
				continue
			}
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	ids := make(map[string]int64, len(names))
	if len(names) == 0 {
		return ids, nil
	}
	sort.Strings(names)

	rows, err := q.Query(ctx, `INSERT INTO place_type (name) SELECT unnest($1::text[]) RETURNING id, name`, names)
	if err != nil {
		return nil, fmt.Errorf("insert place types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan place type row: %w", err)
		}
		ids[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate place types: %w", err)
	}
	return ids, nil
}
