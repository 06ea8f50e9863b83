package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const placeColumns = `p.id, p.name, p.korean_name, p.is_modern, p.description, p.korean_description,
	p.image_title, p.stereo, p.verse, p.like_count, p.unknown_place_possibility, p.latitude, p.longitude,
	p.created_at, p.updated_at, p.deleted_at, p.version`

func placeDest(p *store.Place) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.KoreanName,
		&p.IsModern,
		&p.Description,
		&p.KoreanDescription,
		&p.ImageTitle,
		&p.Stereo,
		&p.Verse,
		&p.LikeCount,
		&p.UnknownPlacePossibility,
		&p.Latitude,
		&p.Longitude,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
		&p.Version,
	}
}

func scanPlaces(rows pgx.Rows) ([]store.Place, error) {
	defer rows.Close()
	var places []store.Place
	for rows.Next() {
		var p store.Place
		if err := rows.Scan(placeDest(&p)...); err != nil {
			return nil, fmt.Errorf("scan place row: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate places: %w", err)
	}
	return places, nil
}

// attachTypes loads the type list of every place in one query.
func attachTypes(ctx context.Context, q querier, places []store.Place) error {
	if len(places) == 0 {
		return nil
	}
	ids := make([]string, len(places))
	for i, p := range places {
		ids[i] = p.ID
	}
	rows, err := q.Query(ctx, `
		SELECT ppt.place_id, pt.id, pt.name
		FROM place_place_type ppt
		JOIN place_type pt ON pt.id = ppt.place_type_id
		WHERE ppt.place_id = ANY($1)
		ORDER BY pt.id`, ids)
	if err != nil {
		return fmt.Errorf("load place types: %w", err)
	}
	defer rows.Close()

	byPlace := make(map[string][]store.PlaceType, len(places))
	for rows.Next() {
		var placeID string
		var t store.PlaceType
		if err := rows.Scan(&placeID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("scan place type row: %w", err)
		}
		byPlace[placeID] = append(byPlace[placeID], t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate place types: %w", err)
	}
	for i := range places {
		places[i].Types = byPlace[places[i].ID]
		if places[i].Types == nil {
			places[i].Types = []store.PlaceType{}
		}
	}
	return nil
}

func checkTypeIDs(ctx context.Context, q querier, typeIDs []int64) error {
	if len(typeIDs) == 0 {
		return nil
	}
	found, err := countRows(ctx, q, `SELECT count(*) FROM place_type WHERE id = ANY($1)`, typeIDs)
	if err != nil {
		return err
	}
	if found != len(typeIDs) {
		return store.ErrInvalidReference
	}
	return nil
}

func linkTypes(ctx context.Context, q querier, placeID string, typeIDs []int64) error {
	if len(typeIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO place_place_type (place_id, place_type_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, placeID, typeIDs)
	if err != nil {
		return mapError(err, "link place types")
	}
	return nil
}

// CreatePlace inserts a place with its type links.
func (s *Store) CreatePlace(ctx context.Context, p store.Place, typeIDs []int64) (store.Place, error) {
	typeIDs = uniqueIDs(typeIDs)
	var created store.Place
	err := s.WithTx(ctx, func(q querier) error {
		if err := checkTypeIDs(ctx, q, typeIDs); err != nil {
			return err
		}
		query := `
			INSERT INTO place AS p (id, name, korean_name, is_modern, description, korean_description,
				image_title, stereo, verse, unknown_place_possibility, latitude, longitude)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING ` + placeColumns
		err := q.QueryRow(ctx, query,
			p.ID, p.Name, p.KoreanName, p.IsModern, p.Description, p.KoreanDescription,
			p.ImageTitle, string(p.Stereo), p.Verse, p.UnknownPlacePossibility, p.Latitude, p.Longitude,
		).Scan(placeDest(&created)...)
		if err != nil {
			return mapError(err, "insert place")
		}
		if err := linkTypes(ctx, q, created.ID, typeIDs); err != nil {
			return err
		}
		one := []store.Place{created}
		if err := attachTypes(ctx, q, one); err != nil {
			return err
		}
		created = one[0]
		return nil
	})
	if err != nil {
		return store.Place{}, err
	}
	return created, nil
}

// UpdatePlace applies the non-nil fields of upd.
func (s *Store) UpdatePlace(ctx context.Context, id string, upd store.PlaceUpdate) (store.Place, error) {
	var updated store.Place
	err := s.WithTx(ctx, func(q querier) error {
		var stereo *string
		if upd.Stereo != nil {
			v := string(*upd.Stereo)
			stereo = &v
		}
		query := `
			UPDATE place AS p SET
				name = COALESCE($2, p.name),
				korean_name = COALESCE($3, p.korean_name),
				is_modern = COALESCE($4, p.is_modern),
				description = COALESCE($5, p.description),
				korean_description = COALESCE($6, p.korean_description),
				image_title = COALESCE($7, p.image_title),
				stereo = COALESCE($8, p.stereo),
				verse = COALESCE($9, p.verse),
				latitude = COALESCE($10, p.latitude),
				longitude = COALESCE($11, p.longitude),
				updated_at = now(),
				version = p.version + 1
			WHERE p.id = $1 AND p.deleted_at IS NULL
			RETURNING ` + placeColumns
		err := q.QueryRow(ctx, query, id,
			upd.Name, upd.KoreanName, upd.IsModern, upd.Description, upd.KoreanDescription,
			upd.ImageTitle, stereo, upd.Verse, upd.Latitude, upd.Longitude,
		).Scan(placeDest(&updated)...)
		if err != nil {
			return mapError(err, "update place")
		}
		if upd.TypeIDs != nil {
			typeIDs := uniqueIDs(upd.TypeIDs)
			if err := checkTypeIDs(ctx, q, typeIDs); err != nil {
				return err
			}
			if _, err := q.Exec(ctx, `DELETE FROM place_place_type WHERE place_id = $1`, id); err != nil {
				return mapError(err, "unlink place types")
			}
			if err := linkTypes(ctx, q, id, typeIDs); err != nil {
				return err
			}
		}
		one := []store.Place{updated}
		if err := attachTypes(ctx, q, one); err != nil {
			return err
		}
		updated = one[0]
		return nil
	})
	if err != nil {
		return store.Place{}, err
	}
	return updated, nil
}

// DeletePlace removes a place and, by cascade, its links.
func (s *Store) DeletePlace(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM place WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete place")
	}
	return requireRow(tag)
}

// GetPlace fetches a place with its types.
func (s *Store) GetPlace(ctx context.Context, id string) (store.Place, error) {
	var p store.Place
	err := s.pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM place p WHERE p.id = $1 AND p.deleted_at IS NULL`, id).
		Scan(placeDest(&p)...)
	if err != nil {
		return store.Place{}, mapError(err, "get place")
	}
	one := []store.Place{p}
	if err := attachTypes(ctx, s.pool, one); err != nil {
		return store.Place{}, err
	}
	return one[0], nil
}

// PlaceExists reports whether a live place has the id.
func (s *Store) PlaceExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM place WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check place: %w", err)
	}
	return exists, nil
}

func (s *Store) relatedPlaces(ctx context.Context, id string, joinCol, matchCol string) ([]store.RelatedPlace, error) {
	query := fmt.Sprintf(`
		SELECT r.id, r.possibility, %s
		FROM place_relation r
		JOIN place p ON p.id = r.%s
		WHERE r.%s = $1 AND p.deleted_at IS NULL
		ORDER BY r.id`, placeColumns, joinCol, matchCol)
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("load relations: %w", err)
	}
	defer rows.Close()

	var related []store.RelatedPlace
	for rows.Next() {
		var r store.RelatedPlace
		dest := append([]any{&r.ID, &r.Possibility}, placeDest(&r.Place)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan relation row: %w", err)
		}
		related = append(related, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}
	return related, nil
}

// GetPlaceDetail loads the place with its types, relations (each related
// place with its own types) and the live like count.
func (s *Store) GetPlaceDetail(ctx context.Context, id string) (store.PlaceDetail, error) {
	place, err := s.GetPlace(ctx, id)
	if err != nil {
		return store.PlaceDetail{}, err
	}
	children, err := s.relatedPlaces(ctx, id, "child_id", "parent_id")
	if err != nil {
		return store.PlaceDetail{}, err
	}
	parents, err := s.relatedPlaces(ctx, id, "parent_id", "child_id")
	if err != nil {
		return store.PlaceDetail{}, err
	}

	related := make([]store.Place, 0, len(children)+len(parents))
	for _, r := range children {
		related = append(related, r.Place)
	}
	for _, r := range parents {
		related = append(related, r.Place)
	}
	if err := attachTypes(ctx, s.pool, related); err != nil {
		return store.PlaceDetail{}, err
	}
	for i := range children {
		children[i].Place = related[i]
	}
	for i := range parents {
		parents[i].Place = related[len(children)+i]
	}

	likes, err := countRows(ctx, s.pool, `
		SELECT count(*) FROM user_place_like l
		JOIN users u ON u.id = l.user_id
		WHERE l.place_id = $1 AND u.deleted_at IS NULL`, id)
	if err != nil {
		return store.PlaceDetail{}, err
	}
	place.LikeCount = likes

	if children == nil {
		children = []store.RelatedPlace{}
	}
	if parents == nil {
		parents = []store.RelatedPlace{}
	}
	return store.PlaceDetail{Place: place, ChildRelations: children, ParentRelations: parents}, nil
}

func verseOrderExpr(param string, part int) string {
	return fmt.Sprintf(`CASE WHEN POSITION(%[1]s IN p.verse) > 0 THEN COALESCE(NULLIF(substring(
		SPLIT_PART(SUBSTRING(p.verse FROM POSITION(%[1]s IN p.verse)), '.', %[2]d) FROM '^[0-9]+'), '')::int, 999)
		ELSE 999 END`, param, part)
}

// ListPlaces pages through places matching f.
func (s *Store) ListPlaces(ctx context.Context, f store.PlaceFilter) ([]store.Place, int, error) {
	page := f.Page.Normalize()
	w := &where{}
	w.raw("p.deleted_at IS NULL")
	if f.Name != "" {
		w.add("(p.name ILIKE ? OR p.korean_name ILIKE ?)", "%"+f.Name+"%")
	}
	w.add("p.is_modern = ?", f.IsModern)
	if f.Stereo != "" {
		w.add("p.stereo = ?", string(f.Stereo))
	}
	if f.Prefix != "" {
		w.add("LOWER(LEFT(p.name, 1)) = ?", strings.ToLower(f.Prefix))
	}
	if len(f.PlaceTypes) > 0 {
		w.add(`EXISTS (SELECT 1 FROM place_place_type ppt JOIN place_type pt ON pt.id = ppt.place_type_id
			WHERE ppt.place_id = p.id AND pt.name = ANY(?))`, f.PlaceTypes)
	}

	order := "p.name ASC"
	switch {
	case f.BibleBook != "":
		w.add("p.verse ~* ?", bookPattern(f.BibleBook))
	case f.Sort == store.SortLike:
		w.raw("p.like_count > 0")
		order = "p.like_count DESC, p.id"
	case f.Sort == store.SortDesc:
		order = "p.name DESC"
	}

	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM place p`+w.String(), w.args...)
	if err != nil {
		return nil, 0, err
	}

	clause := w.String()
	if f.BibleBook != "" {
		book := w.next(f.BibleBook + ".")
		order = verseOrderExpr(book, 2) + ", " + verseOrderExpr(book, 3) + ", p.id"
	}
	limit := w.next(page.Limit)
	offset := w.next(page.Offset())
	query := `SELECT ` + placeColumns + ` FROM place p` + clause +
		` ORDER BY ` + order + ` LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list places: %w", err)
	}
	places, err := scanPlaces(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := attachTypes(ctx, s.pool, places); err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

// ListRepPointCandidates returns non-modern places with coordinates, most
// liked first.
func (s *Store) ListRepPointCandidates(ctx context.Context) ([]store.Place, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+placeColumns+` FROM place p
		WHERE p.latitude IS NOT NULL AND p.longitude IS NOT NULL
			AND p.is_modern = false AND p.deleted_at IS NULL
		ORDER BY p.like_count DESC, p.id`)
	if err != nil {
		return nil, fmt.Errorf("list rep point candidates: %w", err)
	}
	places, err := scanPlaces(rows)
	if err != nil {
		return nil, err
	}
	if err := attachTypes(ctx, s.pool, places); err != nil {
		return nil, err
	}
	return places, nil
}

var collectionTables = map[store.CollectionKind]string{
	store.CollectionLike: "user_place_like",
	store.CollectionSave: "user_place_save",
	store.CollectionMemo: "user_place_memo",
}

// ListUserPlaces pages through one of the user's collections.
func (s *Store) ListUserPlaces(
	ctx context.Context,
	userID int64,
	kind store.CollectionKind,
	page store.Page,
) ([]store.Place, int, error) {
	table, ok := collectionTables[kind]
	if !ok {
		return nil, 0, nil
	}
	page = page.Normalize()
	from := fmt.Sprintf(` FROM place p JOIN %s c ON c.place_id = p.id AND c.user_id = $1
		WHERE p.deleted_at IS NULL`, table)
	total, err := countRows(ctx, s.pool, `SELECT count(*)`+from, userID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+placeColumns+from+
		` ORDER BY c.created_at DESC, p.id LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list user places: %w", err)
	}
	places, err := scanPlaces(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := attachTypes(ctx, s.pool, places); err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

func (s *Store) placeIDs(ctx context.Context, table string, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT place_id FROM %s WHERE user_id = $1 ORDER BY place_id`, table), userID)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", table, err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s ids: %w", table, err)
	}
	return ids, nil
}

// UserCollectionIDs lists the place ids in each of the user's collections.
func (s *Store) UserCollectionIDs(ctx context.Context, userID int64) (store.CollectionIDs, error) {
	var out store.CollectionIDs
	var err error
	if out.Liked, err = s.placeIDs(ctx, "user_place_like", userID); err != nil {
		return store.CollectionIDs{}, err
	}
	if out.Bookmarked, err = s.placeIDs(ctx, "user_place_save", userID); err != nil {
		return store.CollectionIDs{}, err
	}
	if out.Memoed, err = s.placeIDs(ctx, "user_place_memo", userID); err != nil {
		return store.CollectionIDs{}, err
	}
	return out, nil
}

// UserPlaceState reports the user's like, save and memo for a place.
func (s *Store) UserPlaceState(ctx context.Context, userID int64, placeID string) (store.PlaceUserState, error) {
	var state store.PlaceUserState
	err := s.pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM user_place_like WHERE user_id = $1 AND place_id = $2),
			EXISTS (SELECT 1 FROM user_place_save WHERE user_id = $1 AND place_id = $2)`,
		userID, placeID).Scan(&state.Liked, &state.Saved)
	if err != nil {
		return store.PlaceUserState{}, fmt.Errorf("load place state: %w", err)
	}
	var memo store.Memo
	err = s.pool.QueryRow(ctx, `SELECT text, updated_at FROM user_place_memo WHERE user_id = $1 AND place_id = $2`,
		userID, placeID).Scan(&memo.Text, &memo.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return store.PlaceUserState{}, fmt.Errorf("load place memo: %w", err)
	default:
		state.Memo = &memo
	}
	return state, nil
}

func (s *Store) toggle(ctx context.Context, table, col string, userID int64, targetID any) (bool, error) {
	var on bool
	err := s.WithTx(ctx, func(q querier) error {
		tag, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND %s = $2`, table, col), userID, targetID)
		if err != nil {
			return mapError(err, "toggle "+table)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		if _, err := q.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (user_id, %s) VALUES ($1, $2)`, table, col), userID, targetID); err != nil {
			return mapError(err, "toggle "+table)
		}
		on = true
		return nil
	})
	return on, err
}

// ToggleLike flips the user's like and reports the new state.
func (s *Store) ToggleLike(ctx context.Context, userID int64, placeID string) (bool, error) {
	return s.toggle(ctx, "user_place_like", "place_id", userID, placeID)
}

// ToggleSave flips the user's bookmark and reports the new state.
func (s *Store) ToggleSave(ctx context.Context, userID int64, placeID string) (bool, error) {
	return s.toggle(ctx, "user_place_save", "place_id", userID, placeID)
}

// UpsertMemo creates or replaces the user's memo.
func (s *Store) UpsertMemo(ctx context.Context, userID int64, placeID, text string) (store.Memo, error) {
	var memo store.Memo
	err := s.pool.QueryRow(ctx, `
		INSERT INTO user_place_memo (user_id, place_id, text) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, place_id) DO UPDATE SET text = EXCLUDED.text, updated_at = now()
		RETURNING text, updated_at`, userID, placeID, text).Scan(&memo.Text, &memo.UpdatedAt)
	if err != nil {
		return store.Memo{}, mapError(err, "upsert memo")
	}
	return memo, nil
}

// DeleteMemo removes the user's memo.
func (s *Store) DeleteMemo(ctx context.Context, userID int64, placeID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_place_memo WHERE user_id = $1 AND place_id = $2`, userID, placeID)
	if err != nil {
		return mapError(err, "delete memo")
	}
	return requireRow(tag)
}

// PrefixCounts groups non-modern places by the first letter of their name.
func (s *Store) PrefixCounts(ctx context.Context) ([]store.PrefixCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT LOWER(LEFT(name, 1)) AS prefix, count(*)
		FROM place
		WHERE is_modern = false AND deleted_at IS NULL
		GROUP BY prefix
		ORDER BY prefix`)
	if err != nil {
		return nil, fmt.Errorf("prefix counts: %w", err)
	}
	defer rows.Close()
	counts := []store.PrefixCount{}
	for rows.Next() {
		var c store.PrefixCount
		if err := rows.Scan(&c.Prefix, &c.PlaceCount); err != nil {
			return nil, fmt.Errorf("scan prefix count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prefix counts: %w", err)
	}
	return counts, nil
}

// bookPattern matches a reference to book in a verse list such as
// "Gen.2.14,1John.1.1". The book must start the list or follow a non
// alphanumeric, so "John" does not match inside "1John".
func bookPattern(book string) string {
	return `(^|[^0-9A-Za-z])` + regexp.QuoteMeta(book) + `\.`
}

// BibleBookCounts counts non-modern places citing each key in one pass.
func (s *Store) BibleBookCounts(ctx context.Context, keys []string) (map[string]int, error) {
	if len(keys) == 0 {
		return map[string]int{}, nil
	}
	sums := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		sums[i] = fmt.Sprintf("COALESCE(SUM(CASE WHEN verse ~ $%d THEN 1 ELSE 0 END), 0)", i+1)
		args[i] = bookPattern(key)
	}
	query := `SELECT ` + strings.Join(sums, ", ") + ` FROM place WHERE is_modern = false AND deleted_at IS NULL`

	values := make([]int64, len(keys))
	dest := make([]any, len(keys))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.pool.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		return nil, fmt.Errorf("bible book counts: %w", err)
	}
	out := make(map[string]int, len(keys))
	for i, key := range keys {
		out[key] = int(values[i])
	}
	return out, nil
}
