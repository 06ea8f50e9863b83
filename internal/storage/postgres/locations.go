package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const locationColumns = `l.id, l.name, l.description, l.latitude, l.longitude, l.like_count, l.creator_id,
	l.created_at, l.updated_at, l.deleted_at, l.version`

func locationDest(l *store.Location) []any {
	return []any{
		&l.ID,
		&l.Name,
		&l.Description,
		&l.Latitude,
		&l.Longitude,
		&l.LikeCount,
		&l.CreatorID,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.DeletedAt,
		&l.Version,
	}
}

func scanLocations(rows pgx.Rows) ([]store.Location, error) {
	defer rows.Close()
	var out []store.Location
	for rows.Next() {
		var l store.Location
		if err := rows.Scan(locationDest(&l)...); err != nil {
			return nil, fmt.Errorf("scan location row: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return out, nil
}

// ListLocations pages through live locations whose name matches query,
// newest first.
func (s *Store) ListLocations(ctx context.Context, query string, page store.Page) ([]store.Location, int, error) {
	page = page.Normalize()
	w := &where{}
	w.raw("l.deleted_at IS NULL")
	if query != "" {
		w.add("l.name ILIKE ?", "%"+query+"%")
	}
	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM location l`+w.String(), w.args...)
	if err != nil {
		return nil, 0, err
	}
	clause := w.String()
	limit := w.next(page.Limit)
	offset := w.next(page.Offset())
	rows, err := s.pool.Query(ctx, `SELECT `+locationColumns+` FROM location l`+clause+
		` ORDER BY l.created_at DESC, l.id DESC LIMIT `+limit+` OFFSET `+offset, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}
	locations, err := scanLocations(rows)
	if err != nil {
		return nil, 0, err
	}
	return locations, total, nil
}

// ListLocationsWithin returns live locations inside the box. Boxes crossing
// the antimeridian match both longitude bands.
func (s *Store) ListLocationsWithin(ctx context.Context, box store.BoundingBox) ([]store.Location, error) {
	lngCond := `l.longitude BETWEEN $3 AND $4`
	if box.CrossesAntimeridian() {
		lngCond = `(l.longitude BETWEEN $3 AND 180 OR l.longitude BETWEEN -180 AND $4)`
	}
	rows, err := s.pool.Query(ctx, `SELECT `+locationColumns+` FROM location l
		WHERE l.deleted_at IS NULL AND l.latitude BETWEEN $1 AND $2 AND `+lngCond+`
		ORDER BY l.id`, box.SWLat, box.NELat, box.SWLng, box.NELng)
	if err != nil {
		return nil, fmt.Errorf("list locations within: %w", err)
	}
	return scanLocations(rows)
}

// GetLocation fetches a live location.
func (s *Store) GetLocation(ctx context.Context, id int64) (store.Location, error) {
	return getLocation(ctx, s.pool, id)
}

func getLocation(ctx context.Context, q querier, id int64) (store.Location, error) {
	var l store.Location
	err := q.QueryRow(ctx, `SELECT `+locationColumns+` FROM location l WHERE l.id = $1 AND l.deleted_at IS NULL`, id).
		Scan(locationDest(&l)...)
	if err != nil {
		return store.Location{}, mapError(err, "get location")
	}
	return l, nil
}

// FindLocationByCoordinatesOrName returns a live location at exactly the
// coordinates or with exactly the name.
func (s *Store) FindLocationByCoordinatesOrName(
	ctx context.Context,
	lat, lng float64,
	name string,
) (store.Location, error) {
	var l store.Location
	err := s.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM location l
		WHERE l.deleted_at IS NULL AND ((l.latitude = $1 AND l.longitude = $2) OR l.name = $3)
		ORDER BY l.id LIMIT 1`, lat, lng, name).Scan(locationDest(&l)...)
	if err != nil {
		return store.Location{}, mapError(err, "find location")
	}
	return l, nil
}

// CreateLocation inserts a location.
func (s *Store) CreateLocation(ctx context.Context, l store.Location) (store.Location, error) {
	return createLocation(ctx, s.pool, l)
}

func createLocation(ctx context.Context, q querier, l store.Location) (store.Location, error) {
	var created store.Location
	err := q.QueryRow(ctx, `
		INSERT INTO location AS l (name, description, latitude, longitude, creator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+locationColumns,
		l.Name, l.Description, l.Latitude, l.Longitude, l.CreatorID,
	).Scan(locationDest(&created)...)
	if err != nil {
		return store.Location{}, mapError(err, "insert location")
	}
	return created, nil
}

// UpdateLocation applies the non-nil fields of upd.
func (s *Store) UpdateLocation(ctx context.Context, id int64, upd store.LocationUpdate) (store.Location, error) {
	return updateLocation(ctx, s.pool, id, upd)
}

func updateLocation(ctx context.Context, q querier, id int64, upd store.LocationUpdate) (store.Location, error) {
	var l store.Location
	err := q.QueryRow(ctx, `
		UPDATE location AS l SET
			name = COALESCE($2, l.name),
			description = COALESCE($3, l.description),
			latitude = COALESCE($4, l.latitude),
			longitude = COALESCE($5, l.longitude),
			updated_at = now(),
			version = l.version + 1
		WHERE l.id = $1 AND l.deleted_at IS NULL
		RETURNING `+locationColumns,
		id, upd.Name, upd.Description, upd.Latitude, upd.Longitude,
	).Scan(locationDest(&l)...)
	if err != nil {
		return store.Location{}, mapError(err, "update location")
	}
	return l, nil
}

// DeleteLocation removes a location permanently.
func (s *Store) DeleteLocation(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM location WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete location")
	}
	return requireRow(tag)
}

// ToggleLocationLike flips the user's like and reports the new state.
func (s *Store) ToggleLocationLike(ctx context.Context, userID, locationID int64) (bool, error) {
	return s.toggle(ctx, "user_location_like", "location_id", userID, locationID)
}

// ToggleLocationSave flips the user's bookmark and reports the new state.
func (s *Store) ToggleLocationSave(ctx context.Context, userID, locationID int64) (bool, error) {
	return s.toggle(ctx, "user_location_save", "location_id", userID, locationID)
}

// CreateLocationReport files a report against a location.
func (s *Store) CreateLocationReport(ctx context.Context, r store.UserLocationReport) (store.UserLocationReport, error) {
	out := r
	err := s.pool.QueryRow(ctx, `
		INSERT INTO user_location_report (user_id, location_id, type, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, r.UserID, r.LocationID, int(r.Type), r.Reason).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return store.UserLocationReport{}, mapError(err, "insert location report")
	}
	return out, nil
}

// ApplyProposal carries out an approved proposal against the location
// table, notifies the proposer (and for updates and deletes the location's
// creator) and soft deletes the proposal.
func (s *Store) ApplyProposal(ctx context.Context, proposalID int64) (store.Location, error) {
	var result store.Location
	err := s.WithTx(ctx, func(q querier) error {
		var p store.Proposal
		err := q.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposal pr
			WHERE pr.id = $1 AND pr.deleted_at IS NULL FOR UPDATE`, proposalID).Scan(proposalDest(&p)...)
		if err != nil {
			return mapError(err, "load proposal")
		}

		var notes []store.Notification
		switch p.Type {
		case store.ProposalCreate:
			loc := store.Location{CreatorID: p.CreatorID}
			if p.NewLocationName != nil {
				loc.Name = *p.NewLocationName
			}
			if p.NewLocationDescription != nil {
				loc.Description = *p.NewLocationDescription
			}
			if p.NewLatitude != nil {
				loc.Latitude = *p.NewLatitude
			}
			if p.NewLongitude != nil {
				loc.Longitude = *p.NewLongitude
			}
			if result, err = createLocation(ctx, q, loc); err != nil {
				return err
			}
			if _, err := q.Exec(ctx, `UPDATE proposal SET location_id = $2 WHERE id = $1`, p.ID, result.ID); err != nil {
				return mapError(err, "link proposal location")
			}
			redirect := fmt.Sprintf("location/%d", result.ID)
			notes = append(notes, store.Notification{
				Type:        store.NotificationApproved,
				Title:       "Create proposal approved",
				Content:     "Your create proposal was approved. A new location has been added.",
				RedirectURL: &redirect,
				UserID:      p.CreatorID,
			})

		case store.ProposalUpdate:
			if p.LocationID == nil {
				return fmt.Errorf("proposal %d has no location: %w", p.ID, store.ErrNotFound)
			}
			current, err := getLocation(ctx, q, *p.LocationID)
			if err != nil {
				return err
			}
			result, err = updateLocation(ctx, q, current.ID, store.LocationUpdate{
				Name:        p.NewLocationName,
				Description: p.NewLocationDescription,
				Latitude:    p.NewLatitude,
				Longitude:   p.NewLongitude,
			})
			if err != nil {
				return err
			}
			redirect := fmt.Sprintf("location/%d", current.ID)
			content := fmt.Sprintf("Your update proposal was approved. Location %s has been updated.", current.Name)
			for _, uid := range []*int64{p.CreatorID, current.CreatorID} {
				notes = append(notes, store.Notification{
					Type:        store.NotificationApproved,
					Title:       "Update proposal approved",
					Content:     content,
					RedirectURL: &redirect,
					UserID:      uid,
				})
			}

		case store.ProposalDelete:
			if p.LocationID == nil {
				return fmt.Errorf("proposal %d has no location: %w", p.ID, store.ErrNotFound)
			}
			current, err := getLocation(ctx, q, *p.LocationID)
			if err != nil {
				return err
			}
			err = q.QueryRow(ctx, `UPDATE location AS l SET deleted_at = now(), updated_at = now(), version = l.version + 1
				WHERE l.id = $1 RETURNING `+locationColumns, current.ID).Scan(locationDest(&result)...)
			if err != nil {
				return mapError(err, "soft delete location")
			}
			content := fmt.Sprintf("Your delete proposal was approved. Location %s has been deleted.", current.Name)
			for _, uid := range []*int64{p.CreatorID, current.CreatorID} {
				notes = append(notes, store.Notification{
					Type:    store.NotificationApproved,
					Title:   "Delete proposal approved",
					Content: content,
					UserID:  uid,
				})
			}

		default:
			return fmt.Errorf("proposal %d has unknown type %d: %w", p.ID, p.Type, store.ErrInvalidReference)
		}

		notified := make(map[int64]bool, len(notes))
		for _, n := range notes {
			if n.UserID == nil || notified[*n.UserID] {
				continue
			}
			notified[*n.UserID] = true
			if _, err := createNotification(ctx, q, n); err != nil {
				return err
			}
		}
		if _, err := q.Exec(ctx, `UPDATE proposal SET deleted_at = now(), updated_at = now() WHERE id = $1`, p.ID); err != nil {
			return mapError(err, "soft delete proposal")
		}
		return nil
	})
	if err != nil {
		return store.Location{}, err
	}
	return result, nil
}
