package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const proposalColumns = `pr.id, pr.type, pr.comment, pr.content, pr.agree_count, pr.disagree_count,
	pr.new_location_name, pr.new_location_description, pr.new_latitude, pr.new_longitude,
	pr.place_id, pr.location_id, pr.creator_id, pr.created_at, pr.updated_at, pr.deleted_at, pr.version`

func proposalDest(p *store.Proposal) []any {
	return []any{
		&p.ID,
		&p.Type,
		&p.Comment,
		&p.Content,
		&p.AgreeCount,
		&p.DisagreeCount,
		&p.NewLocationName,
		&p.NewLocationDescription,
		&p.NewLatitude,
		&p.NewLongitude,
		&p.PlaceID,
		&p.LocationID,
		&p.CreatorID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
		&p.Version,
	}
}

// attachProposalRefs loads creators and places for a page of proposals in
// two queries.
func (s *Store) attachProposalRefs(ctx context.Context, q querier, proposals []store.Proposal) error {
	var userIDs []int64
	var placeIDs []string
	for _, p := range proposals {
		if p.CreatorID != nil {
			userIDs = append(userIDs, *p.CreatorID)
		}
		if p.PlaceID != nil {
			placeIDs = append(placeIDs, *p.PlaceID)
		}
	}

	users := map[int64]store.User{}
	if len(userIDs) > 0 {
		rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, uniqueIDs(userIDs))
		if err != nil {
			return fmt.Errorf("load proposal creators: %w", err)
		}
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("scan creator row: %w", err)
			}
			users[u.ID] = u
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate creators: %w", err)
		}
	}

	places := map[string]store.Place{}
	if len(placeIDs) > 0 {
		rows, err := q.Query(ctx, `SELECT `+placeColumns+` FROM place p WHERE p.id = ANY($1)`, placeIDs)
		if err != nil {
			return fmt.Errorf("load proposal places: %w", err)
		}
		loaded, err := scanPlaces(rows)
		if err != nil {
			return err
		}
		for _, p := range loaded {
			places[p.ID] = p
		}
	}

	for i := range proposals {
		if id := proposals[i].CreatorID; id != nil {
			if u, ok := users[*id]; ok {
				proposals[i].Creator = &u
			}
		}
		if id := proposals[i].PlaceID; id != nil {
			if p, ok := places[*id]; ok {
				proposals[i].Place = &p
			}
		}
	}
	return nil
}

// CreateProposal inserts a proposal.
func (s *Store) CreateProposal(ctx context.Context, p store.Proposal) (store.Proposal, error) {
	var created store.Proposal
	err := s.pool.QueryRow(ctx, `
		INSERT INTO proposal AS pr (type, comment, content, new_location_name, new_location_description,
			new_latitude, new_longitude, place_id, location_id, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+proposalColumns,
		int(p.Type), p.Comment, p.Content, p.NewLocationName, p.NewLocationDescription,
		p.NewLatitude, p.NewLongitude, p.PlaceID, p.LocationID, p.CreatorID,
	).Scan(proposalDest(&created)...)
	if err != nil {
		return store.Proposal{}, mapError(err, "insert proposal")
	}
	return created, nil
}

// GetProposal fetches a live proposal with its creator and place.
func (s *Store) GetProposal(ctx context.Context, id int64) (store.Proposal, error) {
	var p store.Proposal
	err := s.pool.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposal pr WHERE pr.id = $1 AND pr.deleted_at IS NULL`, id).
		Scan(proposalDest(&p)...)
	if err != nil {
		return store.Proposal{}, mapError(err, "get proposal")
	}
	one := []store.Proposal{p}
	if err := s.attachProposalRefs(ctx, s.pool, one); err != nil {
		return store.Proposal{}, err
	}
	return one[0], nil
}

// ListProposals pages through live proposals, newest first.
func (s *Store) ListProposals(ctx context.Context, page store.Page) ([]store.Proposal, int, error) {
	page = page.Normalize()
	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM proposal WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+proposalColumns+` FROM proposal pr
		WHERE pr.deleted_at IS NULL ORDER BY pr.id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()
	var proposals []store.Proposal
	for rows.Next() {
		var p store.Proposal
		if err := rows.Scan(proposalDest(&p)...); err != nil {
			return nil, 0, fmt.Errorf("scan proposal row: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate proposals: %w", err)
	}
	rows.Close()
	if err := s.attachProposalRefs(ctx, s.pool, proposals); err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

// UpdateProposal applies the non-nil fields of upd.
func (s *Store) UpdateProposal(ctx context.Context, id int64, upd store.ProposalPatch) (store.Proposal, error) {
	var typ *int
	if upd.Type != nil {
		v := int(*upd.Type)
		typ = &v
	}
	var p store.Proposal
	err := s.pool.QueryRow(ctx, `
		UPDATE proposal AS pr SET
			type = COALESCE($2, pr.type),
			comment = COALESCE($3, pr.comment),
			new_location_name = COALESCE($4, pr.new_location_name),
			new_location_description = COALESCE($5, pr.new_location_description),
			new_latitude = COALESCE($6, pr.new_latitude),
			new_longitude = COALESCE($7, pr.new_longitude),
			place_id = COALESCE($8, pr.place_id),
			updated_at = now(),
			version = pr.version + 1
		WHERE pr.id = $1 AND pr.deleted_at IS NULL
		RETURNING `+proposalColumns,
		id, typ, upd.Comment, upd.NewLocationName, upd.NewLocationDescription,
		upd.NewLatitude, upd.NewLongitude, upd.PlaceID,
	).Scan(proposalDest(&p)...)
	if err != nil {
		return store.Proposal{}, mapError(err, "update proposal")
	}
	one := []store.Proposal{p}
	if err := s.attachProposalRefs(ctx, s.pool, one); err != nil {
		return store.Proposal{}, err
	}
	return one[0], nil
}

// DeleteProposal removes a proposal permanently.
func (s *Store) DeleteProposal(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM proposal WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete proposal")
	}
	return requireRow(tag)
}

// ToggleAgreement records, flips or withdraws the user's vote.
func (s *Store) ToggleAgreement(ctx context.Context, proposalID, userID int64, agree bool) (*bool, error) {
	var result *bool
	err := s.WithTx(ctx, func(q querier) error {
		var current bool
		err := q.QueryRow(ctx, `SELECT is_agree FROM proposal_agreement
			WHERE proposal_id = $1 AND user_id = $2 FOR UPDATE`, proposalID, userID).Scan(&current)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if _, err := q.Exec(ctx, `INSERT INTO proposal_agreement (proposal_id, user_id, is_agree)
				VALUES ($1, $2, $3)`, proposalID, userID, agree); err != nil {
				return mapError(err, "insert agreement")
			}
			result = &agree
		case err != nil:
			return fmt.Errorf("load agreement: %w", err)
		case current == agree:
			if _, err := q.Exec(ctx, `DELETE FROM proposal_agreement WHERE proposal_id = $1 AND user_id = $2`,
				proposalID, userID); err != nil {
				return mapError(err, "delete agreement")
			}
		default:
			if _, err := q.Exec(ctx, `UPDATE proposal_agreement SET is_agree = $3
				WHERE proposal_id = $1 AND user_id = $2`, proposalID, userID, agree); err != nil {
				return mapError(err, "update agreement")
			}
			result = &agree
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateProposalReport files or replaces the user's report on a proposal.
func (s *Store) CreateProposalReport(ctx context.Context, r store.UserProposalReport) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_proposal_report (user_id, proposal_id, type, reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, proposal_id) DO UPDATE SET type = EXCLUDED.type, reason = EXCLUDED.reason`,
		r.UserID, r.ProposalID, int(r.Type), r.Reason)
	if err != nil {
		return mapError(err, "insert proposal report")
	}
	return nil
}
