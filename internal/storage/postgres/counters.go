package postgres

import (
	"context"
	"fmt"
)

// SyncProposalCounts recomputes agree and disagree counts from the votes.
func (s *Store) SyncProposalCounts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE proposal pr SET
			agree_count = (SELECT count(*) FROM proposal_agreement pa WHERE pa.proposal_id = pr.id AND pa.is_agree),
			disagree_count = (SELECT count(*) FROM proposal_agreement pa WHERE pa.proposal_id = pr.id AND NOT pa.is_agree)`)
	if err != nil {
		return 0, fmt.Errorf("sync proposal counts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SyncLocationLikeCounts recomputes location like counts.
func (s *Store) SyncLocationLikeCounts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE location l SET
			like_count = (SELECT count(*) FROM user_location_like ull WHERE ull.location_id = l.id)`)
	if err != nil {
		return 0, fmt.Errorf("sync location like counts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SyncPlaceLikeCounts recomputes place like counts from live users.
func (s *Store) SyncPlaceLikeCounts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE place p SET
			like_count = (SELECT count(*) FROM user_place_like upl
				JOIN users u ON u.id = upl.user_id
				WHERE upl.place_id = p.id AND u.deleted_at IS NULL)`)
	if err != nil {
		return 0, fmt.Errorf("sync place like counts: %w", err)
	}
	return tag.RowsAffected(), nil
}
