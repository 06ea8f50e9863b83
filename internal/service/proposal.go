package service

import (
	"context"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const (
	proposalNotFound = "Proposal does not exist."
	noPermission     = "No permission."
)

// Agreement is the caller's vote after a toggle; nil means no vote.
type Agreement struct {
	IsAgree *bool `json:"isAgree"`
}

// ProposalService manages proposals and votes.
type ProposalService struct {
	proposals store.ProposalRepository
	places    store.PlaceRepository
}

// NewProposalService builds a ProposalService.
func NewProposalService(proposals store.ProposalRepository, places store.PlaceRepository) *ProposalService {
	return &ProposalService{proposals: proposals, places: places}
}

// Create files a proposal on behalf of creatorID.
func (s *ProposalService) Create(ctx context.Context, p store.Proposal, creatorID int64) (store.Proposal, error) {
	if err := s.checkPlace(ctx, p.Type, p.PlaceID, p.LocationID); err != nil {
		return store.Proposal{}, err
	}
	p.CreatorID = &creatorID
	return s.proposals.CreateProposal(ctx, p)
}

// FindAll pages through open proposals.
func (s *ProposalService) FindAll(ctx context.Context, page store.Page) (store.PageResult[store.Proposal], error) {
	page = page.Normalize()
	proposals, total, err := s.proposals.ListProposals(ctx, page)
	if err != nil {
		return store.PageResult[store.Proposal]{}, err
	}
	return store.NewPageResult(proposals, total, page), nil
}

// FindOne returns an open proposal.
func (s *ProposalService) FindOne(ctx context.Context, id int64) (store.Proposal, error) {
	p, err := s.proposals.GetProposal(ctx, id)
	if err != nil {
		return store.Proposal{}, translate(err, proposalNotFound)
	}
	return p, nil
}

// Update changes a proposal. Only its creator may do so.
func (s *ProposalService) Update(ctx context.Context, id, userID int64, upd store.ProposalPatch) (store.Proposal, error) {
	current, err := s.owned(ctx, id, userID)
	if err != nil {
		return store.Proposal{}, err
	}
	typ := current.Type
	if upd.Type != nil {
		typ = *upd.Type
	}
	placeID := current.PlaceID
	if upd.PlaceID != nil {
		placeID = upd.PlaceID
	}
	if err := s.checkPlace(ctx, typ, placeID, current.LocationID); err != nil {
		return store.Proposal{}, err
	}
	p, err := s.proposals.UpdateProposal(ctx, id, upd)
	if err != nil {
		return store.Proposal{}, translate(err, proposalNotFound)
	}
	return p, nil
}

// Remove deletes a proposal. Only its creator may do so.
func (s *ProposalService) Remove(ctx context.Context, id, userID int64) (Deleted[int64], error) {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return Deleted[int64]{}, err
	}
	if err := s.proposals.DeleteProposal(ctx, id); err != nil {
		return Deleted[int64]{}, translate(err, proposalNotFound)
	}
	return Deleted[int64]{ID: id}, nil
}

// ToggleAgreement records the user's vote. Voting the same way twice
// withdraws the vote.
func (s *ProposalService) ToggleAgreement(ctx context.Context, id, userID int64, agree bool) (Agreement, error) {
	if _, err := s.FindOne(ctx, id); err != nil {
		return Agreement{}, err
	}
	v, err := s.proposals.ToggleAgreement(ctx, id, userID, agree)
	if err != nil {
		return Agreement{}, err
	}
	return Agreement{IsAgree: v}, nil
}

// Report files or replaces the user's report on a proposal.
func (s *ProposalService) Report(ctx context.Context, r store.UserProposalReport) error {
	if _, err := s.FindOne(ctx, r.ProposalID); err != nil {
		return err
	}
	return translate(s.proposals.CreateProposalReport(ctx, r), proposalNotFound)
}

func (s *ProposalService) owned(ctx context.Context, id, userID int64) (store.Proposal, error) {
	p, err := s.FindOne(ctx, id)
	if err != nil {
		return store.Proposal{}, err
	}
	if p.CreatorID == nil || *p.CreatorID != userID {
		return store.Proposal{}, apperr.Unauthorized(noPermission)
	}
	return p, nil
}

// checkPlace enforces that create proposals name no place and that update
// and delete proposals target an existing place or location.
func (s *ProposalService) checkPlace(ctx context.Context, typ store.ProposalType, placeID *string, locationID *int64) error {
	switch typ {
	case store.ProposalCreate:
		if placeID != nil {
			return apperr.BadRequest("Create proposals do not need a place.")
		}
		return nil
	case store.ProposalUpdate, store.ProposalDelete:
		if placeID == nil {
			if locationID == nil {
				return apperr.BadRequest("Update and delete proposals need a place.")
			}
			return nil
		}
	default:
		return apperr.BadRequest("Invalid proposal type.")
	}
	ok, err := s.places.PlaceExists(ctx, *placeID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.BadRequest("Place does not exist.")
	}
	return nil
}
