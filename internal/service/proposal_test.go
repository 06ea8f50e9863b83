package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

type memProposals struct {
	store.ProposalRepository

	byID    map[int64]store.Proposal
	votes   map[int64]bool
	deleted []int64
}

func newMemProposals(seed ...store.Proposal) *memProposals {
	m := &memProposals{byID: map[int64]store.Proposal{}, votes: map[int64]bool{}}
	for _, p := range seed {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProposals) CreateProposal(_ context.Context, p store.Proposal) (store.Proposal, error) {
	p.ID = int64(len(m.byID) + 1)
	m.byID[p.ID] = p
	return p, nil
}

func (m *memProposals) GetProposal(_ context.Context, id int64) (store.Proposal, error) {
	p, ok := m.byID[id]
	if !ok {
		return store.Proposal{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memProposals) DeleteProposal(_ context.Context, id int64) error {
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memProposals) ToggleAgreement(_ context.Context, _, userID int64, agree bool) (*bool, error) {
	if cur, ok := m.votes[userID]; ok && cur == agree {
		delete(m.votes, userID)
		return nil, nil
	}
	m.votes[userID] = agree
	return &agree, nil
}

func message(t *testing.T, err error) string {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected an apperr, got %v", err)
	return e.Message
}

func TestCreateProposalPlaceRules(t *testing.T) {
	t.Parallel()
	places := &stubPlaces{exists: map[string]bool{"bethel": true}}
	svc := NewProposalService(newMemProposals(), places)
	ctx := context.Background()

	_, err := svc.Create(ctx, store.Proposal{Type: store.ProposalCreate, PlaceID: ptr("bethel")}, 1)
	require.Equal(t, "Create proposals do not need a place.", message(t, err))

	_, err = svc.Create(ctx, store.Proposal{Type: store.ProposalUpdate, PlaceID: ptr("nowhere")}, 1)
	require.Equal(t, "Place does not exist.", message(t, err))

	p, err := svc.Create(ctx, store.Proposal{Type: store.ProposalUpdate, PlaceID: ptr("bethel")}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), *p.CreatorID)
}

func TestProposalOwnership(t *testing.T) {
	t.Parallel()
	owner := int64(5)
	proposals := newMemProposals(store.Proposal{ID: 9, Type: store.ProposalCreate, CreatorID: &owner})
	svc := NewProposalService(proposals, &stubPlaces{})
	ctx := context.Background()

	_, err := svc.Remove(ctx, 9, 6)
	require.Equal(t, "No permission.", message(t, err))
	require.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	res, err := svc.Remove(ctx, 9, owner)
	require.NoError(t, err)
	require.Equal(t, int64(9), res.ID)

	_, err = svc.Remove(ctx, 9, owner)
	require.Equal(t, "Proposal does not exist.", message(t, err))
}

func TestToggleAgreement(t *testing.T) {
	t.Parallel()
	svc := NewProposalService(newMemProposals(store.Proposal{ID: 1}), &stubPlaces{})
	ctx := context.Background()

	first, err := svc.ToggleAgreement(ctx, 1, 3, true)
	require.NoError(t, err)
	require.True(t, *first.IsAgree)

	flipped, err := svc.ToggleAgreement(ctx, 1, 3, false)
	require.NoError(t, err)
	require.False(t, *flipped.IsAgree)

	cleared, err := svc.ToggleAgreement(ctx, 1, 3, false)
	require.NoError(t, err)
	require.Nil(t, cleared.IsAgree)

	_, err = svc.ToggleAgreement(ctx, 2, 3, true)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
