package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const locationNotFound = "Location does not exist."

// LocationService manages user-contributed locations.
type LocationService struct {
	locations store.LocationRepository
	logger    *zap.Logger
}

// NewLocationService builds a LocationService.
func NewLocationService(locations store.LocationRepository, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{locations: locations, logger: logger.Named("location")}
}

// FindAll pages through locations whose name contains query.
func (s *LocationService) FindAll(ctx context.Context, query string, page store.Page) (store.PageResult[store.Location], error) {
	page = page.Normalize()
	locations, total, err := s.locations.ListLocations(ctx, query, page)
	if err != nil {
		return store.PageResult[store.Location]{}, err
	}
	return store.NewPageResult(locations, total, page), nil
}

// FindWithin returns the locations inside box.
func (s *LocationService) FindWithin(ctx context.Context, box store.BoundingBox) ([]store.Location, error) {
	if box.SWLat > box.NELat {
		return nil, apperr.BadRequest("South-west latitude must not exceed north-east latitude.")
	}
	locations, err := s.locations.ListLocationsWithin(ctx, box)
	if err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []store.Location{}
	}
	return locations, nil
}

// FindOne returns a location.
func (s *LocationService) FindOne(ctx context.Context, id int64) (store.Location, error) {
	l, err := s.locations.GetLocation(ctx, id)
	if err != nil {
		return store.Location{}, translate(err, locationNotFound)
	}
	return l, nil
}

// ToggleLike likes or unlikes a location.
func (s *LocationService) ToggleLike(ctx context.Context, userID, id int64) (Liked, error) {
	if _, err := s.FindOne(ctx, id); err != nil {
		return Liked{}, err
	}
	liked, err := s.locations.ToggleLocationLike(ctx, userID, id)
	if err != nil {
		return Liked{}, err
	}
	return Liked{Liked: liked}, nil
}

// ToggleSave bookmarks or unbookmarks a location.
func (s *LocationService) ToggleSave(ctx context.Context, userID, id int64) (Saved, error) {
	if _, err := s.FindOne(ctx, id); err != nil {
		return Saved{}, err
	}
	saved, err := s.locations.ToggleLocationSave(ctx, userID, id)
	if err != nil {
		return Saved{}, err
	}
	return Saved{Saved: saved}, nil
}

// Report flags a location.
func (s *LocationService) Report(ctx context.Context, r store.UserLocationReport) (store.UserLocationReport, error) {
	if _, err := s.FindOne(ctx, r.LocationID); err != nil {
		return store.UserLocationReport{}, err
	}
	out, err := s.locations.CreateLocationReport(ctx, r)
	if err != nil {
		return store.UserLocationReport{}, translate(err, locationNotFound)
	}
	return out, nil
}

// Create registers a location unless one already exists at the same
// coordinates or with the same name.
func (s *LocationService) Create(ctx context.Context, l store.Location) (store.Location, error) {
	_, err := s.locations.FindLocationByCoordinatesOrName(ctx, l.Latitude, l.Longitude, l.Name)
	switch {
	case err == nil:
		return store.Location{}, apperr.BadRequest("Location already registered.")
	case !errors.Is(err, store.ErrNotFound):
		return store.Location{}, err
	}
	created, err := s.locations.CreateLocation(ctx, l)
	if errors.Is(err, store.ErrConflict) {
		return store.Location{}, apperr.BadRequest("Location already registered.")
	}
	return created, err
}

// Update changes a location.
func (s *LocationService) Update(ctx context.Context, id int64, upd store.LocationUpdate) (store.Location, error) {
	l, err := s.locations.UpdateLocation(ctx, id, upd)
	if err != nil {
		return store.Location{}, translate(err, locationNotFound)
	}
	return l, nil
}

// Remove deletes a location.
func (s *LocationService) Remove(ctx context.Context, id int64) (Deleted[int64], error) {
	if err := s.locations.DeleteLocation(ctx, id); err != nil {
		return Deleted[int64]{}, translate(err, locationNotFound)
	}
	return Deleted[int64]{ID: id}, nil
}

// ApplyProposal carries out an approved proposal.
func (s *LocationService) ApplyProposal(ctx context.Context, proposalID int64) (store.Location, error) {
	l, err := s.locations.ApplyProposal(ctx, proposalID)
	switch {
	case errors.Is(err, store.ErrInvalidReference):
		return store.Location{}, apperr.BadRequest("Invalid proposal type.")
	case err != nil:
		return store.Location{}, translate(err, proposalNotFound)
	}
	s.logger.Info("proposal applied", zap.Int64("proposal_id", proposalID), zap.Int64("location_id", l.ID))
	return l, nil
}
