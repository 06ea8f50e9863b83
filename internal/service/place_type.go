package service

import (
	"context"
	"errors"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const (
	placeTypeNotFound  = "Place type does not exist."
	placeTypeDuplicate = "A place type with this name already exists."
)

// PlaceTypeService manages place categories.
type PlaceTypeService struct {
	types store.PlaceTypeRepository
}

// NewPlaceTypeService builds a PlaceTypeService.
func NewPlaceTypeService(types store.PlaceTypeRepository) *PlaceTypeService {
	return &PlaceTypeService{types: types}
}

// Create adds a place type.
func (s *PlaceTypeService) Create(ctx context.Context, name string) (store.PlaceType, error) {
	if err := s.ensureFree(ctx, name); err != nil {
		return store.PlaceType{}, err
	}
	t, err := s.types.CreatePlaceType(ctx, name)
	if errors.Is(err, store.ErrConflict) {
		return store.PlaceType{}, apperr.BadRequest(placeTypeDuplicate)
	}
	return t, err
}

// FindAll pages through place types with their non-modern place counts.
func (s *PlaceTypeService) FindAll(ctx context.Context, page store.Page) (store.PageResult[store.PlaceTypeCount], error) {
	page = page.Normalize()
	list, total, err := s.types.ListPlaceTypes(ctx, page)
	if err != nil {
		return store.PageResult[store.PlaceTypeCount]{}, err
	}
	return store.NewPageResult(list, total, page), nil
}

// FindOne returns one place type. A missing type is a bad request.
func (s *PlaceTypeService) FindOne(ctx context.Context, id int64) (store.PlaceType, error) {
	t, err := s.types.GetPlaceType(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.PlaceType{}, apperr.BadRequest(placeTypeNotFound)
	}
	return t, err
}

// Update renames a place type. Renaming to the current or another taken
// name is rejected.
func (s *PlaceTypeService) Update(ctx context.Context, id int64, name string) (store.PlaceType, error) {
	current, err := s.FindOne(ctx, id)
	if err != nil {
		return store.PlaceType{}, err
	}
	if current.Name == name {
		return store.PlaceType{}, apperr.BadRequest("The new name is the same as the current one.")
	}
	if err := s.ensureFree(ctx, name); err != nil {
		return store.PlaceType{}, err
	}
	t, err := s.types.UpdatePlaceType(ctx, id, name)
	switch {
	case errors.Is(err, store.ErrConflict):
		return store.PlaceType{}, apperr.BadRequest(placeTypeDuplicate)
	case errors.Is(err, store.ErrNotFound):
		return store.PlaceType{}, apperr.BadRequest(placeTypeNotFound)
	}
	return t, err
}

// Remove deletes a place type.
func (s *PlaceTypeService) Remove(ctx context.Context, id int64) (Deleted[int64], error) {
	err := s.types.DeletePlaceType(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Deleted[int64]{}, apperr.BadRequest(placeTypeNotFound)
	case err != nil:
		return Deleted[int64]{}, err
	}
	return Deleted[int64]{ID: id}, nil
}

func (s *PlaceTypeService) ensureFree(ctx context.Context, name string) error {
	_, err := s.types.FindPlaceTypeByName(ctx, name)
	switch {
	case err == nil:
		return apperr.BadRequest(placeTypeDuplicate)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}
