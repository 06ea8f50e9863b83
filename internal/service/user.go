package service

import (
	"context"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const userNotFound = "User not found!"

// UserService reads and removes accounts.
type UserService struct {
	users  store.UserRepository
	places *PlaceService
}

// NewUserService builds a UserService. My-places queries go through places.
func NewUserService(users store.UserRepository, places *PlaceService) *UserService {
	return &UserService{users: users, places: places}
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, userID int64) (store.User, error) {
	return s.FindOne(ctx, userID)
}

// MyPlaces lists the caller's liked, saved or memoed places.
func (s *UserService) MyPlaces(
	ctx context.Context,
	userID int64,
	kind store.CollectionKind,
	page store.Page,
) (store.PageResult[store.Place], error) {
	return s.places.FindMyPlaces(ctx, userID, kind, page)
}

// FindAll pages through accounts.
func (s *UserService) FindAll(ctx context.Context, page store.Page) (store.PageResult[store.User], error) {
	page = page.Normalize()
	users, total, err := s.users.ListUsers(ctx, page)
	if err != nil {
		return store.PageResult[store.User]{}, err
	}
	return store.NewPageResult(users, total, page), nil
}

// FindOne returns an account.
func (s *UserService) FindOne(ctx context.Context, id int64) (store.User, error) {
	u, err := s.users.GetUser(ctx, id)
	return u, translate(err, userNotFound)
}

// Remove deletes an account permanently.
func (s *UserService) Remove(ctx context.Context, id int64) (Deleted[int64], error) {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return Deleted[int64]{}, translate(err, userNotFound)
	}
	return Deleted[int64]{ID: id}, nil
}
