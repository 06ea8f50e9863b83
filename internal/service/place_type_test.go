package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

type memPlaceTypes struct {
	store.PlaceTypeRepository

	byID map[int64]store.PlaceType
}

func newMemPlaceTypes(names ...string) *memPlaceTypes {
	m := &memPlaceTypes{byID: map[int64]store.PlaceType{}}
	for i, n := range names {
		id := int64(i + 1)
		m.byID[id] = store.PlaceType{ID: id, Name: n}
	}
	return m
}

func (m *memPlaceTypes) FindPlaceTypeByName(_ context.Context, name string) (store.PlaceType, error) {
	for _, t := range m.byID {
		if t.Name == name {
			return t, nil
		}
	}
	return store.PlaceType{}, store.ErrNotFound
}

func (m *memPlaceTypes) CreatePlaceType(_ context.Context, name string) (store.PlaceType, error) {
	id := int64(len(m.byID) + 1)
	m.byID[id] = store.PlaceType{ID: id, Name: name}
	return m.byID[id], nil
}

func (m *memPlaceTypes) GetPlaceType(_ context.Context, id int64) (store.PlaceType, error) {
	t, ok := m.byID[id]
	if !ok {
		return store.PlaceType{}, store.ErrNotFound
	}
	return t, nil
}

func (m *memPlaceTypes) UpdatePlaceType(_ context.Context, id int64, name string) (store.PlaceType, error) {
	m.byID[id] = store.PlaceType{ID: id, Name: name}
	return m.byID[id], nil
}

func TestPlaceTypeLifecycle(t *testing.T) {
	t.Parallel()
	svc := NewPlaceTypeService(newMemPlaceTypes("city", "river"))
	ctx := context.Background()

	_, err := svc.Create(ctx, "city")
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	mountain, err := svc.Create(ctx, "mountain")
	require.NoError(t, err)
	require.Equal(t, int64(3), mountain.ID)

	_, err = svc.FindOne(ctx, 99)
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	_, err = svc.Update(ctx, 1, "city")
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	_, err = svc.Update(ctx, 1, "river")
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	renamed, err := svc.Update(ctx, 1, "town")
	require.NoError(t, err)
	require.Equal(t, "town", renamed.Name)
}
