package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

type memLocations struct {
	store.LocationRepository

	existing []store.Location
	created  []store.Location
}

func (m *memLocations) FindLocationByCoordinatesOrName(
	_ context.Context,
	lat, lng float64,
	name string,
) (store.Location, error) {
	for _, l := range m.existing {
		if (l.Latitude == lat && l.Longitude == lng) || l.Name == name {
			return l, nil
		}
	}
	return store.Location{}, store.ErrNotFound
}

func (m *memLocations) CreateLocation(_ context.Context, l store.Location) (store.Location, error) {
	l.ID = int64(len(m.existing) + len(m.created) + 1)
	m.created = append(m.created, l)
	return l, nil
}

func (m *memLocations) GetLocation(_ context.Context, id int64) (store.Location, error) {
	for _, l := range m.existing {
		if l.ID == id {
			return l, nil
		}
	}
	return store.Location{}, store.ErrNotFound
}

func (m *memLocations) ListLocationsWithin(context.Context, store.BoundingBox) ([]store.Location, error) {
	return nil, nil
}

func TestCreateLocationRejectsDuplicates(t *testing.T) {
	t.Parallel()
	repo := &memLocations{existing: []store.Location{{ID: 1, Name: "Shiloh", Latitude: 32.05, Longitude: 35.29}}}
	svc := NewLocationService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, store.Location{Name: "Shiloh", Latitude: 1, Longitude: 1})
	require.Equal(t, "Location already registered.", message(t, err))

	_, err = svc.Create(ctx, store.Location{Name: "Other", Latitude: 32.05, Longitude: 35.29})
	require.Equal(t, "Location already registered.", message(t, err))

	l, err := svc.Create(ctx, store.Location{Name: "Gilgal", Latitude: 31.9, Longitude: 35.5})
	require.NoError(t, err)
	require.Equal(t, int64(2), l.ID)
	require.Len(t, repo.created, 1)
}

func TestFindWithin(t *testing.T) {
	t.Parallel()
	svc := NewLocationService(&memLocations{}, nil)
	ctx := context.Background()

	got, err := svc.FindWithin(ctx, store.BoundingBox{SWLat: 30, SWLng: 170, NELat: 35, NELng: -170})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	_, err = svc.FindWithin(ctx, store.BoundingBox{SWLat: 40, NELat: 30})
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))
}

func TestLocationToggleLikeMissing(t *testing.T) {
	t.Parallel()
	svc := NewLocationService(&memLocations{}, nil)

	_, err := svc.ToggleLike(context.Background(), 1, 42)
	require.Equal(t, "Location does not exist.", message(t, err))
}
