package service

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// memUsers is an in-memory UserRepository covering the calls the auth and
// user services make.
type memUsers struct {
	store.UserRepository

	mu        sync.Mutex
	nextID    int64
	byID      map[int64]store.User
	restored  []int64
	withdrawn []int64
}

func newMemUsers(seed ...store.User) *memUsers {
	m := &memUsers{byID: map[int64]store.User{}}
	for _, u := range seed {
		m.byID[u.ID] = u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *memUsers) CreateUser(_ context.Context, u store.User) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUser(_ context.Context, id int64) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || u.Deleted() {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) FindUserByEmail(_ context.Context, email string, withDeleted bool) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email && (withDeleted || !u.Deleted()) {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (m *memUsers) FindUserByProvider(
	_ context.Context,
	provider store.Provider,
	providerID string,
	withDeleted bool,
) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Provider == provider && u.ProviderID == providerID && (withDeleted || !u.Deleted()) {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (m *memUsers) RestoreUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.DeletedAt = nil
	m.byID[id] = u
	m.restored = append(m.restored, id)
	return nil
}

func (m *memUsers) WithdrawUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	now := time.Now()
	u.DeletedAt = &now
	m.byID[id] = u
	m.withdrawn = append(m.withdrawn, id)
	return nil
}

// stubPlaces answers PlaceRepository calls from canned values.
type stubPlaces struct {
	store.PlaceRepository

	exists     map[string]bool
	detail     store.PlaceDetail
	detailErr  error
	state      store.PlaceUserState
	candidates []store.Place
	prefixes   []store.PrefixCount
	books      map[string]int
	createErr  error

	mu          sync.Mutex
	prefixCalls int
	liked       bool
}

func (s *stubPlaces) PlaceExists(_ context.Context, id string) (bool, error) {
	return s.exists[id], nil
}

func (s *stubPlaces) GetPlaceDetail(_ context.Context, id string) (store.PlaceDetail, error) {
	if s.detailErr != nil {
		return store.PlaceDetail{}, s.detailErr
	}
	d := s.detail
	d.ID = id
	return d, nil
}

func (s *stubPlaces) UserPlaceState(context.Context, int64, string) (store.PlaceUserState, error) {
	return s.state, nil
}

func (s *stubPlaces) ListRepPointCandidates(context.Context) ([]store.Place, error) {
	return s.candidates, nil
}

func (s *stubPlaces) PrefixCounts(context.Context) ([]store.PrefixCount, error) {
	s.mu.Lock()
	s.prefixCalls++
	s.mu.Unlock()
	return s.prefixes, nil
}

func (s *stubPlaces) BibleBookCounts(_ context.Context, _ []string) (map[string]int, error) {
	return s.books, nil
}

func (s *stubPlaces) CreatePlace(_ context.Context, p store.Place, _ []int64) (store.Place, error) {
	return p, s.createErr
}

func (s *stubPlaces) ToggleLike(context.Context, int64, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liked = !s.liked
	return s.liked, nil
}
