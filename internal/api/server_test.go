package api

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	queueMemory "github.com/JakeFAU/bible-atlas-api/internal/queue/memory"
	"github.com/JakeFAU/bible-atlas-api/internal/progress/sinks"
	"github.com/JakeFAU/bible-atlas-api/internal/service"
	jobMemory "github.com/JakeFAU/bible-atlas-api/internal/storage/memory"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type apiUsers struct {
	store.UserRepository
	known store.User
}

func (u apiUsers) FindUserByEmail(_ context.Context, email string, _ bool) (store.User, error) {
	if u.known.Email != "" && u.known.Email == email {
		return u.known, nil
	}
	return store.User{}, store.ErrNotFound
}

func (apiUsers) CreateUser(_ context.Context, u store.User) (store.User, error) {
	u.ID = 11
	return u, nil
}

func (apiUsers) GetUser(_ context.Context, id int64) (store.User, error) {
	return store.User{ID: id, Email: "me@example.com", Role: store.RoleUser}, nil
}

type apiPlaces struct {
	store.PlaceRepository
	lastFilter store.PlaceFilter
}

func (p *apiPlaces) ListPlaces(_ context.Context, f store.PlaceFilter) ([]store.Place, int, error) {
	p.lastFilter = f
	return []store.Place{{ID: "bethel", Name: "Bethel", Stereo: store.StereoParent}}, 1, nil
}

type apiLocations struct {
	store.LocationRepository
}

func (apiLocations) ListLocations(context.Context, string, store.Page) ([]store.Location, int, error) {
	return []store.Location{{ID: 1, Name: "Shiloh"}}, 1, nil
}

func (apiLocations) ListLocationsWithin(context.Context, store.BoundingBox) ([]store.Location, error) {
	return []store.Location{{ID: 1, Name: "Shiloh"}}, nil
}

func (apiLocations) GetLocation(_ context.Context, id int64) (store.Location, error) {
	if id != 1 {
		return store.Location{}, store.ErrNotFound
	}
	return store.Location{ID: 1, Name: "Shiloh"}, nil
}

type apiTypes struct {
	store.PlaceTypeRepository
}

type fixedIDs struct{}

func (fixedIDs) NewID() (string, error) { return "job-1", nil }

type harness struct {
	server *Server
	tokens *auth.Tokens
	broker *sinks.Broker
	queue  *queueMemory.Queue
	places *apiPlaces
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	tokens := auth.NewTokens(auth.TokenConfig{AccessSecret: "access", RefreshSecret: "refresh"})
	places := &apiPlaces{}
	q := queueMemory.NewQueue(4)
	broker := sinks.NewBroker(4)
	t.Cleanup(func() { _ = broker.Close(context.Background()) })

	hasher := auth.NewHasher(4)
	hash, err := hasher.Hash("secret")
	require.NoError(t, err)
	users := apiUsers{known: store.User{ID: 5, Email: "old@example.com", Password: hash, Role: store.RoleUser}}

	placeSvc := service.NewPlaceService(service.PlaceDeps{Places: places})
	svc := Services{
		Auth: service.NewAuthService(service.AuthDeps{
			Users:  users,
			Tokens: tokens,
			Hasher: hasher,
		}),
		Location: service.NewLocationService(apiLocations{}, zap.NewNop()),
		Place: placeSvc,
		Scrape: service.NewScrapeService(service.ScrapeDeps{
			Jobs:  jobMemory.NewJobStore(),
			Queue: q,
			IDs:   fixedIDs{},
			Clock: clock.NewFixed(testNow),
		}),
		PlaceType: service.NewPlaceTypeService(apiTypes{}),
		User:      service.NewUserService(users, placeSvc),
	}
	srv := NewServer(svc, tokens, broker, clock.NewFixed(testNow), opts, zap.NewNop())
	return &harness{server: srv, tokens: tokens, broker: broker, queue: q, places: places}
}

func (h *harness) bearer(t *testing.T, role store.Role) string {
	t.Helper()
	pair, err := h.tokens.IssuePair(1, role)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	rec := h.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","timestamp":"2024-01-01T00:00:00Z"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})
	id := "3f2b8c1e-7a4d-4e9b-9c3a-1d2e3f4a5b6c"

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec := h.do(req)
	require.Equal(t, id, rec.Header().Get("X-Request-ID"))
}

func TestRoleGates(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	rec := h.do(httptest.NewRequest(http.MethodGet, "/user/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", errorBody(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/place-type", strings.NewReader(`{"name":"city"}`))
	req.Header.Set("Authorization", h.bearer(t, store.RoleUser))
	rec = h.do(req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/user/me", nil)
	req.Header.Set("Authorization", h.bearer(t, store.RoleUser))
	rec = h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "me@example.com")
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/place", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	req.SetBasicAuth("new@example.com", "secret")
	rec := h.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"id":11`)
	require.NotContains(t, rec.Body.String(), "secret")
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	req.SetBasicAuth("old@example.com", "secret")
	rec := h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "This email is already in use.", errorBody(t, rec))
}

func TestLoginWithBasicCredentials(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.SetBasicAuth("old@example.com", "secret")
	rec := h.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res service.LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, int64(5), res.User.ID)
	require.NotEmpty(t, res.AuthData.AccessToken)
	require.False(t, res.Recovered)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.SetBasicAuth("old@example.com", "wrong")
	rec = h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid login credentials.", errorBody(t, rec))
}

func TestPublicLocationReadsIgnoreAuthorization(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	for _, target := range []string{
		"/location",
		"/location/within?swLatitude=30&swLongitude=34&neLatitude=33&neLongitude=36",
		"/location/1",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Token abc")
		rec := h.do(req)
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Contains(t, rec.Body.String(), "Shiloh", target)
	}

	req := httptest.NewRequest(http.MethodPost, "/location/1/like", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid token format!", errorBody(t, rec))

	rec = h.do(httptest.NewRequest(http.MethodPost, "/location/1/like", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListPlacesParsesFilter(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	rec := h.do(httptest.NewRequest(http.MethodGet,
		"/place?name=beth&stereo=child&sort=like&bibleBook=gen&placeTypes=city,river&placeTypes=mountain&page=2&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res store.PageResult[store.Place]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 1, res.Total)
	require.Equal(t, 2, res.Page)
	require.Equal(t, 5, res.Limit)

	f := h.places.lastFilter
	require.Equal(t, "beth", f.Name)
	require.Equal(t, store.StereoChild, f.Stereo)
	require.Equal(t, store.SortLike, f.Sort)
	require.Equal(t, "Gen", f.BibleBook)
	require.Equal(t, []string{"city", "river", "mountain"}, f.PlaceTypes)
}

func TestListPlacesRejectsBadQuery(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	rec := h.do(httptest.NewRequest(http.MethodGet, "/place?sort=sideways", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "sort must be asc, desc or like", errorBody(t, rec))

	rec = h.do(httptest.NewRequest(http.MethodGet, "/place?page=two", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})
	super := h.bearer(t, store.RoleSuper)

	req := httptest.NewRequest(http.MethodPost, "/place-type", strings.NewReader(`{}`))
	req.Header.Set("Authorization", super)
	rec := h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "name failed required", errorBody(t, rec))

	req = httptest.NewRequest(http.MethodPost, "/place-type", strings.NewReader(`{"name":`))
	req.Header.Set("Authorization", super)
	rec = h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid JSON body.", errorBody(t, rec))
}

func TestScrapeEnqueues(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/place/scrap?page=3", nil)
	req.Header.Set("Authorization", h.bearer(t, store.RoleSuper))
	rec := h.do(req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, `{"jobId":"job-1"}`, rec.Body.String())
	require.Equal(t, 1, h.queue.Len())

	req = httptest.NewRequest(http.MethodGet, "/place/scrap/jobs/job-1", nil)
	req.Header.Set("Authorization", h.bearer(t, store.RoleSuper))
	rec = h.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"queued"`)

	req = httptest.NewRequest(http.MethodGet, "/place/scrap/jobs?status=bogus", nil)
	req.Header.Set("Authorization", h.bearer(t, store.RoleSuper))
	rec = h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeDefaultsToFirstPage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/place/scrap", nil)
	req.Header.Set("Authorization", h.bearer(t, store.RoleSuper))
	rec := h.do(req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	item, err := h.queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, item.Page)
	require.Equal(t, int64(1), item.UserID)

	req = httptest.NewRequest(http.MethodPost, "/place/scrap?page=-1", nil)
	req.Header.Set("Authorization", h.bearer(t, store.RoleSuper))
	rec = h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "page must not be negative", errorBody(t, rec))
}

func TestProgressStreamSkipsTimeout(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{RequestTimeout: 20 * time.Millisecond, Heartbeat: time.Hour})
	ts := httptest.NewServer(h.server.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/place/progress/7", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.broker.Subscribers(7) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	h.broker.Push(7, sinks.Update{Progress: 42.5})

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "data: {\"progress\":42.5}\n", line)

	cancel()
	require.Eventually(t, func() bool { return h.broker.Subscribers(7) == 0 }, time.Second, 5*time.Millisecond)
}

func TestProgressStreamBadUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t, Options{})

	rec := h.do(httptest.NewRequest(http.MethodGet, "/place/progress/abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimeoutAppliesToRegularRoutes(t *testing.T) {
	t.Parallel()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "late"})
	})
	h := timeoutMiddleware(10*time.Millisecond, nil)(slow)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.True(t, bytes.Contains(rec.Body.Bytes(), []byte("Request timed out")))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := recoverMiddleware(zap.NewNop())(boom)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server error", errorBody(t, rec))
}
