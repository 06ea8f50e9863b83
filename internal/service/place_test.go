package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/bible"
	"github.com/JakeFAU/bible-atlas-api/internal/cache"
	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

type staticGeo struct {
	body []byte
	err  error
}

func (s staticGeo) Get(context.Context, string, http.Header) (*httpx.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Body: s.body}, nil
}

type stubVerses struct {
	text  string
	err   error
	calls int
}

func (s *stubVerses) Verse(context.Context, bible.Version, string, int, int) (string, error) {
	s.calls++
	return s.text, s.err
}

func ptr[T any](v T) *T { return &v }

func at(lat, lng float64) store.Place {
	return store.Place{Latitude: ptr(lat), Longitude: ptr(lng)}
}

func TestSpreadPoints(t *testing.T) {
	t.Parallel()
	a := at(31.0, 35.0)
	a.ID = "a"
	b := at(31.05, 35.05) // within 0.1 of a on both axes
	b.ID = "b"
	c := at(31.05, 35.5) // near a in latitude only
	c.ID = "c"
	d := store.Place{ID: "d"}

	got := SpreadPoints([]store.Place{a, b, c, d}, 0.1)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"a", "c"}, ids)
}

func TestFindRepPointsEnvelope(t *testing.T) {
	t.Parallel()
	svc := NewPlaceService(PlaceDeps{Places: &stubPlaces{candidates: []store.Place{at(1, 1), at(5, 5)}}})

	res, err := svc.FindRepPoints(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Equal(t, -1, res.Page)
	require.Equal(t, -1, res.Limit)
}

func TestCreatePlaceErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := NewPlaceService(PlaceDeps{Places: &stubPlaces{createErr: store.ErrInvalidReference}})
	_, err := svc.Create(ctx, store.Place{ID: "bethel"}, []int64{9})
	e, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "Invalid place type ids.", e.Message)

	svc = NewPlaceService(PlaceDeps{Places: &stubPlaces{createErr: store.ErrConflict}})
	_, err = svc.Create(ctx, store.Place{ID: "bethel"}, nil)
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestFindOneWithUserState(t *testing.T) {
	t.Parallel()
	memo := &store.Memo{Text: "visited"}
	svc := NewPlaceService(PlaceDeps{Places: &stubPlaces{state: store.PlaceUserState{Liked: true, Memo: memo}}})

	anon, err := svc.FindOne(context.Background(), "bethel", nil)
	require.NoError(t, err)
	require.Nil(t, anon.IsLiked)

	uid := int64(7)
	mine, err := svc.FindOne(context.Background(), "bethel", &uid)
	require.NoError(t, err)
	require.True(t, *mine.IsLiked)
	require.False(t, *mine.IsSaved)
	require.Equal(t, "visited", mine.Memo.Text)
}

func TestFindOneMissing(t *testing.T) {
	t.Parallel()
	svc := NewPlaceService(PlaceDeps{Places: &stubPlaces{detailErr: store.ErrNotFound}})

	_, err := svc.FindOne(context.Background(), "nowhere", nil)
	e, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "place not found", e.Message)
}

func TestToggleLikeRequiresPlace(t *testing.T) {
	t.Parallel()
	svc := NewPlaceService(PlaceDeps{Places: &stubPlaces{exists: map[string]bool{"bethel": true}}})
	ctx := context.Background()

	res, err := svc.ToggleLike(ctx, 1, "bethel")
	require.NoError(t, err)
	require.True(t, res.Liked)

	_, err = svc.ToggleLike(ctx, 1, "nowhere")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestFindGeoJSONMarksRelations(t *testing.T) {
	t.Parallel()
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"id":"jordan.1"}},
		{"type":"Feature","properties":{"id":"dan"}},
		{"type":"Feature","properties":{"id":"other"}}
	]}`
	places := &stubPlaces{detail: store.PlaceDetail{
		ParentRelations: []store.RelatedPlace{{Possibility: ptr(80), Place: store.Place{ID: "jordan"}}},
		ChildRelations:  []store.RelatedPlace{{Possibility: ptr(30), Place: store.Place{ID: "dan"}}},
	}}
	svc := NewPlaceService(PlaceDeps{Places: places, GeoJSON: staticGeo{body: []byte(doc)}})

	got, err := svc.FindGeoJSON(context.Background(), "bethel")
	require.NoError(t, err)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	var parsed struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	require.Len(t, parsed.Features, 3)
	require.Equal(t, true, parsed.Features[0].Properties["isParent"])
	require.EqualValues(t, 80, parsed.Features[0].Properties["possibility"])
	require.Equal(t, false, parsed.Features[1].Properties["isParent"])
	require.EqualValues(t, 30, parsed.Features[1].Properties["possibility"])
	require.NotContains(t, parsed.Features[2].Properties, "isParent")
}

func TestFindGeoJSONFetchFailure(t *testing.T) {
	t.Parallel()
	svc := NewPlaceService(PlaceDeps{
		Places:  &stubPlaces{},
		GeoJSON: staticGeo{err: &httpx.StatusError{URL: "x", Code: 404}},
	})

	_, err := svc.FindGeoJSON(context.Background(), "bethel")
	e, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "GeoJSON not found", e.Message)
}

func TestPrefixCountsCached(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	rc := cache.NewRedis(cache.Options{Addr: mr.Addr(), Prefix: "test:"})
	t.Cleanup(func() { _ = rc.Close() })

	places := &stubPlaces{prefixes: []store.PrefixCount{{Prefix: "a", PlaceCount: 3}, {Prefix: "b", PlaceCount: 0}}}
	svc := NewPlaceService(PlaceDeps{Places: places, Cache: rc, CacheTTL: time.Minute})
	ctx := context.Background()

	first, err := svc.PrefixCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.Total)

	second, err := svc.PrefixCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, places.prefixCalls)

	svc.InvalidateCounts(ctx)
	_, err = svc.PrefixCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, places.prefixCalls)
}

func TestBibleBookCountsSkipsEmpty(t *testing.T) {
	t.Parallel()
	svc := NewPlaceService(PlaceDeps{Places: &stubPlaces{books: map[string]int{"Exod": 4, "Gen": 12, "Lev": 0}}})

	got, err := svc.BibleBookCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, Counts[BibleCount]{
		Total: 2,
		Data:  []BibleCount{{Bible: "Gen", PlaceCount: 12}, {Bible: "Exod", PlaceCount: 4}},
	}, got)
}

func TestBibleVerse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	verses := &stubVerses{text: "In the beginning"}
	svc := NewPlaceService(PlaceDeps{Places: &stubPlaces{}, Verses: verses})
	got, err := svc.BibleVerse(ctx, VerseQuery{Version: bible.Version("kjv"), Book: "Gen", Chapter: 1, Verse: 1})
	require.NoError(t, err)
	require.Equal(t, "In the beginning", got.Text)

	_, err = svc.BibleVerse(ctx, VerseQuery{Book: "Nope", Chapter: 1, Verse: 1})
	require.True(t, apperr.IsKind(err, apperr.KindBadRequest))

	failing := NewPlaceService(PlaceDeps{Places: &stubPlaces{}, Verses: &stubVerses{err: errors.New("down")}})
	_, err = failing.BibleVerse(ctx, VerseQuery{Book: "Gen", Chapter: 1, Verse: 1})
	e, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "Failed to fetch bible verse from web", e.Message)
}
