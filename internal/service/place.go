package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/bible"
	"github.com/JakeFAU/bible-atlas-api/internal/cache"
	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const (
	placeNotFound = "place not found"

	prefixCountKey = "place:prefix-count"
	bibleCountKey  = "place:bible-count"

	// repPointSpacing is the minimum latitude and longitude gap, in degrees,
	// between two representative points.
	repPointSpacing = 0.1
)

// GeoJSONSource fetches GeoJSON documents.
type GeoJSONSource interface {
	Get(ctx context.Context, url string, header http.Header) (*httpx.Response, error)
}

// VerseSource looks up verse text.
type VerseSource interface {
	Verse(ctx context.Context, version bible.Version, book string, chapter, verse int) (string, error)
}

// Counts is a list with its length.
type Counts[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

// BibleCount is the number of places citing one book.
type BibleCount struct {
	Bible      string `json:"bible"`
	PlaceCount int    `json:"placeCount"`
}

// VerseText is the text of one verse.
type VerseText struct {
	Text string `json:"text"`
}

// VerseQuery selects one verse.
type VerseQuery struct {
	Version bible.Version
	Book    string
	Chapter int
	Verse   int
}

// PlaceService serves places, user collections and atlas lookups.
type PlaceService struct {
	places   store.PlaceRepository
	geo      GeoJSONSource
	geoBase  string
	verses   VerseSource
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// PlaceDeps are the collaborators of a PlaceService.
type PlaceDeps struct {
	Places     store.PlaceRepository
	GeoJSON    GeoJSONSource
	GeoBaseURL string
	Verses     VerseSource
	Cache      cache.Cache
	CacheTTL   time.Duration
	Logger     *zap.Logger
}

// NewPlaceService builds a PlaceService. A nil cache disables caching.
func NewPlaceService(d PlaceDeps) *PlaceService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := d.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &PlaceService{
		places:   d.Places,
		geo:      d.GeoJSON,
		geoBase:  strings.TrimRight(d.GeoBaseURL, "/"),
		verses:   d.Verses,
		cache:    c,
		cacheTTL: d.CacheTTL,
		logger:   logger.Named("place"),
	}
}

// Create inserts a place with its types.
func (s *PlaceService) Create(ctx context.Context, p store.Place, typeIDs []int64) (store.Place, error) {
	created, err := s.places.CreatePlace(ctx, p, typeIDs)
	switch {
	case errors.Is(err, store.ErrInvalidReference):
		return store.Place{}, apperr.BadRequest("Invalid place type ids.")
	case errors.Is(err, store.ErrConflict):
		return store.Place{}, apperr.Conflict("A place with this name already exists.")
	case err != nil:
		return store.Place{}, err
	}
	s.InvalidateCounts(ctx)
	return created, nil
}

// FindAll lists places matching f.
func (s *PlaceService) FindAll(ctx context.Context, f store.PlaceFilter) (store.PageResult[store.Place], error) {
	f.Page = f.Page.Normalize()
	places, total, err := s.places.ListPlaces(ctx, f)
	if err != nil {
		return store.PageResult[store.Place]{}, err
	}
	return store.NewPageResult(places, total, f.Page), nil
}

// FindRepPoints returns non-modern places to draw on the overview map. Places
// are taken most liked first and a place is dropped when a kept one lies
// within repPointSpacing on both axes.
func (s *PlaceService) FindRepPoints(ctx context.Context) (store.PageResult[store.Place], error) {
	candidates, err := s.places.ListRepPointCandidates(ctx)
	if err != nil {
		return store.PageResult[store.Place]{}, err
	}
	kept := SpreadPoints(candidates, repPointSpacing)
	return store.NewPageResult(kept, len(kept), store.Page{Page: -1, Limit: -1}), nil
}

// SpreadPoints greedily keeps places in order, skipping any place closer
// than spacing in both latitude and longitude to one already kept. Places
// without coordinates are skipped.
func SpreadPoints(places []store.Place, spacing float64) []store.Place {
	kept := []store.Place{}
	for _, p := range places {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		near := false
		for _, k := range kept {
			if math.Abs(*k.Latitude-*p.Latitude) < spacing && math.Abs(*k.Longitude-*p.Longitude) < spacing {
				near = true
				break
			}
		}
		if !near {
			kept = append(kept, p)
		}
	}
	return kept
}

// FindMyPlaces lists a user's liked, saved or memoed places.
func (s *PlaceService) FindMyPlaces(
	ctx context.Context,
	userID int64,
	kind store.CollectionKind,
	page store.Page,
) (store.PageResult[store.Place], error) {
	if kind == "" {
		kind = store.CollectionLike
	}
	page = page.Normalize()
	places, total, err := s.places.ListUserPlaces(ctx, userID, kind, page)
	if err != nil {
		return store.PageResult[store.Place]{}, err
	}
	return store.NewPageResult(places, total, page), nil
}

// FindMyCollectionIDs returns the ids in each of the user's collections.
func (s *PlaceService) FindMyCollectionIDs(ctx context.Context, userID int64) (store.CollectionIDs, error) {
	ids, err := s.places.UserCollectionIDs(ctx, userID)
	if err != nil {
		return store.CollectionIDs{}, err
	}
	for _, list := range []*[]string{&ids.Liked, &ids.Bookmarked, &ids.Memoed} {
		if *list == nil {
			*list = []string{}
		}
	}
	return ids, nil
}

// FindOne returns a place with its relations. When userID is set the
// caller's like, bookmark and memo are included.
func (s *PlaceService) FindOne(ctx context.Context, id string, userID *int64) (store.PlaceDetail, error) {
	detail, err := s.places.GetPlaceDetail(ctx, id)
	if err != nil {
		return store.PlaceDetail{}, translate(err, placeNotFound)
	}
	if userID == nil {
		return detail, nil
	}
	state, err := s.places.UserPlaceState(ctx, *userID, id)
	if err != nil {
		return store.PlaceDetail{}, err
	}
	detail.IsLiked = &state.Liked
	detail.IsSaved = &state.Saved
	detail.Memo = state.Memo
	return detail, nil
}

// Update changes a place.
func (s *PlaceService) Update(ctx context.Context, id string, upd store.PlaceUpdate) (store.Place, error) {
	p, err := s.places.UpdatePlace(ctx, id, upd)
	switch {
	case errors.Is(err, store.ErrInvalidReference):
		return store.Place{}, apperr.BadRequest("Invalid place type ids.")
	case errors.Is(err, store.ErrConflict):
		return store.Place{}, apperr.Conflict("A place with this name already exists.")
	case err != nil:
		return store.Place{}, translate(err, placeNotFound)
	}
	s.InvalidateCounts(ctx)
	return p, nil
}

// Remove deletes a place.
func (s *PlaceService) Remove(ctx context.Context, id string) (Deleted[string], error) {
	if err := s.places.DeletePlace(ctx, id); err != nil {
		return Deleted[string]{}, translate(err, placeNotFound)
	}
	s.InvalidateCounts(ctx)
	return Deleted[string]{ID: id}, nil
}

// Liked is the result of a like toggle.
type Liked struct {
	Liked bool `json:"liked"`
}

// Saved is the result of a bookmark toggle.
type Saved struct {
	Saved bool `json:"saved"`
}

// ToggleLike likes or unlikes a place.
func (s *PlaceService) ToggleLike(ctx context.Context, userID int64, id string) (Liked, error) {
	if err := s.mustExist(ctx, id); err != nil {
		return Liked{}, err
	}
	liked, err := s.places.ToggleLike(ctx, userID, id)
	if err != nil {
		return Liked{}, err
	}
	return Liked{Liked: liked}, nil
}

// ToggleSave bookmarks or unbookmarks a place.
func (s *PlaceService) ToggleSave(ctx context.Context, userID int64, id string) (Saved, error) {
	if err := s.mustExist(ctx, id); err != nil {
		return Saved{}, err
	}
	saved, err := s.places.ToggleSave(ctx, userID, id)
	if err != nil {
		return Saved{}, err
	}
	return Saved{Saved: saved}, nil
}

// UpsertMemo writes the user's memo on a place.
func (s *PlaceService) UpsertMemo(ctx context.Context, userID int64, id, text string) (store.Memo, error) {
	if err := s.mustExist(ctx, id); err != nil {
		return store.Memo{}, err
	}
	return s.places.UpsertMemo(ctx, userID, id, text)
}

// MemoDeleted is the response of a memo delete.
type MemoDeleted struct {
	Memo string `json:"memo"`
}

// DeleteMemo removes the user's memo on a place.
func (s *PlaceService) DeleteMemo(ctx context.Context, userID int64, id string) (MemoDeleted, error) {
	if err := s.places.DeleteMemo(ctx, userID, id); err != nil {
		return MemoDeleted{}, translate(err, "memo not found")
	}
	return MemoDeleted{Memo: "deleted"}, nil
}

func (s *PlaceService) mustExist(ctx context.Context, id string) error {
	ok, err := s.places.PlaceExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(placeNotFound)
	}
	return nil
}

// FindGeoJSON returns the place's GeoJSON with related features marked.
// A feature whose properties.id (up to the first '.') names a parent of
// the place gets isParent=true, one naming a child gets isParent=false,
// and both carry the relation's possibility.
func (s *PlaceService) FindGeoJSON(ctx context.Context, id string) (map[string]any, error) {
	resp, err := s.geo.Get(ctx, fmt.Sprintf("%s/%s.geojson", s.geoBase, id), nil)
	if err != nil {
		s.logger.Debug("geojson fetch failed", zap.String("place_id", id), zap.Error(err))
		return nil, apperr.NotFound("GeoJSON not found")
	}
	var doc map[string]any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, apperr.NotFound("GeoJSON not found")
	}

	detail, err := s.places.GetPlaceDetail(ctx, id)
	if err != nil {
		return nil, translate(err, placeNotFound)
	}
	features, _ := doc["features"].([]any)
	if len(features) == 0 || (len(detail.ParentRelations) == 0 && len(detail.ChildRelations) == 0) {
		return doc, nil
	}

	parents := relationIndex(detail.ParentRelations)
	children := relationIndex(detail.ChildRelations)
	for _, f := range features {
		feature, ok := f.(map[string]any)
		if !ok {
			continue
		}
		props, _ := feature["properties"].(map[string]any)
		featureID, _ := props["id"].(string)
		if featureID == "" {
			continue
		}
		related, _, _ := strings.Cut(featureID, ".")
		if rel, ok := parents[related]; ok {
			props["isParent"] = true
			props["possibility"] = rel.Possibility
		} else if rel, ok := children[related]; ok {
			props["isParent"] = false
			props["possibility"] = rel.Possibility
		}
	}
	return doc, nil
}

func relationIndex(rels []store.RelatedPlace) map[string]store.RelatedPlace {
	out := make(map[string]store.RelatedPlace, len(rels))
	for _, r := range rels {
		if _, dup := out[r.Place.ID]; !dup {
			out[r.Place.ID] = r
		}
	}
	return out
}

// PrefixCounts returns the number of non-modern places per first letter.
func (s *PlaceService) PrefixCounts(ctx context.Context) (Counts[store.PrefixCount], error) {
	return cache.Fetch(ctx, s.cache, prefixCountKey, s.cacheTTL, func(ctx context.Context) (Counts[store.PrefixCount], error) {
		counts, err := s.places.PrefixCounts(ctx)
		if err != nil {
			return Counts[store.PrefixCount]{}, err
		}
		if counts == nil {
			counts = []store.PrefixCount{}
		}
		return Counts[store.PrefixCount]{Total: len(counts), Data: counts}, nil
	})
}

// BibleBookCounts returns, in canonical order, the books cited by at least
// one non-modern place.
func (s *PlaceService) BibleBookCounts(ctx context.Context) (Counts[BibleCount], error) {
	return cache.Fetch(ctx, s.cache, bibleCountKey, s.cacheTTL, func(ctx context.Context) (Counts[BibleCount], error) {
		keys := bible.Keys()
		byKey, err := s.places.BibleBookCounts(ctx, keys)
		if err != nil {
			return Counts[BibleCount]{}, err
		}
		out := []BibleCount{}
		for _, k := range keys {
			if n := byKey[k]; n > 0 {
				out = append(out, BibleCount{Bible: k, PlaceCount: n})
			}
		}
		return Counts[BibleCount]{Total: len(out), Data: out}, nil
	})
}

// BibleVerse returns the text of one verse.
func (s *PlaceService) BibleVerse(ctx context.Context, q VerseQuery) (VerseText, error) {
	if q.Version == "" {
		q.Version = bible.DefaultVersion
	}
	if !q.Version.Valid() {
		return VerseText{}, apperr.BadRequest("Invalid bible version.")
	}
	book, ok := bible.Lookup(q.Book)
	if !ok {
		return VerseText{}, apperr.BadRequest("Invalid bible book.")
	}
	if q.Chapter < 1 || q.Verse < 1 {
		return VerseText{}, apperr.BadRequest("Chapter and verse must be positive.")
	}

	key := fmt.Sprintf("verse:%s:%s:%d:%d", q.Version, book.Slug, q.Chapter, q.Verse)
	return cache.Fetch(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (VerseText, error) {
		text, err := s.verses.Verse(ctx, q.Version, book.Slug, q.Chapter, q.Verse)
		if err != nil {
			s.logger.Error("failed to fetch bible verse", zap.String("key", key), zap.Error(err))
			return VerseText{}, apperr.Conflict("Failed to fetch bible verse from web")
		}
		return VerseText{Text: text}, nil
	})
}

// InvalidateCounts drops the cached prefix and book counts.
func (s *PlaceService) InvalidateCounts(ctx context.Context) {
	if err := s.cache.Del(ctx, prefixCountKey, bibleCountKey); err != nil {
		s.logger.Warn("failed to invalidate place counts", zap.Error(err))
	}
}
