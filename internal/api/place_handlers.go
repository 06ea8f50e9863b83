package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/bible"
	"github.com/JakeFAU/bible-atlas-api/internal/service"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

func (s *Server) createPlace(w http.ResponseWriter, r *http.Request) {
	var req createPlaceRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.Place.Create(r.Context(), req.place(), req.TypeIDs)
	s.reply(w, r, http.StatusCreated, p, err)
}

// parsePlaceFilter reads the place listing query. placeTypes may repeat or
// hold a comma separated list.
func parsePlaceFilter(r *http.Request) (store.PlaceFilter, error) {
	q := r.URL.Query()
	page, err := parsePage(r)
	if err != nil {
		return store.PlaceFilter{}, err
	}
	isModern, err := queryBool(r, "isModern")
	if err != nil {
		return store.PlaceFilter{}, err
	}
	f := store.PlaceFilter{
		Name:     strings.TrimSpace(q.Get("name")),
		IsModern: isModern,
		Prefix:   strings.TrimSpace(q.Get("prefix")),
		Sort:     store.SortAsc,
		Page:     page,
	}

	switch st := store.Stereo(q.Get("stereo")); st {
	case "":
	case store.StereoParent, store.StereoChild:
		f.Stereo = st
	default:
		return store.PlaceFilter{}, apperr.BadRequest("stereo must be parent or child")
	}

	switch sort := store.PlaceSort(q.Get("sort")); sort {
	case "":
	case store.SortAsc, store.SortDesc, store.SortLike:
		f.Sort = sort
	default:
		return store.PlaceFilter{}, apperr.BadRequest("sort must be asc, desc or like")
	}

	if key := q.Get("bibleBook"); key != "" {
		b, ok := bible.Lookup(key)
		if !ok {
			return store.PlaceFilter{}, apperr.BadRequest("bibleBook is not a known book")
		}
		f.BibleBook = b.Key
	}

	for _, v := range q["placeTypes"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.PlaceTypes = append(f.PlaceTypes, t)
			}
		}
	}
	return f, nil
}

func (s *Server) listPlaces(w http.ResponseWriter, r *http.Request) {
	f, err := parsePlaceFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Place.FindAll(r.Context(), f)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) repPoints(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.FindRepPoints(r.Context())
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) prefixCounts(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.PrefixCounts(r.Context())
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) bibleCounts(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.BibleBookCounts(r.Context())
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) bibleVerse(w http.ResponseWriter, r *http.Request) {
	chapter, err := queryInt(r, "chapter", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	verse, err := queryInt(r, "verse", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := service.VerseQuery{
		Version: bible.Version(r.URL.Query().Get("version")),
		Book:    r.URL.Query().Get("book"),
		Chapter: chapter,
		Verse:   verse,
	}
	res, err := s.svc.Place.BibleVerse(r.Context(), q)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) myCollectionIDs(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.FindMyCollectionIDs(r.Context(), principal(r).UserID)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getPlace(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.FindOne(r.Context(), chi.URLParam(r, "id"), auth.UserIDFrom(r.Context()))
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) placeGeoJSON(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.FindGeoJSON(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) updatePlace(w http.ResponseWriter, r *http.Request) {
	var req updatePlaceRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Place.Update(r.Context(), chi.URLParam(r, "id"), req.update())
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deletePlace(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.Remove(r.Context(), chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) likePlace(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.ToggleLike(r.Context(), principal(r).UserID, chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) savePlace(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.ToggleSave(r.Context(), principal(r).UserID, chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) upsertMemo(w http.ResponseWriter, r *http.Request) {
	var req memoRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Place.UpsertMemo(r.Context(), principal(r).UserID, chi.URLParam(r, "id"), req.Text)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deleteMemo(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Place.DeleteMemo(r.Context(), principal(r).UserID, chi.URLParam(r, "id"))
	s.reply(w, r, http.StatusOK, res, err)
}
