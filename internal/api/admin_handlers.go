package api

import (
	"net/http"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

func (s *Server) createNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Notification.Create(r.Context(), store.Notification{
		Type:        store.NotificationType(*req.Type),
		Title:       req.Title,
		Content:     req.Content,
		RedirectURL: req.RedirectURL,
		UserID:      &req.UserID,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Notification.FindAll(r.Context(), principal(r).UserID, page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Notification.FindOne(r.Context(), principal(r).UserID, id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Notification.Remove(r.Context(), principal(r).UserID, id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Report.Create(r.Context(), store.Report{
		Type:    store.FeedbackType(req.Type),
		Comment: req.Comment,
	}, auth.UserIDFrom(r.Context()))
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Report.FindAll(r.Context(), page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Report.FindOne(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) updateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateReportRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	upd := store.ReportUpdate{Comment: req.Comment}
	if req.Type != nil {
		t := store.FeedbackType(*req.Type)
		upd.Type = &t
	}
	res, err := s.svc.Report.Update(r.Context(), id, upd)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Report.Remove(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) createPlaceReport(w http.ResponseWriter, r *http.Request) {
	var req createPlaceReportRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceReport.Create(r.Context(), store.PlaceReport{
		Type:    store.ReportType(*req.Type),
		Reason:  req.Reason,
		PlaceID: req.PlaceID,
	}, auth.UserIDFrom(r.Context()))
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) listPlaceReports(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceReport.FindAll(r.Context(), page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getPlaceReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceReport.FindOne(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) updatePlaceReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updatePlaceReportRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	upd := store.PlaceReportUpdate{Reason: req.Reason}
	if req.Type != nil {
		t := store.ReportType(*req.Type)
		upd.Type = &t
	}
	res, err := s.svc.PlaceReport.Update(r.Context(), id, upd)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deletePlaceReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceReport.Remove(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) createPlaceType(w http.ResponseWriter, r *http.Request) {
	var req placeTypeRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceType.Create(r.Context(), req.Name)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) listPlaceTypes(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceType.FindAll(r.Context(), page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getPlaceType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceType.FindOne(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) updatePlaceType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req placeTypeRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceType.Update(r.Context(), id, req.Name)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deletePlaceType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.PlaceType.Remove(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.User.Me(r.Context(), principal(r).UserID)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) myPlaces(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kind := store.CollectionKind(r.URL.Query().Get("filter"))
	switch kind {
	case "", store.CollectionLike, store.CollectionSave, store.CollectionMemo:
	default:
		s.fail(w, r, apperr.BadRequest("filter must be like, save or memo"))
		return
	}
	res, err := s.svc.User.MyPlaces(r.Context(), principal(r).UserID, kind, page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.User.FindAll(r.Context(), page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.User.FindOne(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.User.Remove(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}
