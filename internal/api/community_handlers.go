package api

import (
	"net/http"
	"strings"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

func (s *Server) createProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Proposal.Create(r.Context(), req.proposal(), principal(r).UserID)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) listProposals(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Proposal.FindAll(r.Context(), page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Proposal.FindOne(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) updateProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateProposalRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Proposal.Update(r.Context(), id, principal(r).UserID, req.update())
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deleteProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Proposal.Remove(r.Context(), id, principal(r).UserID)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) toggleAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req agreementRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	agree := true
	if req.IsAgree != nil {
		agree = *req.IsAgree
	}
	res, err := s.svc.Proposal.ToggleAgreement(r.Context(), id, principal(r).UserID, agree)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) reportProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req abuseReportRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	report := store.UserProposalReport{
		UserID:     principal(r).UserID,
		ProposalID: id,
		Type:       store.ReportType(*req.Type),
	}
	if req.Reason != nil {
		report.Reason = *req.Reason
	}
	err = s.svc.Proposal.Report(r.Context(), report)
	s.reply(w, r, http.StatusCreated, report, err)
}

func (s *Server) listLocations(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	res, err := s.svc.Location.FindAll(r.Context(), query, page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) locationsWithin(w http.ResponseWriter, r *http.Request) {
	var box store.BoundingBox
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"swLatitude", &box.SWLat},
		{"swLongitude", &box.SWLng},
		{"neLatitude", &box.NELat},
		{"neLongitude", &box.NELng},
	} {
		v, err := queryFloat(r, f.name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		*f.dst = v
	}
	res, err := s.svc.Location.FindWithin(r.Context(), box)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Location.FindOne(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) likeLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Location.ToggleLike(r.Context(), principal(r).UserID, id)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) saveLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Location.ToggleSave(r.Context(), principal(r).UserID, id)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) reportLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req abuseReportRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Location.Report(r.Context(), store.UserLocationReport{
		UserID:     principal(r).UserID,
		LocationID: id,
		Type:       store.ReportType(*req.Type),
		Reason:     req.Reason,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) createLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	creator := principal(r).UserID
	res, err := s.svc.Location.Create(r.Context(), store.Location{
		Name:        req.Name,
		Description: req.Description,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		CreatorID:   &creator,
	})
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateLocationRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Location.Update(r.Context(), id, store.LocationUpdate{
		Name:        req.Name,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) deleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Location.Remove(r.Context(), id)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) applyProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Location.ApplyProposal(r.Context(), id)
	s.reply(w, r, http.StatusCreated, res, err)
}
