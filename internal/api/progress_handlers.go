package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Scrape.Scrape(r.Context(), principal(r).UserID, page)
	s.reply(w, r, http.StatusAccepted, res, err)
}

// listScrapeJobs handles GET /place/scrap/jobs?status=&page=&limit=.
func (s *Server) listScrapeJobs(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var status *store.ScrapeJobStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, err := parseStatus(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		status = &st
	}
	res, err := s.svc.Scrape.Jobs(r.Context(), status, page)
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) getScrapeJob(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Scrape.Job(r.Context(), chi.URLParam(r, "jobId"))
	s.reply(w, r, http.StatusOK, res, err)
}

func (s *Server) push(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Scrape.Push(r.Context())
	s.reply(w, r, http.StatusCreated, res, err)
}

func parseStatus(input string) (store.ScrapeJobStatus, error) {
	switch strings.ToLower(input) {
	case "queued":
		return store.ScrapeQueued, nil
	case "running":
		return store.ScrapeRunning, nil
	case "success":
		return store.ScrapeSuccess, nil
	case "error", "failed", "failure":
		return store.ScrapeError, nil
	default:
		return "", apperr.BadRequest("invalid status")
	}
}

// streamProgress handles GET /place/progress/{userId}. Each update is sent
// as a server-sent event carrying {"progress": x}; the stream ends when the
// client disconnects or the broker shuts down.
func (s *Server) streamProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		s.fail(w, r, apperr.BadRequest("userId must be an integer"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.fail(w, r, errors.New("streaming unsupported"))
		return
	}

	updates, cancel := s.progress.Subscribe(userID)
	defer cancel()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(s.opts.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(u)
			if err != nil {
				s.logger.Error("encode progress update", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
