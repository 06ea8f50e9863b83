package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail renders err. Client errors keep their message; anything else is
// logged and reported as a bare 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if ae, ok := apperr.As(err); ok {
		writeError(w, ae.Status(), ae.Message)
		return
	}
	s.logger.Error("request failed",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// reply writes v with status, or the error.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.BadRequest("Unable to read request body.")
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.BadRequest("Invalid JSON body.")
	}
	return s.check(dst)
}

// check validates dst's struct tags.
func (s *Server) check(dst any) error {
	err := s.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := lowerFirst(fe.Field())
		if fe.Param() != "" {
			return apperr.BadRequest(fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
		return apperr.BadRequest(fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return apperr.BadRequest(err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// principal returns the authenticated caller. Routes using it sit behind
// RequireUser.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func pathInt(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.BadRequest(fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest(fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.BadRequest(fmt.Sprintf("%s must be a number", name))
	}
	return v, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.BadRequest(fmt.Sprintf("%s must be a boolean", name))
	}
	return v, nil
}

// parsePage reads ?page=&limit=. Missing values take the store defaults.
func parsePage(r *http.Request) (store.Page, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return store.Page{}, err
	}
	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		return store.Page{}, err
	}
	if limit < 0 {
		return store.Page{}, apperr.BadRequest("limit must not be negative")
	}
	return store.Page{Page: page, Limit: limit}, nil
}
