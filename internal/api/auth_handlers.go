package api

import (
	"net/http"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Auth.Register(r.Context(), r.Header.Get("Authorization"))
	s.reply(w, r, http.StatusCreated, u, err)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Auth.Login(r.Context(), r.Header.Get("Authorization"))
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Auth.Refresh(r.Header.Get("Authorization"))
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) kakaoLogin(w http.ResponseWriter, r *http.Request) {
	var req kakaoTokenRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Auth.KakaoLogin(r.Context(), req.AccessToken)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	var req idTokenRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Auth.GoogleLogin(r.Context(), req.IDToken)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) appleLogin(w http.ResponseWriter, r *http.Request) {
	var req idTokenRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Auth.AppleLogin(r.Context(), req.IDToken)
	s.reply(w, r, http.StatusCreated, res, err)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Auth.Withdraw(r.Context(), principal(r).UserID)
	s.reply(w, r, http.StatusOK, res, err)
}
