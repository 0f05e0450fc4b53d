package http

import (
	"net/http"

	"fintrack/internal/core"
)

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          *core.User `json:"user,omitempty"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.sessions.SignUp(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessions.CurrentUser()
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: &user})
}
