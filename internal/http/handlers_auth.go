package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpRegister, "User", err)
		return
	}

	u, token, err := s.deps.Accounts.Register(r.Context(), req.registration())
	if errors.Is(err, core.ErrConflict) {
		BadRequestError("User already exists").Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, log.OpRegister, "User", err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered", log.FieldUserID, u.ID)
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(newUserResponse(u, token)).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpLogin, "User", err)
		return
	}

	u, token, err := s.deps.Accounts.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, core.ErrUnauthenticated) {
		UnauthorizedError("Invalid email or password").Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, log.OpLogin, "User", err)
		return
	}

	NewJSONResponse().Body(newUserResponse(u, token)).Write(w)
}
