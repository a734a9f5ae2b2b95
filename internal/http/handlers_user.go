package http

import (
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := principal(r)
	if err != nil {
		s.fail(w, r, log.OpRead, "User", err)
		return
	}
	u, err := s.deps.Accounts.Get(r.Context(), userID)
	if err != nil {
		s.fail(w, r, log.OpRead, "User", err)
		return
	}
	NewJSONResponse().Body(newUserResponse(u, "")).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := principal(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, "User", err)
		return
	}
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpUpdate, "User", err)
		return
	}

	u, token, err := s.deps.Accounts.UpdateProfile(r.Context(), userID, req.patch())
	if err != nil {
		s.fail(w, r, log.OpUpdate, "User", err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Profile updated", log.FieldUserID, u.ID)
	NewJSONResponse().Body(newUserResponse(u, token)).Write(w)
}
