package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// fail maps a service error to its response. resource names the thing a
// core.ErrNotFound refers to. Unclassified errors are logged and reported as
// a generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op, resource string, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		BadRequestError(ve.Error()).Write(w)
	case errors.Is(err, core.ErrValidation):
		BadRequestError("Invalid request").Write(w)
	case errors.Is(err, core.ErrUnauthenticated):
		UnauthorizedError("Not authorized").Write(w)
	case errors.Is(err, core.ErrUnauthorized):
		UnauthorizedError("User not authorized").Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(resource + " not found").Write(w)
	case errors.Is(err, core.ErrConflict):
		ConflictError("Email already in use").Write(w)
	default:
		ctx := r.Context()
		fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "")
		if userID, perr := principal(r); perr == nil {
			fields = fields.WithUser(userID)
		}
		log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentHTTP)).
			LogError(ctx, "Request failed", err, op, fields)
		InternalServerError("Something went wrong").Write(w)
	}
}

// userResponse is the public shape of a user. _id mirrors id for clients
// written against the document-store API.
type userResponse struct {
	ID            int64      `json:"id"`
	LegacyID      int64      `json:"_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	ProfileImage  string     `json:"profileImage"`
	MonthlyBudget core.Money `json:"monthlyBudget"`
	Token         string     `json:"token,omitempty"`
}

func newUserResponse(u core.User, token string) userResponse {
	return userResponse{
		ID:            u.ID,
		LegacyID:      u.ID,
		Name:          u.Name,
		Email:         u.Email,
		ProfileImage:  u.ProfileImage,
		MonthlyBudget: u.MonthlyBudget,
		Token:         token,
	}
}
