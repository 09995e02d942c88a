package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-tenant-guard/auth"
	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/jrsteele09/go-tenant-guard/internal/metrics"
	"github.com/jrsteele09/go-tenant-guard/users"
)

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type RefreshRequest struct {
	RefreshCredential string `json:"refreshCredential"`
}

// CredentialsResponse is the body of a successful login or refresh. User is only set
// on login.
type CredentialsResponse struct {
	AccessCredential  string      `json:"accessCredential"`
	AccessExpiresAt   time.Time   `json:"accessExpiresAt"`
	RefreshCredential string      `json:"refreshCredential"`
	RefreshExpiresAt  time.Time   `json:"refreshExpiresAt"`
	User              *users.User `json:"user,omitempty"`
}

func newCredentialsResponse(c *auth.Credentials, withUser bool) CredentialsResponse {
	resp := CredentialsResponse{
		AccessCredential:  c.AccessToken,
		AccessExpiresAt:   c.AccessExpiresAt,
		RefreshCredential: c.RefreshToken,
		RefreshExpiresAt:  c.RefreshExpiresAt,
	}
	if withUser {
		resp.User = c.User
	}
	return resp
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			// a malformed login is reported like any other failed login
			metrics.ObserveAuth("login", string(apperrors.CodeInvalidCredentials))
			writeError(w, r, apperrors.ErrInvalidCredentials)
			return
		}
		creds, err := s.auth.Login(r.Context(), req.Identifier, req.Password)
		metrics.ObserveAuth("login", string(apperrors.CodeOf(err)))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCredentialsResponse(creds, true))
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := decodeJSON(w, r, &req); err != nil || req.RefreshCredential == "" {
			metrics.ObserveAuth("refresh", string(apperrors.CodeRefreshInvalid))
			writeError(w, r, apperrors.ErrRefreshInvalid)
			return
		}
		creds, err := s.auth.Refresh(r.Context(), req.RefreshCredential)
		metrics.ObserveAuth("refresh", string(apperrors.CodeOf(err)))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCredentialsResponse(creds, false))
	}
}

// LogoutHandler revokes every refresh credential of the bearer's user. The access
// credential only needs to verify, so a disabled user can still log out.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err == nil {
			err = s.auth.Logout(r.Context(), raw)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
