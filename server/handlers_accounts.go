package server

import (
	"net/http"

	"github.com/jrsteele09/go-tenant-guard/auth"
	"github.com/jrsteele09/go-tenant-guard/organizations"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/jrsteele09/go-tenant-guard/users"
)

type SeatLimitRequest struct {
	SeatLimit int `json:"seat_limit"`
}

type FeaturesRequest struct {
	Features []string `json:"features"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ReassignRequest struct {
	OrganizationID string `json:"organization_id"`
}

type userList struct {
	Users []*users.User `json:"users"`
}

type ProvisionResponse struct {
	Organization *organizations.Organization `json:"organization"`
	Admin        *users.User                 `json:"admin,omitempty"`
}

// serviceCall decodes the body into req when it is non-nil, then runs call with the
// caller's Tenant Context and writes its result with status.
func serviceCall[T any](w http.ResponseWriter, r *http.Request, req any, status int, call func(tc tenancy.Context) (T, error)) {
	tc, err := tenantContext(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req != nil {
		if err := decodeJSON(w, r, req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	result, err := call(tc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, result)
}

func (s *Server) OrganizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceCall(w, r, nil, http.StatusOK, func(tc tenancy.Context) (*organizations.Organization, error) {
			return s.auth.Organization(r.Context(), tc)
		})
	}
}

func (s *Server) UpdateSeatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeatLimitRequest
		serviceCall(w, r, &req, http.StatusOK, func(tc tenancy.Context) (*organizations.Organization, error) {
			return s.auth.UpdateSeatLimit(r.Context(), tc, req.SeatLimit)
		})
	}
}

func (s *Server) UpdateFeaturesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeaturesRequest
		serviceCall(w, r, &req, http.StatusOK, func(tc tenancy.Context) (*organizations.Organization, error) {
			return s.auth.UpdateFeatures(r.Context(), tc, req.Features)
		})
	}
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceCall(w, r, nil, http.StatusOK, func(tc tenancy.Context) (userList, error) {
			list, err := s.auth.ListUsers(r.Context(), tc)
			return userList{Users: list}, err
		})
	}
}

func (s *Server) InviteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.InviteRequest
		serviceCall(w, r, &req, http.StatusCreated, func(tc tenancy.Context) (*users.User, error) {
			return s.auth.Invite(r.Context(), tc, req)
		})
	}
}

func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.UserUpdate
		serviceCall(w, r, &req, http.StatusOK, func(tc tenancy.Context) (*users.User, error) {
			return s.auth.UpdateUser(r.Context(), tc, r.PathValue("id"), req)
		})
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, err := tenantContext(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req ChangePasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.auth.ChangePassword(r.Context(), tc, req.CurrentPassword, req.NewPassword); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ReassignUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReassignRequest
		serviceCall(w, r, &req, http.StatusOK, func(tc tenancy.Context) (*users.User, error) {
			return s.auth.ReassignOrganization(r.Context(), tc, r.PathValue("id"), req.OrganizationID)
		})
	}
}

func (s *Server) ProvisionOrganizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.ProvisionRequest
		serviceCall(w, r, &req, http.StatusCreated, func(tc tenancy.Context) (ProvisionResponse, error) {
			org, admin, err := s.auth.ProvisionOrganization(r.Context(), tc, req)
			return ProvisionResponse{Organization: org, Admin: admin}, err
		})
	}
}
