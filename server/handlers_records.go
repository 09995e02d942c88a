package server

import (
	"net/http"

	"github.com/jrsteele09/go-tenant-guard/records"
	"github.com/jrsteele09/go-tenant-guard/tenancy"
	"github.com/pkg/errors"
)

type CreateRecordRequest struct {
	Title  string         `json:"title"`
	Kind   string         `json:"kind"`
	Status records.Status `json:"status"`
	Items  []struct {
		Description string `json:"description"`
	} `json:"items"`
}

type UpdateRecordRequest struct {
	Title  *string         `json:"title,omitempty"`
	Kind   *string         `json:"kind,omitempty"`
	Status *records.Status `json:"status,omitempty"`
}

type recordList struct {
	Records []*records.Record `json:"records"`
}

// scopedRequest returns the caller's Tenant Context and its organization Scope.
func scopedRequest(r *http.Request) (tenancy.Context, tenancy.Scope, error) {
	tc, err := tenantContext(r)
	if err != nil {
		return tenancy.Context{}, tenancy.Scope{}, err
	}
	scope, err := tenancy.NewScope(tc)
	if err != nil {
		return tenancy.Context{}, tenancy.Scope{}, err
	}
	return tc, scope, nil
}

func (s *Server) ListRecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, scope, err := scopedRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list, err := s.records.List(r.Context(), scope)
		if err != nil {
			writeError(w, r, errors.Wrap(err, "[Server.ListRecords]"))
			return
		}
		writeJSON(w, http.StatusOK, recordList{Records: list})
	}
}

// CreateRecordHandler stores a record and its line items in the caller's organization.
// Any organization id in the body is rejected as an unknown field.
func (s *Server) CreateRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, scope, err := scopedRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req CreateRecordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		rec := &records.Record{
			Title:     req.Title,
			Kind:      req.Kind,
			Status:    req.Status,
			CreatedBy: tc.UserID,
		}
		for _, item := range req.Items {
			rec.Items = append(rec.Items, records.LineItem{Description: item.Description})
		}
		if err := rec.Validate(); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.records.Create(r.Context(), scope, rec); err != nil {
			writeError(w, r, errors.Wrap(err, "[Server.CreateRecord]"))
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) GetRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, scope, err := scopedRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		rec, err := s.records.Get(r.Context(), scope, r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) UpdateRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, scope, err := scopedRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req UpdateRecordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		rec, err := s.records.Get(r.Context(), scope, r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if req.Title != nil {
			rec.Title = *req.Title
		}
		if req.Kind != nil {
			rec.Kind = *req.Kind
		}
		if req.Status != nil {
			rec.Status = *req.Status
		}
		if err := rec.Validate(); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.records.Update(r.Context(), scope, rec); err != nil {
			writeError(w, r, err)
			return
		}
		updated, err := s.records.Get(r.Context(), scope, rec.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// ListAllRecordsHandler lists records across every organization. Only a platform
// operator can build the unscoped Scope it needs.
func (s *Server) ListAllRecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, err := tenantContext(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		scope, err := tenancy.NewUnscoped(tc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list, err := s.records.List(r.Context(), scope)
		if err != nil {
			writeError(w, r, errors.Wrap(err, "[Server.ListAllRecords]"))
			return
		}
		writeJSON(w, http.StatusOK, recordList{Records: list})
	}
}
