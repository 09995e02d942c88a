package records

import (
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/pkg/errors"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Record is a tenant-scoped quality record (audit finding, CAPA, document review).
// OrganizationID is stamped from the caller's Scope on creation and never changes.
type Record struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Title          string     `json:"title"`
	Kind           string     `json:"kind"`
	Status         Status     `json:"status"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Items          []LineItem `json:"items,omitempty"`
}

// LineItem is a child row of a Record, owned by the same organization.
type LineItem struct {
	ID             string `json:"id"`
	RecordID       string `json:"record_id"`
	OrganizationID string `json:"organization_id"`
	Description    string `json:"description"`
}

// Validate checks the caller-supplied fields of a record.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.Wrap(apperrors.ErrInvalidRequest, "title is required")
	}
	if r.Status == "" {
		r.Status = StatusOpen
	}
	if !r.Status.Valid() {
		return errors.Wrapf(apperrors.ErrInvalidRequest, "unknown status %q", r.Status)
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Description) == "" {
			return errors.Wrap(apperrors.ErrInvalidRequest, "line item description is required")
		}
	}
	return nil
}
