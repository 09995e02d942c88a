package organizations

import (
	"sort"
	"time"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanStandard   Plan = "standard"
	PlanEnterprise Plan = "enterprise"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanStandard, PlanEnterprise:
		return true
	}
	return false
}

// Organization is a tenant. Every tenant-scoped business row references exactly one.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      Plan      `json:"plan"`
	SeatLimit int       `json:"seat_limit"`
	Features  []string  `json:"features"`
	CreatedAt time.Time `json:"created_at"`
}

// HasFeature reports whether feature is enabled for the organization.
func (o *Organization) HasFeature(feature string) bool {
	for _, f := range o.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// NormalizeFeatures de-duplicates and sorts a feature set.
func NormalizeFeatures(features []string) []string {
	seen := make(map[string]struct{}, len(features))
	out := make([]string, 0, len(features))
	for _, f := range features {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
